package mapper

// Context is the caller-supplied state shared by every element of one
// sequence application, together with the loop position stack.
// A Context is not safe for concurrent use.
type Context struct {
	// Values is free-form state available to actions.
	Values map[string]any

	loops []int
}

// NewContext returns a Context holding values (a new map when nil).
func NewContext(values map[string]any) *Context {
	if values == nil {
		values = map[string]any{}
	}

	return &Context{Values: values}
}

// CurrentIndex returns the position within the innermost active loop.
func (c *Context) CurrentIndex() (int, bool) {
	if c == nil || len(c.loops) == 0 {
		return 0, false
	}

	return c.loops[len(c.loops)-1], true
}

// Depth returns the number of nested sequence applications currently active.
func (c *Context) Depth() int {
	if c == nil {
		return 0
	}

	return len(c.loops)
}

// InLoop returns true if a sequence application is active.
func (c *Context) InLoop() bool {
	return c.Depth() > 0
}

// Get returns a context value.
func (c *Context) Get(key string) any {
	if c == nil {
		return nil
	}

	return c.Values[key]
}

// Set stores a context value.
func (c *Context) Set(key string, v any) {
	if c.Values == nil {
		c.Values = map[string]any{}
	}

	c.Values[key] = v
}

func (c *Context) enterLoop() {
	c.loops = append(c.loops, 0)
}

func (c *Context) advance() {
	c.loops[len(c.loops)-1]++
}

func (c *Context) exitLoop() {
	c.loops = c.loops[:len(c.loops)-1]
}
