package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cobra"

	"schema-mapper/internal/mapfile"
	"schema-mapper/internal/match"
	"schema-mapper/mapper"
	"schema-mapper/schema"
)

var errNoMapping = errors.New("no mapping selected")

type applyOptions struct {
	mapping  string
	input    string
	selector string
	values   map[string]string
	compact  bool
}

func newApplyCmd(opts *options) *cobra.Command {
	ao := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <mapping.yaml>",
		Short: "Map JSON documents through a compiled mapping",
		Long: `Reads a JSON object or array of objects, decodes each object as a record of
the mapping's source schema and writes the mapped records as JSON.

With --select, the records are the JSONPath matches within the input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}

			return ao.run(cmd, res)
		},
	}

	cmd.Flags().StringVarP(&ao.mapping, "mapping", "m", "", "Mapping name (optional when the file declares one mapping)")
	cmd.Flags().StringVarP(&ao.input, "input", "i", "-", "Input JSON file, - for stdin")
	cmd.Flags().StringVarP(&ao.selector, "select", "s", "", "JSONPath selecting the source objects")
	cmd.Flags().StringToStringVar(&ao.values, "set", nil, "Context values available to actions (key=value)")
	cmd.Flags().BoolVar(&ao.compact, "compact", false, "Write compact JSON")

	return cmd
}

func (ao *applyOptions) run(cmd *cobra.Command, res *mapfile.Result) error {
	def, err := ao.definition(res)
	if err != nil {
		return err
	}

	from, ok := def.From().(*schema.RecordSchema)
	if !ok {
		return fmt.Errorf("mapping %s does not read records", def)
	}

	data, err := ao.read(cmd.InOrStdin())
	if err != nil {
		return err
	}

	docs, single, err := ao.documents(data)
	if err != nil {
		return err
	}

	records := make([]*schema.Record, len(docs))
	for i, doc := range docs {
		if records[i], err = mapfile.DecodeRecord(from, doc); err != nil {
			return fmt.Errorf("failed to decode input #%d: %w", i, err)
		}
	}

	ctx := mapper.NewContext(nil)
	for k, v := range ao.values {
		ctx.Set(k, v)
	}

	seq := func(yield func(any) bool) {
		for _, rec := range records {
			if !yield(rec) {
				return
			}
		}
	}

	out := make([]any, 0, len(records))

	for v, err := range def.ApplyEach(seq, ctx) {
		if err != nil {
			return err
		}

		out = append(out, mapfile.EncodeValue(v))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !ao.compact {
		enc.SetIndent("", "  ")
	}

	if single && len(out) == 1 {
		return enc.Encode(out[0])
	}

	return enc.Encode(out)
}

func (ao *applyOptions) definition(res *mapfile.Result) (*mapper.Definition, error) {
	name := ao.mapping
	if name == "" {
		if len(res.Order) != 1 {
			return nil, fmt.Errorf("%w: --mapping is required, the file declares %d mappings", errNoMapping, len(res.Order))
		}

		name = res.Order[0]
	}

	def, ok := res.Mapping(name)
	if !ok {
		var hint string
		if s := match.Suggest(name, res.Order, 3); len(s) > 0 {
			hint = " (did you mean " + strings.Join(s, ", ") + "?)"
		}

		return nil, fmt.Errorf("%w: mapping %q not found%s", errNoMapping, name, hint)
	}

	return def, nil
}

func (ao *applyOptions) read(stdin io.Reader) ([]byte, error) {
	if ao.input == "" || ao.input == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(ao.input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	return data, nil
}

// documents decodes the input and returns the source objects, and whether the
// input was a single object.
func (ao *applyOptions) documents(data []byte) ([]any, bool, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to parse input JSON: %w", err)
	}

	if ao.selector != "" {
		x, err := jp.ParseString(ao.selector)
		if err != nil {
			return nil, false, fmt.Errorf("invalid jsonpath %q: %w", ao.selector, err)
		}

		return x.Get(doc), false, nil
	}

	if list, ok := doc.([]any); ok {
		return list, false, nil
	}

	return []any{doc}, true, nil
}
