package match

// Distance returns the Levenshtein distance between a and b: the fewest
// single-rune insertions, deletions and substitutions turning one into the
// other. It keeps a single row sized by the shorter string.
func Distance(a, b string) int {
	long, short := []rune(a), []rune(b)
	if len(long) < len(short) {
		long, short = short, long
	}

	row := make([]int, len(short)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(long); i++ {
		diag := row[0]
		row[0] = i

		for j := 1; j <= len(short); j++ {
			cost := 1
			if long[i-1] == short[j-1] {
				cost = 0
			}

			next := min(row[j]+1, row[j-1]+1, diag+cost)
			diag, row[j] = row[j], next
		}
	}

	return row[len(short)]
}

// Similarity scores a and b between 0 (nothing in common) and 1 (equal) as
// one minus their distance over the longer length.
func Similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}

	return 1 - float64(Distance(a, b))/float64(longest)
}
