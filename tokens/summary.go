package tokens

// Summary counts what an extraction produced
type Summary struct {
	Total    int `json:"total"`
	Words    int `json:"words"`
	Numbers  int `json:"numbers"`
	Distinct int `json:"distinct"`
}

// Summarize tallies words, numbers and distinct tokens
func Summarize(tokens []string) Summary {
	s := Summary{Total: len(tokens)}
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if IsNumber(tok) {
			s.Numbers++
		} else {
			s.Words++
		}
		seen[tok] = struct{}{}
	}
	s.Distinct = len(seen)
	return s
}

// IsNumber reports whether an extracted token is a digit run
func IsNumber(tok string) bool {
	return len(tok) > 0 && tok[0] >= '0' && tok[0] <= '9'
}
