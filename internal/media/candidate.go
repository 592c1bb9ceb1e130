package media

// Candidate is one catalog search hit, not yet accepted into the store
type Candidate struct {
	ExternalID  int64
	Kind        Kind
	Title       string
	RomajiTitle string
	NativeTitle string
	Year        int
	Overview    string
	PosterURL   string

	// Relation is set on franchise entries pulled in through a relation graph
	// (PREQUEL, SEQUEL, SIDE_STORY...). Empty for direct search hits.
	Relation string

	Confidence float64
	MatchedOn  []string
}

// Clone returns a deep copy
func (c Candidate) Clone() Candidate {
	if c.MatchedOn != nil {
		c.MatchedOn = append([]string(nil), c.MatchedOn...)
	}
	return c
}

// CloneAll deep-copies a candidate list
func CloneAll(cands []Candidate) []Candidate {
	if cands == nil {
		return nil
	}
	out := make([]Candidate, len(cands))
	for i, c := range cands {
		out[i] = c.Clone()
	}
	return out
}

// Describe formats the candidate's title and year
func (c Candidate) Describe() string {
	return Describe(c.Title, c.Year)
}
