package domain

// SelectionRange is a pair of offsets into the document's linear text.
// Start == End denotes "no selection".
type SelectionRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the range selects nothing.
func (r SelectionRange) Empty() bool {
	return r.Start == r.End
}

// Len returns the number of positions spanned by the range.
func (r SelectionRange) Len() int {
	n := r.Normalize()
	return n.End - n.Start
}

// Normalize returns the range with Start <= End.
// Editors report a backwards drag as anchor > head.
func (r SelectionRange) Normalize() SelectionRange {
	if r.Start > r.End {
		return SelectionRange{Start: r.End, End: r.Start}
	}
	return r
}
