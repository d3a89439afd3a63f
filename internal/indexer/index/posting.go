package index

// Posting records where a term occurs in one document.
type Posting struct {
	DocID     int   `json:"d"`
	Positions []int `json:"p"`
}

// Frequency is the raw term count in the document.
func (p Posting) Frequency() int { return len(p.Positions) }

// PostingList is ordered by ascending DocID.
type PostingList []Posting

// DocIDs returns the document ids of the list in order.
func (pl PostingList) DocIDs() []int {
	ids := make([]int, len(pl))
	for i, p := range pl {
		ids[i] = p.DocID
	}
	return ids
}

// TermEntry pairs a term with its postings; it is the unit persisted in a
// segment file.
type TermEntry struct {
	Term     string
	Postings PostingList
}
