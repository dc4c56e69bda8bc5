// Package store provides the append-only observable stores behind a browse session.
package store

// Record is one immutable item appended to a store: a discovered service
// description or a synthesized tick.
type Record string

// Snapshot is a point-in-time view of a store. Records is pinned to the
// length at the time the snapshot was taken and must be treated as read-only.
type Snapshot struct {
	Name     string   `json:"name"`
	Records  []Record `json:"records"`
	Revision uint64   `json:"revision"`
}

// Len returns the number of records in the snapshot.
func (s Snapshot) Len() int { return len(s.Records) }

// Since returns the records appended after the given revision.
// A revision newer than the snapshot yields nil.
func (s Snapshot) Since(rev uint64) []Record {
	if rev >= uint64(len(s.Records)) {
		return nil
	}
	return s.Records[rev:]
}

// Strings returns the records as plain strings.
func (s Snapshot) Strings() []string {
	out := make([]string, len(s.Records))
	for i, r := range s.Records {
		out[i] = string(r)
	}
	return out
}

// header is the immutable published state of a store.
type header struct {
	records  []Record
	revision uint64
}
