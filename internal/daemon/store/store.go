package store

import (
	"sync/atomic"

	"github.com/grovetools/br0wse/errors"
)

// Store is an append-only, ordered collection of records with a revision
// counter. It has exactly one writer, granted through Claim; any number of
// goroutines may take snapshots concurrently without locking.
type Store struct {
	name  string
	head  atomic.Pointer[header]
	owner atomic.Pointer[string]
}

// New creates an empty Store at revision 0.
func New(name string) *Store {
	s := &Store{name: name}
	s.head.Store(&header{})
	return s
}

// Name returns the store's name.
func (s *Store) Name() string { return s.name }

// Claim grants the single write handle for the store to owner.
// A second claim fails with ErrCodeWriterClaimed.
func (s *Store) Claim(owner string) (*Writer, error) {
	if !s.owner.CompareAndSwap(nil, &owner) {
		return nil, errors.WriterClaimed(s.name, *s.owner.Load(), owner)
	}
	return &Writer{store: s, owner: owner}, nil
}

// Owner returns the name of the writer holding the store, or "" if unclaimed.
func (s *Store) Owner() string {
	if o := s.owner.Load(); o != nil {
		return *o
	}
	return ""
}

// Snapshot returns the records and revision as of the call. Later appends
// are never visible through the returned value.
func (s *Store) Snapshot() Snapshot {
	h := s.head.Load()
	return Snapshot{
		Name:     s.name,
		Records:  h.records,
		Revision: h.revision,
	}
}

// Revision returns the current revision.
func (s *Store) Revision() uint64 {
	return s.head.Load().revision
}

// Len returns the current number of records.
func (s *Store) Len() int {
	return len(s.head.Load().records)
}

// Changed reports whether the store has moved past rev.
func (s *Store) Changed(rev uint64) bool {
	return s.Revision() != rev
}

// Writer is the single mutation handle of a Store. It must only be used from
// the goroutine that owns it.
type Writer struct {
	store   *Store
	owner   string
	records []Record
}

// Owner returns the name the writer was claimed with.
func (w *Writer) Owner() string { return w.owner }

// Store returns the store this writer appends to.
func (w *Writer) Store() *Store { return w.store }

// Append adds r at the end of the store and returns the new revision,
// which is always the previous revision plus one.
func (w *Writer) Append(r Record) uint64 {
	w.records = append(w.records, r)
	n := len(w.records)
	h := &header{
		// Pin length and capacity so readers can never observe
		// the slots this writer fills next.
		records:  w.records[:n:n],
		revision: uint64(n),
	}
	w.store.head.Store(h)
	return h.revision
}
