// Package document provides the in-memory document store. Documents live for
// the lifetime of the process only; there is no persistence and no teardown.
package document

import (
	"sync"

	"github.com/book-expert/pdf-narrator/internal/core"
)

// Store is an append-only, in-memory implementation of core.DocumentStore.
// Documents are never mutated after insertion, so readers need no copies.
type Store struct {
	mu        sync.RWMutex
	documents map[string]*core.Document
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]*core.Document),
	}
}

// Put inserts a document. Identifiers are never reused, so an insert cannot
// observe an existing entry.
func (s *Store) Put(doc *core.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents[doc.ID] = doc
}

// Get returns the document for id, reporting whether it exists.
func (s *Store) Get(id string) (*core.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]

	return doc, ok
}

// Len reports the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.documents)
}
