package vfs

import (
	"sort"

	"github.com/dmitrijs2005/clogkeeper/internal/cryptox"
)

// Slots holds sealed file contents by content ID. Nothing in here is ever
// decrypted by Slots itself.
type Slots struct {
	m map[string]cryptox.Sealed
}

func NewSlots() *Slots {
	return &Slots{m: make(map[string]cryptox.Sealed)}
}

func (s *Slots) Put(id string, sealed cryptox.Sealed) {
	s.m[id] = sealed
}

func (s *Slots) Get(id string) (cryptox.Sealed, bool) {
	v, ok := s.m[id]
	return v, ok
}

// Release drops a slot. Its ID is never handed out again.
func (s *Slots) Release(id string) {
	delete(s.m, id)
}

func (s *Slots) Len() int {
	return len(s.m)
}

// IDs returns the content IDs in sorted order.
func (s *Slots) IDs() []string {
	ids := make([]string, 0, len(s.m))
	for id := range s.m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
