package persona

// Store exposes persona retrieval for HTTP handlers.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the selectable personas; hidden sub-modes are skipped.
func (s *MemoryStore) List() []Persona {
	out := make([]Persona, 0, len(s.items))
	for _, item := range s.items {
		if item.Hidden {
			continue
		}
		out = append(out, item)
	}
	return out
}

// FindByID looks up a persona by identifier, hidden ones included.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}
