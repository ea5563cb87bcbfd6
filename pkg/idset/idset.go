// Package idset implements an unordered set of uint64 ids with constant time
// insertion, removal and membership check. Removal swaps the removed id with
// the last one, therefore the order of the ids is not stable.
package idset

// Set is not safe for concurrent use.
type Set struct {
	ids     []uint64
	indexes map[uint64]int
}

func New() *Set {
	return &Set{
		ids:     make([]uint64, 0),
		indexes: make(map[uint64]int),
	}
}

// Add inserts the given id, if not already present. It returns whether the id
// has been added.
func (s *Set) Add(id uint64) bool {
	if _, ok := s.indexes[id]; ok {
		return false
	}
	s.indexes[id] = len(s.ids)
	s.ids = append(s.ids, id)
	return true
}

// Remove deletes the given id, if present. It returns whether the id has been
// removed.
func (s *Set) Remove(id uint64) bool {
	i, ok := s.indexes[id]
	if !ok {
		return false
	}

	last := len(s.ids) - 1
	if i != last {
		moved := s.ids[last]
		s.ids[i] = moved
		s.indexes[moved] = i
	}
	s.ids = s.ids[:last]
	delete(s.indexes, id)
	return true
}

func (s *Set) Contains(id uint64) bool {
	_, ok := s.indexes[id]
	return ok
}

func (s *Set) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the ids in the set.
func (s *Set) IDs() []uint64 {
	ids := make([]uint64, len(s.ids))
	copy(ids, s.ids)
	return ids
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	cp := &Set{
		ids:     s.IDs(),
		indexes: make(map[uint64]int, len(s.indexes)),
	}
	for id, i := range s.indexes {
		cp.indexes[id] = i
	}
	return cp
}
