package annotation

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// symbolWindow is the maximum distance to an entry whose symbol is used
// to name an address without an own entry.
const symbolWindow = 32

// Store is an immutable set of annotations keyed by address.
type Store struct {
	system    string
	entries   map[uint16]Entry
	addresses []uint16 // sorted
}

// NewStore returns a store containing the given entries. If multiple
// entries share an address, the last one is used.
func NewStore(system string, entries ...Entry) *Store {
	s := &Store{
		system:  system,
		entries: make(map[uint16]Entry, len(entries)),
	}
	for _, e := range entries {
		e.Synthesized = false
		e.Origin = e.Address
		s.entries[e.Address] = e
	}

	s.addresses = maps.Keys(s.entries)
	slices.Sort(s.addresses)
	return s
}

// System returns the machine name the annotations were written for.
func (s *Store) System() string {
	return s.system
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Entry returns the stored entry of the address.
func (s *Store) Entry(address uint16) (Entry, bool) {
	e, ok := s.entries[address]
	return e, ok
}

// Has returns whether an entry is stored for the address.
func (s *Store) Has(address uint16) bool {
	_, ok := s.entries[address]
	return ok
}

// Entries returns all stored entries sorted by address.
func (s *Store) Entries() []Entry {
	result := make([]Entry, 0, len(s.addresses))
	for _, address := range s.addresses {
		result = append(result, s.entries[address])
	}
	return result
}

// Resolve returns the entry of the address. For addresses without an own
// entry an entry is synthesized: its type continues the type of the closest
// entry below, with a space region ending after its first address, and its
// symbol is derived from the closest symbol within 32 bytes below.
func (s *Store) Resolve(address uint16) Entry {
	if e, ok := s.entries[address]; ok {
		return e
	}

	e := Entry{
		Address:     address,
		Type:        Code,
		Synthesized: true,
		Origin:      address,
	}

	// index of the first stored address above the requested one
	index, _ := slices.BinarySearch(s.addresses, address)
	if index == 0 {
		return e
	}

	if typ := s.entries[s.addresses[index-1]].Type; typ != Space {
		e.Type = typ
	}

	for i := index - 1; i >= 0; i-- {
		origin := s.addresses[i]
		distance := address - origin
		if distance > symbolWindow {
			break
		}

		prev := s.entries[origin]
		if prev.HasSymbol() {
			e.Symbol = fmt.Sprintf("%s+%d", prev.Symbol, distance)
			e.Origin = origin
			break
		}
	}

	return e
}

// Lookup returns the entry of the address like Resolve does, synthesized
// entries are remembered in the passed cache. A nil cache disables caching.
func (s *Store) Lookup(address uint16, cache *Cache) Entry {
	if e, ok := s.entries[address]; ok {
		return e
	}
	if cache == nil {
		return s.Resolve(address)
	}
	if e, ok := cache.get(address); ok {
		return e
	}

	e := s.Resolve(address)
	cache.set(address, e)
	return e
}
