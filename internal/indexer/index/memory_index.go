// Package index holds the in-memory inverted index: normalised term to the
// set of absolute file paths containing it. All methods are safe for
// concurrent use; writers are serialised and readers see a consistent view.
package index

import (
	"os"
	"sort"
	"strings"
	"sync"
)

type MemoryIndex struct {
	mu    sync.RWMutex
	index map[string]PathSet
	// refs counts how many terms reference each path so PathCount and
	// Remove do not need a full scan to answer "is this path indexed".
	refs map[string]int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index: make(map[string]PathSet),
		refs:  make(map[string]int),
	}
}

// Add records path under every term. Empty terms are ignored. All terms are
// inserted under a single write lock.
func (m *MemoryIndex) Add(path string, terms []string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, term := range terms {
		if term == "" {
			continue
		}
		paths, exists := m.index[term]
		if !exists {
			paths = make(PathSet)
			m.index[term] = paths
		}
		if _, seen := paths[path]; seen {
			continue
		}
		paths[path] = struct{}{}
		m.refs[path]++
		added++
	}
	return added
}

// Remove deletes path from every term and prunes terms left empty. It
// returns the number of terms the path was removed from.
func (m *MemoryIndex) Remove(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(path)
}

// RemovePrefix removes dir itself and every path beneath it.
func (m *MemoryIndex) RemovePrefix(dir string) int {
	dir = strings.TrimSuffix(dir, string(os.PathSeparator))
	prefix := dir + string(os.PathSeparator)

	m.mu.Lock()
	defer m.mu.Unlock()

	victims := make([]string, 0)
	for path := range m.refs {
		if path == dir || strings.HasPrefix(path, prefix) {
			victims = append(victims, path)
		}
	}
	removed := 0
	for _, path := range victims {
		removed += m.removeLocked(path)
	}
	return removed
}

func (m *MemoryIndex) removeLocked(path string) int {
	if m.refs[path] == 0 {
		return 0
	}
	removed := 0
	for term, paths := range m.index {
		if _, ok := paths[path]; !ok {
			continue
		}
		delete(paths, path)
		removed++
		if len(paths) == 0 {
			delete(m.index, term)
		}
	}
	delete(m.refs, path)
	return removed
}

// Lookup returns a sorted copy of the paths recorded under term, or an empty
// slice when the term is unknown.
func (m *MemoryIndex) Lookup(term string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths, exists := m.index[term]
	if !exists {
		return []string{}
	}
	result := make([]string, 0, len(paths))
	for path := range paths {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

func (m *MemoryIndex) Contains(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refs[path] > 0
}

func (m *MemoryIndex) Snapshot() []TermEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]TermEntry, 0, len(m.index))
	for term, paths := range m.index {
		sorted := make([]string, 0, len(paths))
		for path := range paths {
			sorted = append(sorted, path)
		}
		sort.Strings(sorted)
		entries = append(entries, TermEntry{
			Term:  term,
			Paths: sorted,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

func (m *MemoryIndex) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Terms: len(m.index),
		Paths: len(m.refs),
	}
}

func (m *MemoryIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = make(map[string]PathSet)
	m.refs = make(map[string]int)
}
