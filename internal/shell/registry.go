package shell

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Mark records that a path was explicitly indexed (Include) or explicitly
// erased from beneath an indexed ancestor (!Include).
type Mark struct {
	Path    string
	Include bool
}

// Registry tracks which absolute paths the user has indexed. A path is
// indexed when its nearest marked ancestor-or-self is an include mark.
type Registry struct {
	mu    sync.RWMutex
	marks map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{marks: make(map[string]bool)}
}

// Include marks path as indexed and forgets every mark beneath it.
func (r *Registry) Include(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropWithin(path)
	r.marks[path] = true
}

// Exclude forgets every mark at or beneath path. If an ancestor is still
// included, path is marked excluded so the ancestor no longer covers it.
func (r *Registry) Exclude(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropWithin(path)
	if include, ok := r.nearestAncestor(parent(path)); ok && include {
		r.marks[path] = false
	}
}

func (r *Registry) IsIndexed(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	include, ok := r.nearestAncestor(path)
	return ok && include
}

// Covers reports whether path or anything beneath it is indexed.
func (r *Registry) Covers(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if include, ok := r.nearestAncestor(path); ok && include {
		return true
	}
	for p, include := range r.marks {
		if include && within(p, path) {
			return true
		}
	}
	return false
}

// Marks returns every mark ordered ancestors first, then lexically.
func (r *Registry) Marks() []Mark {
	r.mu.RLock()
	defer r.mu.RUnlock()
	marks := make([]Mark, 0, len(r.marks))
	for p, include := range r.marks {
		marks = append(marks, Mark{Path: p, Include: include})
	}
	sort.Slice(marks, func(i, j int) bool {
		di, dj := depth(marks[i].Path), depth(marks[j].Path)
		if di != dj {
			return di < dj
		}
		return marks[i].Path < marks[j].Path
	})
	return marks
}

// Roots returns the included paths in the same order as Marks.
func (r *Registry) Roots() []string {
	var roots []string
	for _, m := range r.Marks() {
		if m.Include {
			roots = append(roots, m.Path)
		}
	}
	return roots
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.marks)
}

func (r *Registry) dropWithin(path string) {
	for p := range r.marks {
		if within(p, path) {
			delete(r.marks, p)
		}
	}
}

func (r *Registry) nearestAncestor(path string) (include bool, ok bool) {
	for p := path; ; p = parent(p) {
		if include, ok := r.marks[p]; ok {
			return include, true
		}
		if parent(p) == p {
			return false, false
		}
	}
}

// within reports whether p equals dir or lies beneath it.
func within(p, dir string) bool {
	if p == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	return strings.HasPrefix(p, prefix)
}

func parent(p string) string {
	return filepath.Dir(p)
}

func depth(p string) int {
	return strings.Count(filepath.Clean(p), string(os.PathSeparator))
}
