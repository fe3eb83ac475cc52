package index

// PathSet is the set of absolute file paths recorded under one term.
type PathSet map[string]struct{}

// TermEntry is one term and its sorted paths, as returned by Snapshot.
type TermEntry struct {
	Term  string
	Paths []string
}

type Stats struct {
	Terms int
	Paths int
}
