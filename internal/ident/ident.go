// Package ident implements the process-wide string interner. Every PLC
// identifier — variable name, block name, path segment — is stored as an
// integer id; display re-resolves the id back to the original string.
package ident

import "sync"

// ID is a stable process-wide identifier for an interned string.
type ID uint32

// Interner maps strings to ids and back, idempotently.
type Interner struct {
	mu      sync.RWMutex
	byName  map[string]ID
	byID    []string
}

// New creates an empty interner.
func New() *Interner {
	return &Interner{
		byName: make(map[string]ID),
		byID:   make([]string, 0, 256),
	}
}

// Intern assigns (or returns the existing) id for name. Same string always
// yields the same id.
func (in *Interner) Intern(name string) ID {
	in.mu.RLock()
	if id, ok := in.byName[name]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	// Re-check: another goroutine might have interned it while we waited
	// for the write lock. The engine itself is single-threaded, but the
	// interner is shared with the build phase and host tooling.
	if id, ok := in.byName[name]; ok {
		return id
	}
	id := ID(len(in.byID))
	in.byID = append(in.byID, name)
	in.byName[name] = id
	return id
}

// Resolve returns the string for id, or false if id was never interned.
func (in *Interner) Resolve(id ID) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(in.byID) {
		return "", false
	}
	return in.byID[id], true
}

// MustResolve resolves id, panicking if unknown. Reserved for call sites
// that only ever pass ids this interner itself minted.
func (in *Interner) MustResolve(id ID) string {
	s, ok := in.Resolve(id)
	if !ok {
		panic("ident: unknown id")
	}
	return s
}

// Len reports how many distinct strings have been interned.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.byID)
}

// Path is a sequence of ids denoting a dotted/nested reference, e.g. a
// Db name followed by member names descending into its interface.
type Path []ID

// InternPath interns every segment of a dotted path in order.
func (in *Interner) InternPath(segments []string) Path {
	p := make(Path, len(segments))
	for i, s := range segments {
		p[i] = in.Intern(s)
	}
	return p
}

// Resolve turns a Path back into its dotted string form, for display.
func (p Path) Resolve(in *Interner) string {
	out := make([]string, len(p))
	for i, id := range p {
		out[i] = in.MustResolve(id)
	}
	s := ""
	for i, seg := range out {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}
