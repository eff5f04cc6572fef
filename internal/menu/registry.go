package menu

// Registry is the host's admin navigation registry as seen by the
// request-time filter: entries can be removed as top-level menus or as
// sub-entries of any parent.
type Registry interface {
	RemoveEntry(slug string)
	RemoveSubEntry(slug string)
	Entries() []Entry
}

// Tree is an in-memory Registry. The host rebuilds it per admin request
// once all core and subsystem menus have registered.
type Tree struct {
	entries []Entry
	subs    map[string][]Entry
}

// NewTree builds a navigation tree from top-level entries.
func NewTree(entries []Entry) *Tree {
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	return &Tree{entries: copied, subs: make(map[string][]Entry)}
}

// Register appends a top-level entry.
func (t *Tree) Register(entry Entry) {
	t.entries = append(t.entries, entry)
}

// RegisterSub appends a sub-entry under a parent slug.
func (t *Tree) RegisterSub(parent string, entry Entry) {
	t.subs[parent] = append(t.subs[parent], entry)
}

// RemoveEntry removes a top-level entry and its sub-entries.
func (t *Tree) RemoveEntry(slug string) {
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.Slug != slug {
			kept = append(kept, e)
		}
	}
	t.entries = kept
	delete(t.subs, slug)
}

// RemoveSubEntry removes the slug wherever it appears as a sub-entry.
func (t *Tree) RemoveSubEntry(slug string) {
	for parent, entries := range t.subs {
		kept := entries[:0]
		for _, e := range entries {
			if e.Slug != slug {
				kept = append(kept, e)
			}
		}
		t.subs[parent] = kept
	}
}

// Entries returns the remaining top-level entries in registration order.
func (t *Tree) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// SubEntries returns the remaining sub-entries of a parent.
func (t *Tree) SubEntries(parent string) []Entry {
	entries := t.subs[parent]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
