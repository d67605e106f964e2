package ledger

import "sort"

// Changes is the difference between two scans.
type Changes struct {
	Added   []Entry
	Removed []Entry
	Changed []Entry // present in both, directory mtime or path differs
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// Compare computes what changed from previous to current. Results are
// sorted by package name.
func Compare(previous, current []Entry) Changes {
	before := make(map[string]Entry, len(previous))
	for _, e := range previous {
		before[e.Name] = e
	}

	var c Changes
	for _, e := range current {
		old, ok := before[e.Name]
		if !ok {
			c.Added = append(c.Added, e)
			continue
		}
		delete(before, e.Name)
		if old.Time != e.Time || old.Path != e.Path {
			c.Changed = append(c.Changed, e)
		}
	}
	for _, e := range before {
		c.Removed = append(c.Removed, e)
	}

	for _, list := range [][]Entry{c.Added, c.Removed, c.Changed} {
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	}
	return c
}

// Find returns the entry named name, or nil.
func Find(entries []Entry, name string) *Entry {
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i]
		}
	}
	return nil
}
