package config

import (
	"slices"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Changes lists the server IDs which differ between two snapshots, each sorted.
type Changes struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Changed []string `json:"changed"`
}

// IsEmpty reports whether the snapshots describe the same servers.
func (c Changes) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// descriptorComparer treats nil and empty slices and maps as equal.
var descriptorComparer = cmpopts.EquateEmpty()

// Equivalent reports whether two descriptors are deeply equal.
// It is not named Equal since cmp.Equal would call it recursively.
func (d ServerDescriptor) Equivalent(other ServerDescriptor) bool {
	return cmp.Equal(d, other, descriptorComparer)
}

// Diff compares the servers of two snapshots. Either snapshot may be nil.
func Diff(previous, current *Config) Changes {
	var changes Changes

	var prev, cur map[string]ServerDescriptor
	if previous != nil {
		prev = previous.Servers
	}
	if current != nil {
		cur = current.Servers
	}

	for id, d := range cur {
		old, ok := prev[id]
		switch {
		case !ok:
			changes.Added = append(changes.Added, id)
		case !old.Equivalent(d):
			changes.Changed = append(changes.Changed, id)
		}
	}
	for id := range prev {
		if _, ok := cur[id]; !ok {
			changes.Removed = append(changes.Removed, id)
		}
	}

	slices.Sort(changes.Added)
	slices.Sort(changes.Removed)
	slices.Sort(changes.Changed)

	return changes
}
