package lib

import "sort"

// AdminSet holds the configured administrator ids.
type AdminSet map[string]struct{}

func NewAdminSet(ids []string) AdminSet {
	admins := AdminSet{}
	for _, id := range ids {
		if id != "" {
			admins[id] = struct{}{}
		}
	}
	return admins
}

func (a AdminSet) Contains(id string) bool {
	_, ok := a[id]
	return ok
}

func (a AdminSet) IDs() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
