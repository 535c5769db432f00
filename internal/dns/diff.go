package dns

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Diff computes the changes that turn existing into desired. Deletes come
// first, then updates, then creates; each group is ordered by name and type.
func Diff(existing, desired []Record) []Change {
	have := lo.KeyBy(existing, Record.Key)
	want := lo.KeyBy(desired, Record.Key)

	var deletes, updates, creates []Change
	for key, cur := range have {
		next, ok := want[key]
		switch {
		case !ok:
			deletes = append(deletes, Change{Action: ActionDelete, Existing: lo.ToPtr(cur)})
		case !Equal(cur, next):
			updates = append(updates, Change{Action: ActionUpdate, Existing: lo.ToPtr(cur), Desired: lo.ToPtr(next)})
		}
	}
	for key, next := range want {
		if _, ok := have[key]; !ok {
			creates = append(creates, Change{Action: ActionCreate, Desired: lo.ToPtr(next)})
		}
	}

	for _, group := range [][]Change{deletes, updates, creates} {
		sortChanges(group)
	}
	return lo.Flatten([][]Change{deletes, updates, creates})
}

// Equal reports whether two records hold the same TTL and value set,
// ignoring value order.
func Equal(a, b Record) bool {
	if a.Name != b.Name || a.Type != b.Type || a.TTL != b.TTL || len(a.Values) != len(b.Values) {
		return false
	}
	av, bv := valueKeys(a.Values), valueKeys(b.Values)
	for i := range av {
		if av[i] != bv[i] {
			return false
		}
	}
	return true
}

func valueKeys(values []Value) []string {
	keys := lo.Map(values, func(v Value, _ int) string {
		return fmt.Sprintf("%+v", v)
	})
	sort.Strings(keys)
	return keys
}

func sortChanges(changes []Change) {
	sort.Slice(changes, func(i, j int) bool {
		ri, rj := changes[i].Record(), changes[j].Record()
		if ri.Name != rj.Name {
			return ri.Name < rj.Name
		}
		return ri.Type < rj.Type
	})
}
