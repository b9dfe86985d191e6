package realtime

import (
	"cmp"
	"slices"
	"testing"
)

type row struct {
	ID  string
	Val int
}

func newRowList() *List[row] {
	return NewList(func(r row) string { return r.ID }, func(a, b row) int { return cmp.Compare(b.Val, a.Val) })
}

func ids(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestList_DuplicatesAreIdempotent(t *testing.T) {
	l := newRowList()
	l.Upsert(row{"a", 1})
	l.Upsert(row{"a", 1})
	l.Upsert(row{"b", 2})
	l.Upsert(row{"b", 2})

	if got := ids(l.Items()); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("items = %v, want [b a]", got)
	}
}

func TestList_OrderIndependent(t *testing.T) {
	changes := []row{{"a", 1}, {"b", 3}, {"c", 2}}

	forward := newRowList()
	for _, r := range changes {
		forward.Upsert(r)
	}
	backward := newRowList()
	for i := len(changes) - 1; i >= 0; i-- {
		backward.Upsert(changes[i])
	}

	if !slices.Equal(forward.Items(), backward.Items()) {
		t.Errorf("forward %v != backward %v", forward.Items(), backward.Items())
	}
}

func TestList_UpsertReplacesAndRemove(t *testing.T) {
	l := newRowList()
	l.Reset([]row{{"a", 1}, {"b", 2}})
	l.Upsert(row{"a", 5})
	l.Remove("b")
	l.Remove("b")
	l.Remove("missing")

	items := l.Items()
	if len(items) != 1 || items[0] != (row{"a", 5}) {
		t.Errorf("items = %v, want [{a 5}]", items)
	}
}

func TestList_TiesOrderedByKey(t *testing.T) {
	l := newRowList()
	l.Upsert(row{"z", 1})
	l.Upsert(row{"m", 1})
	if got := ids(l.Items()); !slices.Equal(got, []string{"m", "z"}) {
		t.Errorf("items = %v, want [m z]", got)
	}
}
