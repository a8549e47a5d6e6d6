package discovery

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestResolveGroups(t *testing.T) {
	dirs := []LogDirectory{
		{Path: "/r/node1", Files: []string{"/r/node1/app.log", "/r/node1/db.log"}},
		{Path: "/r/node2", Files: []string{"/r/node2/app.log", "/r/node2/cache.log"}},
	}

	groups := ResolveGroups(dirs)

	want := []MergeGroup{
		{Name: "app.log", Files: []string{"/r/node1/app.log", "/r/node2/app.log"}},
		{Name: "cache.log", Files: []string{"/r/node2/cache.log"}},
		{Name: "db.log", Files: []string{"/r/node1/db.log"}},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("ResolveGroups() = %+v, want %+v", groups, want)
	}
	if groups[0].Single() || !groups[1].Single() {
		t.Error("Single() mismatch")
	}
}

func TestResolveGroups_CaseInsensitive(t *testing.T) {
	dirs := []LogDirectory{
		{Path: "/r/a", Files: []string{"/r/a/app.log"}},
		{Path: "/r/b", Files: []string{"/r/b/APP.LOG"}},
	}

	groups := ResolveGroups(dirs)
	if len(groups) != 1 {
		t.Fatalf("ResolveGroups() returned %d groups, want 1", len(groups))
	}
	if groups[0].Name != "APP.LOG" {
		t.Errorf("Name = %q, want APP.LOG (smallest spelling)", groups[0].Name)
	}
	if len(groups[0].Files) != 2 {
		t.Errorf("Files = %v, want both", groups[0].Files)
	}
}

func TestResolveGroups_EveryFileOnce(t *testing.T) {
	dirs := []LogDirectory{
		{Path: "/r/a", Files: []string{"/r/a/x.log", "/r/a/Y.log"}},
		{Path: "/r/b", Files: []string{"/r/b/X.LOG", "/r/b/y.log", "/r/b/z.log"}},
		{Path: "/r/c"},
	}

	seen := make(map[string]int)
	for _, g := range ResolveGroups(dirs) {
		if len(g.Files) == 0 {
			t.Errorf("group %s is empty", g.Name)
		}
		for _, f := range g.Files {
			seen[f]++
		}
	}

	for _, d := range dirs {
		for _, f := range d.Files {
			if seen[f] != 1 {
				t.Errorf("%s appears in %d groups", filepath.Base(f), seen[f])
			}
		}
	}
}

func TestResolveGroups_Empty(t *testing.T) {
	if groups := ResolveGroups(nil); len(groups) != 0 {
		t.Errorf("ResolveGroups(nil) = %v, want empty", groups)
	}
}
