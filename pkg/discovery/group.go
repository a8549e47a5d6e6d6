package discovery

import (
	"path/filepath"
	"sort"
	"strings"
)

// MergeGroup is the set of same-named log files across all directories.
type MergeGroup struct {
	// Name is the output file name. When directories disagree on case,
	// the lexically smallest spelling wins.
	Name string

	// Files are in directory order.
	Files []string
}

// Single reports whether the group has exactly one file.
func (g MergeGroup) Single() bool {
	return len(g.Files) == 1
}

// ResolveGroups joins the files of all directories by case-insensitive base
// name. Groups are sorted by Name and every file lands in exactly one group.
func ResolveGroups(dirs []LogDirectory) []MergeGroup {
	byKey := make(map[string]*MergeGroup)
	var keys []string

	for _, dir := range dirs {
		for _, file := range dir.Files {
			name := filepath.Base(file)
			key := strings.ToLower(name)

			g, ok := byKey[key]
			if !ok {
				g = &MergeGroup{Name: name}
				byKey[key] = g
				keys = append(keys, key)
			}
			if name < g.Name {
				g.Name = name
			}
			g.Files = append(g.Files, file)
		}
	}

	groups := make([]MergeGroup, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, *byKey[key])
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Name < groups[j].Name
	})
	return groups
}
