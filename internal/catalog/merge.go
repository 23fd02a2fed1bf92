package catalog

import (
	"cmp"
	"slices"
)

// Merge reconciles a freshly scraped course list with a previously persisted one.
//
// The result holds the fresh courses sorted by code, followed by the old courses whose code
// was not scraped again, in their original order. Each code appears once, the first fresh
// record wins over any later fresh duplicate and over the old record.
func Merge(fresh, old []Course) []Course {
	sorted := slices.Clone(fresh)
	slices.SortStableFunc(sorted, func(a, b Course) int {
		return cmp.Compare(a.Code, b.Code)
	})

	seen := make(map[string]struct{}, len(sorted)+len(old))
	out := make([]Course, 0, len(sorted)+len(old))
	for _, course := range sorted {
		if _, ok := seen[course.Code]; ok {
			continue
		}
		seen[course.Code] = struct{}{}
		out = append(out, course)
	}
	for _, course := range old {
		if _, ok := seen[course.Code]; ok {
			continue
		}
		seen[course.Code] = struct{}{}
		out = append(out, course)
	}
	return out
}
