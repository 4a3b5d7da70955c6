package weather

import (
	"sort"
	"strings"

	"github.com/i474232898/weather-lookup/internal/common"
)

// ListEntry is a saved city as listed to the user.
type ListEntry struct {
	CityItem
	DisplayName string `json:"displayName"`
}

// SortByRecency orders items by LastUpdated descending. Ties keep the lower
// city id first so the order is deterministic.
func SortByRecency(items []CityItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].LastUpdated, items[j].LastUpdated
		if a.Equal(b) {
			return items[i].CityID < items[j].CityID
		}
		return a.After(b)
	})
}

// EnforceBound sorts items by recency and splits off everything beyond max.
// The returned evicted items are the ones with the oldest LastUpdated.
func EnforceBound(items []CityItem, max int) (kept, evicted []CityItem) {
	sorted := make([]CityItem, len(items))
	copy(sorted, items)
	SortByRecency(sorted)
	if max <= 0 || len(sorted) <= max {
		return sorted, nil
	}
	return sorted[:max], sorted[max:]
}

// DisplayNames suffixes a name shared by several items with its country.
// Stored names are left untouched.
func DisplayNames(items []CityItem) []ListEntry {
	counts := make(map[string]int, len(items))
	for _, it := range items {
		counts[it.CityName]++
	}

	out := make([]ListEntry, 0, len(items))
	for _, it := range items {
		name := it.CityName
		if counts[it.CityName] > 1 {
			name = it.CityName + ", " + it.Country
		}
		out = append(out, ListEntry{CityItem: it, DisplayName: name})
	}
	return out
}

// MatchName returns the first entry whose display name contains query,
// ignoring case.
func MatchName(entries []ListEntry, query string) (CityItem, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return CityItem{}, false
	}
	for _, e := range entries {
		if common.ContainsFold(e.DisplayName, q) {
			return e.CityItem, true
		}
	}
	return CityItem{}, false
}

func indexOf(items []CityItem, id int64) int {
	for i, it := range items {
		if it.CityID == id {
			return i
		}
	}
	return -1
}
