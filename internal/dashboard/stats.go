// Package dashboard derives headline numbers and chart series from a set of
// complaints. Everything here is a pure function of its input.
package dashboard

import (
	"sort"

	"complaint-service/internal/model"
)

type CategoryBucket struct {
	Category model.ComplaintCategory `json:"category"`
	Count    int                     `json:"count"`
}

type StatusBucket struct {
	Status  model.ComplaintStatus `json:"status"`
	Count   int                   `json:"count"`
	Variant model.StatusVariant   `json:"variant"`
}

type Stats struct {
	Total          int                             `json:"total"`
	New            int                             `json:"new"`
	Resolved       int                             `json:"resolved"`
	ByStatus       map[model.ComplaintStatus]int   `json:"by_status"`
	ByCategory     map[model.ComplaintCategory]int `json:"by_category"`
	CategorySeries []CategoryBucket                `json:"category_series"`
	StatusSeries   []StatusBucket                  `json:"status_series"`
}

func Compute(complaints []model.Complaint) Stats {
	stats := Stats{
		Total:      len(complaints),
		ByStatus:   make(map[model.ComplaintStatus]int, len(model.AllStatuses)),
		ByCategory: make(map[model.ComplaintCategory]int),
	}
	for _, s := range model.AllStatuses {
		stats.ByStatus[s] = 0
	}

	for _, c := range complaints {
		stats.ByStatus[c.Status]++
		stats.ByCategory[c.CategoryOrOther()]++
	}

	stats.New = stats.ByStatus[model.StatusNew]
	stats.Resolved = stats.ByStatus[model.StatusResolved]
	stats.CategorySeries = categorySeries(stats.ByCategory)
	stats.StatusSeries = statusSeries(stats.ByStatus)

	return stats
}

// categorySeries sorts by count descending; ties keep canonical order.
func categorySeries(counts map[model.ComplaintCategory]int) []CategoryBucket {
	series := make([]CategoryBucket, 0, len(counts))
	for _, c := range model.AllCategories {
		if n := counts[c]; n > 0 {
			series = append(series, CategoryBucket{Category: c, Count: n})
		}
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Count > series[j].Count
	})
	return series
}

func statusSeries(counts map[model.ComplaintStatus]int) []StatusBucket {
	series := make([]StatusBucket, 0, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		if n := counts[s]; n > 0 {
			series = append(series, StatusBucket{Status: s, Count: n, Variant: s.Variant()})
		}
	}
	return series
}
