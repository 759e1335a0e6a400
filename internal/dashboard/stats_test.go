package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-service/internal/model"
)

func complaint(status model.ComplaintStatus, category *model.ComplaintCategory) model.Complaint {
	c := model.Complaint{Status: status, Category: category}
	if status == model.StatusResolved {
		url := "http://localhost/media/resolution.jpg"
		resolvedAt := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
		c.ResolutionImageURL = &url
		c.ResolvedAt = &resolvedAt
	}
	return c
}

func cat(c model.ComplaintCategory) *model.ComplaintCategory {
	return &c
}

func TestMissingCategoryIsOther(t *testing.T) {
	stats := Compute([]model.Complaint{complaint(model.StatusNew, nil)})

	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByCategory[model.CategoryOther])
	require.Len(t, stats.CategorySeries, 1)
	assert.Equal(t, CategoryBucket{Category: model.CategoryOther, Count: 1}, stats.CategorySeries[0])
}

func TestCountsPartitionTotal(t *testing.T) {
	complaints := []model.Complaint{
		complaint(model.StatusNew, cat(model.CategoryPothole)),
		complaint(model.StatusNew, cat(model.CategoryPothole)),
		complaint(model.StatusResolved, cat(model.CategoryTrash)),
		complaint(model.StatusDenied, nil),
		complaint(model.StatusInReview, cat(model.CategoryGraffiti)),
		complaint(model.StatusInProgress, cat(model.CategoryBrokenStreetlight)),
	}
	stats := Compute(complaints)

	statusSum := 0
	for _, n := range stats.ByStatus {
		statusSum += n
	}
	categorySum := 0
	for _, n := range stats.ByCategory {
		categorySum += n
	}
	seriesSum := 0
	for _, b := range stats.CategorySeries {
		seriesSum += b.Count
	}

	assert.Equal(t, len(complaints), stats.Total)
	assert.Equal(t, stats.Total, statusSum)
	assert.Equal(t, stats.Total, categorySum)
	assert.Equal(t, stats.Total, seriesSum)
	assert.Equal(t, 2, stats.New)
	assert.Equal(t, 1, stats.Resolved)
}

func TestCategorySeriesSortedByCount(t *testing.T) {
	stats := Compute([]model.Complaint{
		complaint(model.StatusNew, cat(model.CategoryGraffiti)),
		complaint(model.StatusNew, cat(model.CategoryTrash)),
		complaint(model.StatusNew, cat(model.CategoryTrash)),
		complaint(model.StatusNew, cat(model.CategoryTrash)),
		complaint(model.StatusNew, cat(model.CategoryPothole)),
		complaint(model.StatusNew, cat(model.CategoryPothole)),
		complaint(model.StatusNew, nil),
	})

	want := []CategoryBucket{
		{Category: model.CategoryTrash, Count: 3},
		{Category: model.CategoryPothole, Count: 2},
		{Category: model.CategoryGraffiti, Count: 1},
		{Category: model.CategoryOther, Count: 1},
	}
	assert.Equal(t, want, stats.CategorySeries)
}

func TestStatusSeriesOmitsZeroButRawCountsKeepThem(t *testing.T) {
	stats := Compute([]model.Complaint{
		complaint(model.StatusDenied, nil),
		complaint(model.StatusNew, nil),
		complaint(model.StatusNew, nil),
	})

	assert.Equal(t, []StatusBucket{
		{Status: model.StatusNew, Count: 2, Variant: model.VariantSecondary},
		{Status: model.StatusDenied, Count: 1, Variant: model.VariantDestructive},
	}, stats.StatusSeries)

	assert.Len(t, stats.ByStatus, len(model.AllStatuses))
	assert.Equal(t, 0, stats.ByStatus[model.StatusResolved])
	assert.Equal(t, 0, stats.Resolved)
}

func TestEmptySet(t *testing.T) {
	stats := Compute(nil)
	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.CategorySeries)
	assert.Empty(t, stats.StatusSeries)
	assert.Len(t, stats.ByStatus, len(model.AllStatuses))
}
