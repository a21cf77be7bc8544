package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/author-analytics-service/internal/domain"
)

func sampleCorpus() []domain.Work {
	return []domain.Work{
		{ID: "W1", Title: "Alpha", PublicationYear: 2021, CitedByCount: 12},
		{ID: "W2", Title: "Beta", PublicationYear: 2019, CitedByCount: 40},
		{ID: "W3", Title: "Gamma", PublicationYear: 2021, CitedByCount: 3},
		{ID: "W4", Title: "Delta", PublicationYear: 0, CitedByCount: 1},
		{ID: "W5", Title: "Epsilon", PublicationYear: 2019, CitedByCount: 7},
	}
}

func TestNewIndex(t *testing.T) {
	t.Run("indexes a corpus", func(t *testing.T) {
		idx := NewIndex(sampleCorpus())

		assert.Equal(t, 5, idx.Len())
		assert.Len(t, idx.Works(), 5)
		assert.Equal(t, "Alpha", idx.Works()[0].Title)
	})

	t.Run("empty corpus", func(t *testing.T) {
		idx := NewIndex(nil)

		assert.Equal(t, 0, idx.Len())
		assert.Empty(t, idx.Works())
		assert.Empty(t, idx.YearHistogram())
		assert.Empty(t, idx.WorkIDs())
		assert.False(t, idx.ContainsID("W1"))
	})

	t.Run("copies the input slice", func(t *testing.T) {
		works := sampleCorpus()
		idx := NewIndex(works)

		works[0].Title = "Mutated"

		assert.Equal(t, "Alpha", idx.Works()[0].Title)
	})
}

func TestIndex_ContainsID(t *testing.T) {
	idx := NewIndex(sampleCorpus())

	assert.True(t, idx.ContainsID("W1"))
	assert.True(t, idx.ContainsID("W5"))
	assert.False(t, idx.ContainsID("W99"))
	assert.False(t, idx.ContainsID(""))
}

func TestIndex_YearHistogram(t *testing.T) {
	t.Run("counts publications per year", func(t *testing.T) {
		idx := NewIndex(sampleCorpus())

		histogram := idx.YearHistogram()
		assert.Equal(t, map[int]int{2019: 2, 2021: 2}, histogram)
	})

	t.Run("unyeared works are not counted", func(t *testing.T) {
		idx := NewIndex([]domain.Work{
			{ID: "W1"},
			{ID: "W2", PublicationYear: 2020},
		})

		assert.Equal(t, map[int]int{2020: 1}, idx.YearHistogram())
	})

	t.Run("returns a copy", func(t *testing.T) {
		idx := NewIndex(sampleCorpus())

		first := idx.YearHistogram()
		first[2019] = 99

		assert.Equal(t, 2, idx.YearHistogram()[2019])
	})
}

func TestIndex_SortedByYear(t *testing.T) {
	idx := NewIndex(sampleCorpus())

	sorted := idx.SortedByYear()
	require.Len(t, sorted, 5)

	// Unyeared first, then ascending; fetch order preserved within a year.
	assert.Equal(t, "Delta", sorted[0].Title)
	assert.Equal(t, "Beta", sorted[1].Title)
	assert.Equal(t, "Epsilon", sorted[2].Title)
	assert.Equal(t, "Alpha", sorted[3].Title)
	assert.Equal(t, "Gamma", sorted[4].Title)

	// Fetch order is untouched.
	assert.Equal(t, "Alpha", idx.Works()[0].Title)
}

func TestIndex_WorkIDs(t *testing.T) {
	t.Run("returns identifiers in fetch order", func(t *testing.T) {
		idx := NewIndex(sampleCorpus())

		assert.Equal(t, []string{"W1", "W2", "W3", "W4", "W5"}, idx.WorkIDs())
	})

	t.Run("skips works without an identifier", func(t *testing.T) {
		idx := NewIndex([]domain.Work{
			{ID: "W1", PublicationYear: 2020},
			{ID: "", PublicationYear: 2021},
			{ID: "W3", PublicationYear: 2022},
		})

		assert.Equal(t, []string{"W1", "W3"}, idx.WorkIDs())
	})
}
