package quiz

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandidates(names ...string) []WeightedCategory {
	candidates := make([]WeightedCategory, len(names))
	for i, n := range names {
		candidates[i] = WeightedCategory{Name: n}
	}
	return candidates
}

func TestSelector_PickDistinct(t *testing.T) {
	s := NewSelector(rand.NewSource(1))
	picked := s.Pick(testCandidates("history", "science", "movies", "music", "sport"), 3)

	require.Len(t, picked, 3)
	seen := make(map[string]bool)
	for _, name := range picked {
		assert.False(t, seen[name], "category %s picked twice", name)
		seen[name] = true
	}
}

func TestSelector_TargetCoversAll(t *testing.T) {
	s := NewSelector(rand.NewSource(1))
	picked := s.Pick(testCandidates("history", "science"), 5)

	assert.ElementsMatch(t, []string{"history", "science"}, picked)
}

func TestSelector_EmptyInputs(t *testing.T) {
	s := NewSelector(rand.NewSource(1))

	assert.Nil(t, s.Pick(nil, 3))
	assert.Nil(t, s.Pick(testCandidates("history"), 0))
}

func TestSelector_FavorsUnusedCategories(t *testing.T) {
	s := NewSelector(rand.NewSource(42))
	lastWeek := time.Now().Add(-7 * 24 * time.Hour)

	candidates := []WeightedCategory{
		{Name: "worn-out", Usage: CategoryUsage{TotalUses: 50, LastUsedAt: &lastWeek}},
		{Name: "fresh"},
	}

	freshWins := 0
	for i := 0; i < 200; i++ {
		picked := s.Pick(candidates, 1)
		require.Len(t, picked, 1)
		if picked[0] == "fresh" {
			freshWins++
		}
	}
	// fresh weighs 15 against 7.5 for the worn-out category, so it should
	// win about two thirds of the draws.
	assert.Greater(t, freshWins, 120, "fresh category won only %d of 200 draws", freshWins)
}

func TestWeight_Floor(t *testing.T) {
	now := time.Now()
	recently := now.Add(-time.Hour)

	w := weight(CategoryUsage{TotalUses: 1000, LastUsedAt: &recently}, now)
	assert.InDelta(t, 4.0, w, 0.1, "heavy use bottoms out at base minus cap")

	neverUsed := weight(CategoryUsage{}, now)
	assert.Equal(t, 15.0, neverUsed)
}
