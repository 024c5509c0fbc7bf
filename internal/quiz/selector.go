package quiz

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// CategoryUsage aggregates how often a category was played, globally and in
// the chat the selection is being made for.
type CategoryUsage struct {
	TotalUses  int64
	ChatUses   int64
	LastUsedAt *time.Time
}

// WeightedCategory is a selection candidate with its usage history attached.
type WeightedCategory struct {
	Name  string
	Usage CategoryUsage
}

// Selector picks quiz categories with a bias towards ones played rarely or
// long ago, so a chat does not get the same handful of topics every day.
type Selector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSelector(src rand.Source) *Selector {
	return &Selector{rnd: rand.New(src)}
}

// weight favours under-used and long-idle categories. Never returns less
// than 0.5 so every category keeps a chance of being drawn.
func weight(u CategoryUsage, now time.Time) float64 {
	w := 10.0 - math.Min(6, float64(u.TotalUses)*0.5)
	if u.LastUsedAt == nil {
		w += 5
	} else {
		days := now.Sub(*u.LastUsedAt).Hours() / 24
		w += math.Min(5, days*0.5)
	}
	if w < 0.5 {
		w = 0.5
	}
	return w
}

// Pick draws up to target distinct category names from candidates, weighted
// sampling without replacement. When target covers all candidates the result
// is simply a shuffle of every name.
func (s *Selector) Pick(candidates []WeightedCategory, target int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if target <= 0 || len(candidates) == 0 {
		return nil
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	if target >= len(candidates) {
		s.rnd.Shuffle(len(names), func(i, j int) {
			names[i], names[j] = names[j], names[i]
		})
		return names
	}

	now := time.Now()
	pool := make([]WeightedCategory, len(candidates))
	copy(pool, candidates)

	picked := make([]string, 0, target)
	for len(picked) < target {
		total := 0.0
		for _, c := range pool {
			total += weight(c.Usage, now)
		}
		r := s.rnd.Float64() * total
		idx := len(pool) - 1
		for i, c := range pool {
			r -= weight(c.Usage, now)
			if r <= 0 {
				idx = i
				break
			}
		}
		picked = append(picked, pool[idx].Name)
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return picked
}
