package reconcile

import (
	"sort"
	"time"

	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
)

type MergeResult struct {
	Resolved   []nightscout.ResolvedMealBolus
	Unresolved []nightscout.MealBolus
	// Consumed carb corrections must not be published. The ones that are already persisted have to be deleted.
	Consumed []nightscout.CarbCorrection
	// Positions of the consumed carb corrections in the pool, in the same order as Consumed.
	ConsumedIndices []int
}

// Matcher pairs meal boli with the carb corrections the pump logged for the same meal.
type Matcher struct {
	threshold time.Duration
}

func NewMatcher(threshold time.Duration) *Matcher {
	return &Matcher{threshold: threshold}
}

type candidatePair struct {
	bolus int
	carb  int
	delta time.Duration
}

// Merge resolves every meal bolus with the nearest unclaimed carb correction within the threshold.
// Pairs are claimed in order of their time difference. Equal differences are broken by the position
// of the bolus in boli (sorted by time) and then by the position of the carb correction in pool.
// Each carb correction is consumed by at most one bolus.
func (m *Matcher) Merge(boli []nightscout.MealBolus, pool []nightscout.CarbCorrection) MergeResult {
	sorted := make([]nightscout.MealBolus, len(boli))
	copy(sorted, boli)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time().Before(sorted[j].Time())
	})

	var pairs []candidatePair
	for i, bolus := range sorted {
		for j, carb := range pool {
			delta := absDuration(bolus.Time().Sub(carb.Time()))
			if delta <= m.threshold {
				pairs = append(pairs, candidatePair{bolus: i, carb: j, delta: delta})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].delta != pairs[j].delta {
			return pairs[i].delta < pairs[j].delta
		}
		if pairs[i].bolus != pairs[j].bolus {
			return pairs[i].bolus < pairs[j].bolus
		}
		return pairs[i].carb < pairs[j].carb
	})

	matches := make(map[int]int)
	claimed := make(map[int]bool)
	for _, pair := range pairs {
		if _, ok := matches[pair.bolus]; ok || claimed[pair.carb] {
			continue
		}
		matches[pair.bolus] = pair.carb
		claimed[pair.carb] = true
	}

	result := MergeResult{}
	for i, bolus := range sorted {
		j, ok := matches[i]
		if !ok {
			result.Unresolved = append(result.Unresolved, bolus)
			continue
		}
		carb := pool[j]
		result.Resolved = append(result.Resolved, bolus.Resolve(carb.Carbs, nightscout.CarbsReference(carb)))
		result.Consumed = append(result.Consumed, carb)
		result.ConsumedIndices = append(result.ConsumedIndices, j)
	}

	return result
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
