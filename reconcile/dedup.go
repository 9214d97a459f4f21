package reconcile

import (
	"fmt"
	"reflect"

	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
)

var baseComparisonKeys = []string{"created_at", "device", "app", "notes"}

// Fields identifying a treatment of each event type. Fields assigned by the destination, like _id, are never compared.
var comparisonKeys = map[nightscout.EventType][]string{
	nightscout.EventTypeMealBolus:       withBaseKeys("carbs", "insulin"),
	nightscout.EventTypeCorrectionBolus: withBaseKeys("insulin"),
	nightscout.EventTypeCarbCorrection:  withBaseKeys("carbs"),
	nightscout.EventTypeTempBasal:       withBaseKeys("absolute", "duration"),
}

func withBaseKeys(keys ...string) []string {
	return append(append([]string{}, baseComparisonKeys...), keys...)
}

// Equal reports whether a and b describe the same treatment. Treatments of different event types
// are never equal. Comparing treatments of an event type the bridge does not know how to compare
// fails with ErrAmbiguousComparison.
func Equal(a, b nightscout.Treatment) (bool, error) {
	if a.EventType() != b.EventType() {
		return false, nil
	}

	keys, ok := comparisonKeys[a.EventType()]
	if !ok {
		return false, fmt.Errorf("%w: no comparison keys for event type %q", ErrAmbiguousComparison, a.EventType())
	}

	return subsetEqual(nightscout.Document(a), nightscout.Document(b), keys), nil
}

// subsetEqual compares the documents on keys only. A key missing from both documents is equal.
func subsetEqual(a, b map[string]interface{}, keys []string) bool {
	for _, key := range keys {
		av, aok := a[key]
		bv, bok := b[key]
		if aok != bok || !reflect.DeepEqual(av, bv) {
			return false
		}
	}
	return true
}

// Deduplicate returns the candidates that neither match one of the existing treatments nor an earlier candidate.
func Deduplicate(candidates []nightscout.Treatment, existing []nightscout.Treatment) ([]nightscout.Treatment, error) {
	var survivors []nightscout.Treatment
	for _, candidate := range candidates {
		duplicate, err := containsEqual(existing, candidate)
		if err != nil {
			return nil, err
		}
		if !duplicate {
			duplicate, err = containsEqual(survivors, candidate)
			if err != nil {
				return nil, err
			}
		}
		if !duplicate {
			survivors = append(survivors, candidate)
		}
	}
	return survivors, nil
}

func containsEqual(treatments []nightscout.Treatment, candidate nightscout.Treatment) (bool, error) {
	for _, t := range treatments {
		equal, err := Equal(candidate, t)
		if err != nil {
			return false, err
		}
		if equal {
			return true, nil
		}
	}
	return false, nil
}

type entryKey struct {
	entryType nightscout.EntryType
	date      int64
}

// DeduplicateEntries drops entries of which an entry of the same type and date already exists.
func DeduplicateEntries(candidates []nightscout.Entry, existing []nightscout.Entry) []nightscout.Entry {
	seen := make(map[entryKey]bool, len(existing))
	for _, e := range existing {
		seen[keyOf(e)] = true
	}

	var survivors []nightscout.Entry
	for _, candidate := range candidates {
		key := keyOf(candidate)
		if seen[key] {
			continue
		}
		seen[key] = true
		survivors = append(survivors, candidate)
	}
	return survivors
}

func keyOf(e nightscout.Entry) entryKey {
	return entryKey{entryType: e.EntryType(), date: e.BaseEntry().Date}
}
