package event

import "mailcal/internal/model"

// Select maps caller-chosen ordinals back onto a normalized batch. Out-of-range
// ordinals are dropped, duplicates collapse, and the result preserves batch
// order regardless of the order the ordinals were given in. An empty result is
// the caller's signal that nothing was selected.
func Select(events []model.NormalizedEvent, ordinals []int) []model.NormalizedEvent {
	chosen := make(map[int]bool, len(ordinals))
	for _, ord := range ordinals {
		if ord >= 0 && ord < len(events) {
			chosen[ord] = true
		}
	}

	var out []model.NormalizedEvent
	for i, e := range events {
		if chosen[i] {
			out = append(out, e)
		}
	}
	return out
}
