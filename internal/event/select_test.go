package event

import (
	"testing"

	"mailcal/internal/model"
)

func batchOf(n int) []model.NormalizedEvent {
	events := make([]model.NormalizedEvent, n)
	for i := range events {
		events[i] = model.NormalizedEvent{Ordinal: i, Title: string(rune('A' + i))}
	}
	return events
}

func TestSelect_OutOfRangeDropped(t *testing.T) {
	events := batchOf(3)
	got := Select(events, []int{-1, 3, 8})
	if len(got) != 0 {
		t.Fatalf("expected empty selection, got %+v", got)
	}
}

func TestSelect_PreservesBatchOrder(t *testing.T) {
	events := batchOf(3)
	got := Select(events, []int{2, 0})
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Ordinal != 0 || got[1].Ordinal != 2 {
		t.Errorf("order = [%d, %d], want [0, 2]", got[0].Ordinal, got[1].Ordinal)
	}
}

func TestSelect_DuplicatesCollapse(t *testing.T) {
	events := batchOf(2)
	got := Select(events, []int{1, 1, 1})
	if len(got) != 1 || got[0].Ordinal != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestSelect_MixedValidInvalid(t *testing.T) {
	events := batchOf(4)
	got := Select(events, []int{5, 1, -2, 3})
	if len(got) != 2 || got[0].Ordinal != 1 || got[1].Ordinal != 3 {
		t.Fatalf("got %+v", got)
	}
}
