package models

import "testing"

func TestHunterKeysFound(t *testing.T) {
	hunter := &Hunter{
		Completions: []KeyCompletion{
			{SequenceID: "1", CompletedAt: 100},
			{SequenceID: "2", CompletedAt: 200},
			{SequenceID: DecodeStageID, CompletedAt: 300},
		},
	}

	if found := hunter.KeysFound(); found != 2 {
		t.Errorf("Expected 2 keys found, got %d", found)
	}
}

func TestHunterCompletionTimes_InsertionOrder(t *testing.T) {
	hunter := &Hunter{
		Completions: []KeyCompletion{
			{SequenceID: "1", CompletedAt: 100},
			{SequenceID: "2", CompletedAt: 250},
			{SequenceID: "3", CompletedAt: 400},
		},
	}

	times := hunter.CompletionTimes()
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			t.Errorf("Completion times must be non-decreasing in insertion order, got %v", times)
		}
	}
}

func TestHunterCompletedStage(t *testing.T) {
	hunter := &Hunter{
		Completions: []KeyCompletion{{SequenceID: "1", CompletedAt: 100}},
	}

	if !hunter.CompletedStage("1") {
		t.Error("Expected stage 1 to be completed")
	}
	if hunter.CompletedStage("2") {
		t.Error("Expected stage 2 not to be completed")
	}
}
