package models

// KeyCompletion is one completed stage with its epoch-second timestamp.
// Slices of completions keep insertion order, which is completion order.
type KeyCompletion struct {
	SequenceID  string
	CompletedAt int64
}

// Hunter is one user's progress through the hunt, keyed by Discord user ID.
type Hunter struct {
	ID                       string
	CreatedAt                int64
	KeyToFind                int
	TotalAttempts            int
	WrongOrderCorrectGuesses int
	Completions              []KeyCompletion
	Completed                bool
	Flagged                  bool
}

// CompletionTimes returns the completion timestamps in insertion order.
func (h *Hunter) CompletionTimes() []int64 {
	times := make([]int64, 0, len(h.Completions))
	for _, c := range h.Completions {
		times = append(times, c.CompletedAt)
	}
	return times
}

// KeysFound counts completed numbered stages.
func (h *Hunter) KeysFound() int {
	found := 0
	for _, c := range h.Completions {
		if c.SequenceID != DecodeStageID {
			found++
		}
	}
	return found
}

// CompletedStage reports whether the given stage id has been completed.
func (h *Hunter) CompletedStage(sequenceID string) bool {
	for _, c := range h.Completions {
		if c.SequenceID == sequenceID {
			return true
		}
	}
	return false
}
