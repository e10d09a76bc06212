package services

import (
	"sort"
	"time"

	"github.com/ad/discord-key-hunt/internal/models"
)

// AntiCheatConfig carries the suspicion thresholds. Two timing rules have
// been used in past hunts; both are kept and either one firing flags the
// hunter.
type AntiCheatConfig struct {
	// WrongOrderLimit flags once more than this many correct-but-out-of-
	// order guesses have been made.
	WrongOrderLimit int
	// PairWindow flags two consecutive completions closer than this.
	PairWindow time.Duration
	// SpanWindow flags three consecutive completions spanning less than
	// this.
	SpanWindow time.Duration
}

func DefaultAntiCheatConfig() AntiCheatConfig {
	return AntiCheatConfig{
		WrongOrderLimit: 6,
		PairWindow:      180 * time.Second,
		SpanWindow:      360 * time.Second,
	}
}

// AntiCheatEvaluator derives an advisory suspicion flag from a hunter's
// completion timestamps and wrong-order guess count. The flag never blocks
// play and is surfaced to staff only.
type AntiCheatEvaluator struct {
	cfg AntiCheatConfig
}

func NewAntiCheatEvaluator(cfg AntiCheatConfig) *AntiCheatEvaluator {
	return &AntiCheatEvaluator{cfg: cfg}
}

func (e *AntiCheatEvaluator) IsSuspicious(hunter *models.Hunter) bool {
	if hunter == nil {
		return false
	}

	if hunter.WrongOrderCorrectGuesses > e.cfg.WrongOrderLimit {
		return true
	}

	times := hunter.CompletionTimes()
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	pairWindow := int64(e.cfg.PairWindow / time.Second)
	for i := 0; i+1 < len(times); i++ {
		if times[i+1]-times[i] < pairWindow {
			return true
		}
	}

	spanWindow := int64(e.cfg.SpanWindow / time.Second)
	for i := 0; i+2 < len(times); i++ {
		if times[i+2]-times[i] < spanWindow {
			return true
		}
	}

	return false
}
