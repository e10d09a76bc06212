package services

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ad/discord-key-hunt/internal/db"
	"github.com/ad/discord-key-hunt/internal/models"
)

type Outcome string

const (
	// OutcomeAdvanced: the guess matched the current stage and the hunter
	// moved forward.
	OutcomeAdvanced Outcome = "advanced"
	// OutcomeIncorrect: the guess matched nothing, or matched a stage
	// other than the current one (FlagCandidate is set in that case).
	OutcomeIncorrect Outcome = "incorrect"
	// OutcomeAwaitingDecode: the hunter is on the decode stage, where
	// guesses are never checked programmatically.
	OutcomeAwaitingDecode Outcome = "awaiting_decode"
)

type GuessResult struct {
	Outcome       Outcome
	Clue          string
	Code          string
	FlagCandidate bool
	Hunter        *models.Hunter
}

// ProgressEngine drives a hunter's advancement through the key sequence.
// Advancing is a read-modify-write across several statements, so each
// hunter's evaluation is serialized with a per-user lock.
type ProgressEngine struct {
	hunterRepo *db.HunterRepository
	keys       *models.KeySet
	now        func() int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewProgressEngine(hunterRepo *db.HunterRepository, keys *models.KeySet) *ProgressEngine {
	return &ProgressEngine{
		hunterRepo: hunterRepo,
		keys:       keys,
		now:        func() int64 { return time.Now().Unix() },
		locks:      make(map[string]*sync.Mutex),
	}
}

// NewProgressEngineWithClock lets tests control completion timestamps.
func NewProgressEngineWithClock(hunterRepo *db.HunterRepository, keys *models.KeySet, now func() int64) *ProgressEngine {
	engine := NewProgressEngine(hunterRepo, keys)
	engine.now = now
	return engine
}

// lockFor returns the per-user lock, creating it on first use. Entries are
// never evicted: a lock may be held across several queue operations, and
// the map holds one pointer per user who ever guessed during the hunt.
func (e *ProgressEngine) lockFor(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[userID] = lock
	}
	return lock
}

// EvaluateGuess evaluates one normalized guess against the hunter's current
// stage. The caller must have already rejected completed hunters. The
// attempt counter moves on every call, including decode-stage chatter.
func (e *ProgressEngine) EvaluateGuess(userID, normalizedGuess string) (*GuessResult, error) {
	lock := e.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	hunter, err := e.hunterRepo.GetOrCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hunter %s: %w", userID, err)
	}

	if err := e.hunterRepo.IncrementAttempts(userID); err != nil {
		return nil, fmt.Errorf("failed to count attempt for %s: %w", userID, err)
	}

	if hunter.KeyToFind == models.DecodeKey {
		return e.finishResult(userID, OutcomeAwaitingDecode, e.keys.DecodeStage().Clue, "", false)
	}

	stage, ok := e.keys.Get(strconv.Itoa(hunter.KeyToFind))
	if !ok {
		return nil, fmt.Errorf("hunter %s is on unknown stage %d", userID, hunter.KeyToFind)
	}

	if normalizedGuess == stage.Value {
		updated, err := e.advanceLocked(userID)
		if err != nil {
			return nil, err
		}
		return e.finishResult(userID, OutcomeAdvanced, e.keys.ClueFor(updated.KeyToFind), stage.Code, false)
	}

	if e.keys.MatchesAny(normalizedGuess) {
		if err := e.hunterRepo.IncrementWrongOrderGuesses(userID); err != nil {
			return nil, fmt.Errorf("failed to count wrong-order guess for %s: %w", userID, err)
		}
		return e.finishResult(userID, OutcomeIncorrect, stage.Clue, "", true)
	}

	return e.finishResult(userID, OutcomeIncorrect, stage.Clue, "", false)
}

func (e *ProgressEngine) finishResult(userID string, outcome Outcome, clue, code string, flagCandidate bool) (*GuessResult, error) {
	hunter, err := e.hunterRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload hunter %s: %w", userID, err)
	}
	return &GuessResult{
		Outcome:       outcome,
		Clue:          clue,
		Code:          code,
		FlagCandidate: flagCandidate,
		Hunter:        hunter,
	}, nil
}

// Advance moves the hunter one stage forward. On any numbered stage it
// records the completion timestamp and steps to the next id, or to -1 when
// no next stage exists. On the decode stage it marks the hunt completed;
// that path is only reached through the champion-role trigger, since decode
// answers are verified by staff, not by the bot.
func (e *ProgressEngine) Advance(userID string) (*models.Hunter, error) {
	lock := e.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()
	return e.advanceLocked(userID)
}

func (e *ProgressEngine) advanceLocked(userID string) (*models.Hunter, error) {
	hunter, err := e.hunterRepo.GetOrCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hunter %s: %w", userID, err)
	}

	if hunter.KeyToFind == models.DecodeKey {
		if err := e.hunterRepo.RecordCompletion(userID, models.DecodeStageID, e.now()); err != nil {
			return nil, fmt.Errorf("failed to record decode completion for %s: %w", userID, err)
		}
		if err := e.hunterRepo.SetCompleted(userID); err != nil {
			return nil, fmt.Errorf("failed to complete hunter %s: %w", userID, err)
		}
		return e.hunterRepo.GetByID(userID)
	}

	current := strconv.Itoa(hunter.KeyToFind)
	if err := e.hunterRepo.RecordCompletion(userID, current, e.now()); err != nil {
		return nil, fmt.Errorf("failed to record completion of key %s for %s: %w", current, userID, err)
	}

	next := hunter.KeyToFind + 1
	if !e.keys.Has(strconv.Itoa(next)) {
		next = models.DecodeKey
	}
	if err := e.hunterRepo.SetKeyToFind(userID, next); err != nil {
		return nil, fmt.Errorf("failed to advance hunter %s: %w", userID, err)
	}

	return e.hunterRepo.GetByID(userID)
}
