package models

import (
	"fmt"
	"strconv"
)

// DecodeStageID is the sequence id of the terminal decode stage. It always
// exists and logically follows the last numbered stage.
const DecodeStageID = "-1"

// DecodeKey is the key_to_find value of a hunter on the decode stage.
const DecodeKey = -1

type Stage struct {
	SequenceID string
	Clue       string
	Value      string
	Code       string
}

// KeySet is the immutable, validated set of hunt stages: contiguous
// sequence ids "1".."N" plus the "-1" decode stage.
type KeySet struct {
	stages   map[string]Stage
	numbered int
}

func NewKeySet(stages []Stage) (*KeySet, error) {
	byID := make(map[string]Stage, len(stages))
	for _, stage := range stages {
		if _, dup := byID[stage.SequenceID]; dup {
			return nil, fmt.Errorf("duplicate stage id %q", stage.SequenceID)
		}
		byID[stage.SequenceID] = stage
	}

	decode, ok := byID[DecodeStageID]
	if !ok {
		return nil, fmt.Errorf("decode stage %q is required", DecodeStageID)
	}
	if decode.Value != "" {
		return nil, fmt.Errorf("decode stage must not have a value")
	}

	numbered := len(byID) - 1
	for i := 1; i <= numbered; i++ {
		id := strconv.Itoa(i)
		stage, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("stage ids must be contiguous, missing %q", id)
		}
		if stage.Value == "" {
			return nil, fmt.Errorf("stage %q has no expected value", id)
		}
	}
	if numbered == 0 {
		return nil, fmt.Errorf("at least one numbered stage is required")
	}

	return &KeySet{stages: byID, numbered: numbered}, nil
}

func (k *KeySet) Get(id string) (Stage, bool) {
	stage, ok := k.stages[id]
	return stage, ok
}

func (k *KeySet) Has(id string) bool {
	_, ok := k.stages[id]
	return ok
}

// NumberedCount returns N, the count of stages excluding the decode stage.
func (k *KeySet) NumberedCount() int {
	return k.numbered
}

func (k *KeySet) DecodeStage() Stage {
	return k.stages[DecodeStageID]
}

// ClueFor returns the clue the user on keyToFind should see. keyToFind of
// -1 maps to the decode stage.
func (k *KeySet) ClueFor(keyToFind int) string {
	stage, ok := k.stages[strconv.Itoa(keyToFind)]
	if !ok {
		return k.DecodeStage().Clue
	}
	return stage.Clue
}

// MatchesAny reports whether value is the expected value of any numbered
// stage.
func (k *KeySet) MatchesAny(value string) bool {
	if value == "" {
		return false
	}
	for id, stage := range k.stages {
		if id == DecodeStageID {
			continue
		}
		if stage.Value == value {
			return true
		}
	}
	return false
}
