package services

import (
	"sort"
	"strconv"

	"github.com/ad/discord-key-hunt/internal/db"
	"github.com/ad/discord-key-hunt/internal/models"
)

type KeyStats struct {
	SequenceID string
	Count      int
}

type GlobalStats struct {
	TotalUsers        int
	UsersWithProgress int
	TotalGuesses      int
	FinishedUsers     int
	FlaggedUsers      int
	// UsersPerKey counts hunters currently on each key, ordered 1..N then
	// decoding; finished hunters are not counted as decoding.
	UsersPerKey []KeyStats
}

type StatisticsService struct {
	hunterRepo *db.HunterRepository
	keys       *models.KeySet
}

func NewStatisticsService(hunterRepo *db.HunterRepository, keys *models.KeySet) *StatisticsService {
	return &StatisticsService{hunterRepo: hunterRepo, keys: keys}
}

func (s *StatisticsService) GlobalStats() (*GlobalStats, error) {
	hunters, err := s.hunterRepo.GetAll()
	if err != nil {
		return nil, err
	}

	stats := &GlobalStats{TotalUsers: len(hunters)}
	perKey := make(map[string]int)
	for _, h := range hunters {
		stats.TotalGuesses += h.TotalAttempts
		if h.KeyToFind != 1 {
			stats.UsersWithProgress++
		}
		if h.Flagged {
			stats.FlaggedUsers++
		}
		if h.Completed {
			stats.FinishedUsers++
			continue
		}
		perKey[strconv.Itoa(h.KeyToFind)]++
	}

	for i := 1; i <= s.keys.NumberedCount(); i++ {
		id := strconv.Itoa(i)
		stats.UsersPerKey = append(stats.UsersPerKey, KeyStats{SequenceID: id, Count: perKey[id]})
	}
	stats.UsersPerKey = append(stats.UsersPerKey, KeyStats{
		SequenceID: models.DecodeStageID,
		Count:      perKey[models.DecodeStageID],
	})

	return stats, nil
}

type KeyTiming struct {
	FromSequenceID string
	ToSequenceID   string
	AverageMinutes float64
}

// AverageKeyTimes computes, across all hunters, the average minutes spent
// between consecutive completions.
func (s *StatisticsService) AverageKeyTimes() ([]KeyTiming, error) {
	hunters, err := s.hunterRepo.GetAll()
	if err != nil {
		return nil, err
	}

	type span struct{ from, to string }
	sums := make(map[span]float64)
	counts := make(map[span]int)

	for _, h := range hunters {
		completions := append([]models.KeyCompletion(nil), h.Completions...)
		sort.Slice(completions, func(i, j int) bool {
			return sequenceOrder(completions[i].SequenceID) < sequenceOrder(completions[j].SequenceID)
		})
		for i := 0; i+1 < len(completions); i++ {
			key := span{from: completions[i].SequenceID, to: completions[i+1].SequenceID}
			sums[key] += float64(completions[i+1].CompletedAt-completions[i].CompletedAt) / 60
			counts[key]++
		}
	}

	var timings []KeyTiming
	for key, total := range sums {
		timings = append(timings, KeyTiming{
			FromSequenceID: key.from,
			ToSequenceID:   key.to,
			AverageMinutes: total / float64(counts[key]),
		})
	}
	sort.Slice(timings, func(i, j int) bool {
		return sequenceOrder(timings[i].FromSequenceID) < sequenceOrder(timings[j].FromSequenceID)
	})
	return timings, nil
}

// sequenceOrder sorts numbered ids naturally with the decode stage last.
func sequenceOrder(id string) int {
	if id == models.DecodeStageID {
		return int(^uint(0) >> 1)
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0
	}
	return n
}
