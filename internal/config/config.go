package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/ad/discord-key-hunt/internal/models"
)

// Config is the static bot configuration, loaded once at startup and
// immutable afterwards.
type Config struct {
	Token   string
	OwnerID string
	GuildID string

	DBPath   string
	KeysPath string

	StartTime int64
	EndTime   int64

	EventsChannelID string
	LogsChannelID   string
	ChampionRoleID  string

	RejectURLs bool

	Keys *models.KeySet
}

type stageJSON struct {
	Clue  string `json:"clue"`
	Value string `json:"value"`
	Code  string `json:"code"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Token:           os.Getenv("APP_TOKEN"),
		OwnerID:         os.Getenv("APP_OWNER_ID"),
		GuildID:         os.Getenv("GUILD_ID"),
		DBPath:          os.Getenv("DB_PATH"),
		KeysPath:        os.Getenv("KEYS_PATH"),
		EventsChannelID: os.Getenv("EVENTS_CHANNEL_ID"),
		LogsChannelID:   os.Getenv("LOGS_CHANNEL_ID"),
		ChampionRoleID:  os.Getenv("HUNT_CHAMPION_ROLE"),
		RejectURLs:      os.Getenv("REJECT_URLS") != "false",
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("APP_TOKEN environment variable is required")
	}
	if cfg.GuildID == "" {
		return nil, fmt.Errorf("GUILD_ID environment variable is required")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "hunt.db"
	}
	if cfg.KeysPath == "" {
		cfg.KeysPath = "keys.json"
	}

	var err error
	cfg.StartTime, err = parseTimestamp("START_TIME_TIMESTAMP")
	if err != nil {
		return nil, err
	}
	cfg.EndTime, err = parseTimestamp("END_TIME_TIMESTAMP")
	if err != nil {
		return nil, err
	}
	if cfg.EndTime <= cfg.StartTime {
		return nil, fmt.Errorf("END_TIME_TIMESTAMP must be after START_TIME_TIMESTAMP")
	}

	cfg.Keys, err = LoadKeys(cfg.KeysPath)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseTimestamp(name string) (int64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, fmt.Errorf("%s environment variable is required", name)
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return ts, nil
}

// LoadKeys reads the stage definitions from a JSON object keyed by
// sequence id, matching the layout the hunt organizers maintain by hand.
func LoadKeys(path string) (*models.KeySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keys file: %w", err)
	}
	return ParseKeys(data)
}

func ParseKeys(data []byte) (*models.KeySet, error) {
	var raw map[string]stageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse keys file: %w", err)
	}

	stages := make([]models.Stage, 0, len(raw))
	for id, s := range raw {
		stages = append(stages, models.Stage{
			SequenceID: id,
			Clue:       s.Clue,
			Value:      s.Value,
			Code:       s.Code,
		})
	}

	keys, err := models.NewKeySet(stages)
	if err != nil {
		return nil, fmt.Errorf("invalid keys file: %w", err)
	}
	return keys, nil
}
