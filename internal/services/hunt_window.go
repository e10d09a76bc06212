package services

import (
	"database/sql"
	"log"
	"time"

	"github.com/ad/discord-key-hunt/internal/db"
)

type WindowState string

const (
	WindowNotStarted WindowState = "not_started"
	WindowOpen       WindowState = "open"
	WindowEnded      WindowState = "ended"
)

// HuntWindow gates guesses to the configured hunt interval. Reply texts
// for the closed states live in settings so staff can reword them without
// a redeploy.
type HuntWindow struct {
	startTime    int64
	endTime      int64
	settingsRepo *db.SettingsRepository
	now          func() int64
}

func NewHuntWindow(startTime, endTime int64, settingsRepo *db.SettingsRepository) *HuntWindow {
	return &HuntWindow{
		startTime:    startTime,
		endTime:      endTime,
		settingsRepo: settingsRepo,
		now:          func() int64 { return time.Now().Unix() },
	}
}

func NewHuntWindowWithClock(startTime, endTime int64, settingsRepo *db.SettingsRepository, now func() int64) *HuntWindow {
	w := NewHuntWindow(startTime, endTime, settingsRepo)
	w.now = now
	return w
}

func (w *HuntWindow) State() WindowState {
	now := w.now()
	if now < w.startTime {
		return WindowNotStarted
	}
	if now > w.endTime {
		return WindowEnded
	}
	return WindowOpen
}

func (w *HuntWindow) Start() time.Time {
	return time.Unix(w.startTime, 0)
}

func (w *HuntWindow) End() time.Time {
	return time.Unix(w.endTime, 0)
}

// StateMessage returns the reply for a closed window, empty when open.
func (w *HuntWindow) StateMessage(state WindowState) string {
	var key string
	switch state {
	case WindowNotStarted:
		key = "not_started_message"
	case WindowEnded:
		key = "ended_message"
	default:
		return ""
	}

	message, err := w.settingsRepo.Get(key)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[WINDOW] Failed to load %s: %v", key, err)
		}
		return w.defaultMessage(state)
	}
	return message
}

func (w *HuntWindow) defaultMessage(state WindowState) string {
	switch state {
	case WindowNotStarted:
		return "The hunt hasn't started yet. Keep an eye on the events channel!"
	case WindowEnded:
		return "The hunt has ended. Thanks for participating!"
	default:
		return ""
	}
}
