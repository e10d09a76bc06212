package services

import (
	"testing"

	"github.com/ad/discord-key-hunt/internal/db"
)

func TestHuntWindow_State(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()
	settings := db.NewSettingsRepository(queue)

	clock := int64(0)
	window := NewHuntWindowWithClock(100, 200, settings, func() int64 { return clock })

	tests := []struct {
		name string
		now  int64
		want WindowState
	}{
		{"before start", 99, WindowNotStarted},
		{"exactly at start", 100, WindowOpen},
		{"during", 150, WindowOpen},
		{"exactly at end", 200, WindowOpen},
		{"after end", 201, WindowEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock = tt.now
			if got := window.State(); got != tt.want {
				t.Errorf("State() at %d = %s, want %s", tt.now, got, tt.want)
			}
		})
	}
}

func TestHuntWindow_StateMessage(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()
	settings := db.NewSettingsRepository(queue)
	window := NewHuntWindow(100, 200, settings)

	if msg := window.StateMessage(WindowOpen); msg != "" {
		t.Errorf("Open window must have no state message, got %q", msg)
	}

	// Seeded defaults come from the settings table.
	if msg := window.StateMessage(WindowNotStarted); msg == "" {
		t.Error("Expected a not-started message")
	}

	if err := settings.Set("ended_message", "See you next year"); err != nil {
		t.Fatal(err)
	}
	if msg := window.StateMessage(WindowEnded); msg != "See you next year" {
		t.Errorf("Expected the overridden ended message, got %q", msg)
	}
}
