package handlers

import (
	"database/sql"
	"errors"
	"log"
	"slices"

	"github.com/ad/discord-key-hunt/internal/db"
	"github.com/ad/discord-key-hunt/internal/services"
	"github.com/bwmarrin/discordgo"
)

// RoleHandler finishes a hunter when staff grant the champion role. Decode
// answers are checked by humans out-of-band; the role grant is the signal
// that the answer was right.
type RoleHandler struct {
	engine         *services.ProgressEngine
	hunterRepo     *db.HunterRepository
	notifier       *EventNotifier
	championRoleID string
}

func NewRoleHandler(engine *services.ProgressEngine, hunterRepo *db.HunterRepository, notifier *EventNotifier, championRoleID string) *RoleHandler {
	return &RoleHandler{
		engine:         engine,
		hunterRepo:     hunterRepo,
		notifier:       notifier,
		championRoleID: championRoleID,
	}
}

func (h *RoleHandler) HandleGuildMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.User == nil || h.championRoleID == "" {
		return
	}
	if !slices.Contains(m.Roles, h.championRoleID) {
		return
	}
	if m.BeforeUpdate != nil && slices.Contains(m.BeforeUpdate.Roles, h.championRoleID) {
		return
	}

	// Only users who actually played can be finished this way.
	hunter, err := h.hunterRepo.GetByID(m.User.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[ROLE] Failed to load hunter %s: %v", m.User.ID, err)
		}
		return
	}
	if hunter.Completed {
		return
	}

	if _, err := h.engine.Advance(m.User.ID); err != nil {
		log.Printf("[ROLE] Failed to finish hunter %s: %v", m.User.ID, err)
		return
	}

	h.notifier.UserFinished(m.User.ID)
}
