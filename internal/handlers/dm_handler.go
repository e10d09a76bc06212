package handlers

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/ad/discord-key-hunt/internal/db"
	"github.com/ad/discord-key-hunt/internal/models"
	"github.com/ad/discord-key-hunt/internal/services"
	"github.com/bwmarrin/discordgo"
)

// MessageSender is the outbound slice of the Discord session the DM
// handler needs; replies are best-effort.
type MessageSender interface {
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DMHandler gates raw DM traffic and drives the progress engine and the
// anti-cheat evaluator for each qualifying guess.
type DMHandler struct {
	sender        MessageSender
	engine        *services.ProgressEngine
	antiCheat     *services.AntiCheatEvaluator
	hunterRepo    *db.HunterRepository
	limiter       *services.GuessLimiter
	window        *services.HuntWindow
	settingsRepo  *db.SettingsRepository
	notifier      *EventNotifier
	errorNotifier *services.ErrorNotifier
	keys          *models.KeySet
	rejectURLs    bool
}

func NewDMHandler(
	sender MessageSender,
	engine *services.ProgressEngine,
	antiCheat *services.AntiCheatEvaluator,
	hunterRepo *db.HunterRepository,
	limiter *services.GuessLimiter,
	window *services.HuntWindow,
	settingsRepo *db.SettingsRepository,
	notifier *EventNotifier,
	errorNotifier *services.ErrorNotifier,
	keys *models.KeySet,
	rejectURLs bool,
) *DMHandler {
	return &DMHandler{
		sender:        sender,
		engine:        engine,
		antiCheat:     antiCheat,
		hunterRepo:    hunterRepo,
		limiter:       limiter,
		window:        window,
		settingsRepo:  settingsRepo,
		notifier:      notifier,
		errorNotifier: errorNotifier,
		keys:          keys,
		rejectURLs:    rejectURLs,
	}
}

// ShouldIgnore filters out messages that are never treated as guesses:
// guild traffic, bots, empty or out-of-size content, links.
func (h *DMHandler) ShouldIgnore(m *discordgo.MessageCreate) bool {
	if m.GuildID != "" {
		return true
	}
	if m.Author == nil || m.Author.Bot {
		return true
	}
	if n := utf8.RuneCountInString(m.Content); n <= 1 || n >= 100 {
		return true
	}
	if h.rejectURLs && strings.Contains(m.Content, "http") {
		return true
	}
	return false
}

func (h *DMHandler) HandleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	defer h.recoverPanic(m)

	if h.ShouldIgnore(m) {
		return
	}

	userID := m.Author.ID

	// Over-budget messages are dropped without a reply.
	if !h.limiter.Allow(userID) {
		return
	}

	if state := h.window.State(); state != services.WindowOpen {
		h.reply(m, h.window.StateMessage(state))
		return
	}

	guess := services.NormalizeGuess(m.Content)

	hunter, err := h.hunterRepo.GetOrCreate(userID)
	if err != nil {
		log.Printf("[DM] Failed to load hunter %s: %v", userID, err)
		h.reply(m, "Something went wrong, please try again later.")
		return
	}

	if hunter.Completed {
		h.reply(m, h.finishedMessage())
		return
	}

	result, err := h.engine.EvaluateGuess(userID, guess)
	if err != nil {
		log.Printf("[DM] Failed to evaluate guess from %s: %v", userID, err)
		h.reply(m, "Something went wrong, please try again later.")
		return
	}

	switch result.Outcome {
	case services.OutcomeAwaitingDecode:
		h.reply(m, fmt.Sprintf(
			"You've found all of the keys! Here's your final clue:\n> %s\nTo see all the codes, use the /progress command.",
			result.Clue,
		))

	case services.OutcomeAdvanced:
		text := "Correct! "
		if result.Code != "" {
			text += fmt.Sprintf("This key's code is ***%s***! ", result.Code)
		}
		text += fmt.Sprintf(
			"Here's your next clue:\n> %s\nTo see all the codes, use the /progress command.",
			result.Clue,
		)
		h.reply(m, text)
		h.notifier.KeyFound(m.Author, lastCompletedSequence(result.Hunter), result.Hunter)

	case services.OutcomeIncorrect:
		h.reply(m, fmt.Sprintf(
			"That's not the correct key or that's not your **next** key! Here's your current clue again:\n> %s",
			result.Clue,
		))
		h.notifier.KeyGuess(m.Author, guess, result.FlagCandidate)
	}

	h.checkSuspicion(result.Hunter)
}

// checkSuspicion runs after every evaluated guess; the flag sticks once
// set and is only ever surfaced to staff.
func (h *DMHandler) checkSuspicion(hunter *models.Hunter) {
	if hunter == nil || hunter.Flagged {
		return
	}
	if !h.antiCheat.IsSuspicious(hunter) {
		return
	}
	if err := h.hunterRepo.SetFlagged(hunter.ID); err != nil {
		log.Printf("[DM] Failed to flag hunter %s: %v", hunter.ID, err)
		return
	}
	h.notifier.Flagged(hunter.ID)
}

// finishedMessage reads the staff-editable reply from settings, falling
// back to the seeded default.
func (h *DMHandler) finishedMessage() string {
	if h.settingsRepo != nil {
		if message, err := h.settingsRepo.Get("finished_message"); err == nil && message != "" {
			return message
		}
	}
	return "You've already completed the hunt! Thanks for participating!"
}

func (h *DMHandler) reply(m *discordgo.MessageCreate, content string) {
	if h.sender == nil || content == "" {
		return
	}
	_, err := h.sender.ChannelMessageSendReply(m.ChannelID, content, m.Reference())
	if err != nil {
		log.Printf("[DM] Failed to reply to %s: %v", m.Author.ID, err)
	}
}

func (h *DMHandler) recoverPanic(m *discordgo.MessageCreate) {
	if r := recover(); r != nil {
		userID := "unknown"
		if m != nil && m.Author != nil {
			userID = m.Author.ID
		}
		h.errorNotifier.NotifyPanic(r, userID)
	}
}

// lastCompletedSequence returns the id of the most recently completed
// stage, which after an advance is the stage the guess just solved.
func lastCompletedSequence(hunter *models.Hunter) string {
	if hunter == nil || len(hunter.Completions) == 0 {
		return ""
	}
	return hunter.Completions[len(hunter.Completions)-1].SequenceID
}
