package handlers

import (
	"fmt"
	"log"

	"github.com/ad/discord-key-hunt/internal/models"
	"github.com/ad/discord-key-hunt/internal/services"
	"github.com/bwmarrin/discordgo"
)

const (
	colorBlue   = 0x3498db
	colorGreen  = 0x2ecc71
	colorOrange = 0xe67e22
	colorGold   = 0xf1c40f
)

// EventNotifier forwards hunt activity to the staff log channel. Sends are
// best-effort: a failed log never affects the guess that produced it.
type EventNotifier struct {
	session       *discordgo.Session
	logsChannelID string
	totalKeys     int
}

func NewEventNotifier(session *discordgo.Session, logsChannelID string, keys *models.KeySet) *EventNotifier {
	return &EventNotifier{
		session:       session,
		logsChannelID: logsChannelID,
		totalKeys:     keys.NumberedCount(),
	}
}

// KeyFound logs a correct, in-order guess.
func (n *EventNotifier) KeyFound(user *discordgo.User, sequenceID string, hunter *models.Hunter) {
	embed := &discordgo.MessageEmbed{
		Title: "Key Found",
		Color: colorGreen,
		Description: fmt.Sprintf("%s found key %s (%d/%d)",
			user.Mention(), sequenceID, hunter.KeysFound(), n.totalKeys),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Total attempts: %d", hunter.TotalAttempts),
		},
	}
	n.send(embed)
}

// KeyGuess logs an incorrect guess; flagCandidate marks guesses that
// matched some other stage's key.
func (n *EventNotifier) KeyGuess(user *discordgo.User, guess string, flagCandidate bool) {
	embed := &discordgo.MessageEmbed{
		Title: "Key Guess",
		Color: colorBlue,
		Description: fmt.Sprintf("%s guessed `%s`",
			user.Mention(), services.EscapeMarkdown(services.TruncateText(guess, 100))),
	}
	if flagCandidate {
		embed.Title = "Out-of-Order Key Guess"
		embed.Color = colorOrange
		embed.Description += "\nThis guess matched a key that is not their next key."
	}
	n.send(embed)
}

// UserFinished logs a hunter completing the decode stage.
func (n *EventNotifier) UserFinished(userID string) {
	embed := &discordgo.MessageEmbed{
		Title:       "Hunt Champion",
		Color:       colorGold,
		Description: fmt.Sprintf("<@%s> decoded the final message and finished the hunt!", userID),
	}
	n.send(embed)
}

// Flagged logs a hunter newly flagged by the anti-cheat heuristic.
func (n *EventNotifier) Flagged(userID string) {
	embed := &discordgo.MessageEmbed{
		Title: "Potential Cheating",
		Color: colorOrange,
		Description: fmt.Sprintf(
			"<@%s> was flagged for completing keys too quickly or guessing keys out of order.", userID),
	}
	n.send(embed)
}

func (n *EventNotifier) send(embed *discordgo.MessageEmbed) {
	if n.session == nil || n.logsChannelID == "" {
		return
	}
	if _, err := n.session.ChannelMessageSendEmbed(n.logsChannelID, embed); err != nil {
		log.Printf("[LOG] Failed to send log embed: %v", err)
	}
}
