package services

import (
	"fmt"
	"log"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
)

// ErrorNotifier reports handler panics to the bot owner over DM, with the
// stack trace truncated to fit a Discord message.
type ErrorNotifier struct {
	session *discordgo.Session
	ownerID string
}

func NewErrorNotifier(session *discordgo.Session, ownerID string) *ErrorNotifier {
	return &ErrorNotifier{session: session, ownerID: ownerID}
}

func (n *ErrorNotifier) NotifyPanic(panicValue interface{}, userID string) {
	msg := fmt.Sprintf("Panic in handler\nUser: %s\nError: %v\n\nStack trace:\n%s",
		userID, panicValue, string(debug.Stack()))
	if len(msg) > 1900 {
		msg = msg[:1900] + "\n... (truncated)"
	}

	log.Printf("[PANIC] user=%s: %v", userID, panicValue)

	if n.session == nil || n.ownerID == "" {
		return
	}
	channel, err := n.session.UserChannelCreate(n.ownerID)
	if err != nil {
		log.Printf("[PANIC] Failed to open owner DM: %v", err)
		return
	}
	if _, err := n.session.ChannelMessageSend(channel.ID, msg); err != nil {
		log.Printf("[PANIC] Failed to notify owner: %v", err)
	}
}
