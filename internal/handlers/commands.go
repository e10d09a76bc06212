package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ad/discord-key-hunt/internal/db"
	"github.com/ad/discord-key-hunt/internal/models"
	"github.com/ad/discord-key-hunt/internal/services"
	"github.com/bwmarrin/discordgo"
)

// CommandHandler serves the slash commands: /help, /clue and /progress for
// hunters over DM, /stats for staff in the guild.
type CommandHandler struct {
	hunterRepo    *db.HunterRepository
	keys          *models.KeySet
	statsService  *services.StatisticsService
	window        *services.HuntWindow
	errorNotifier *services.ErrorNotifier
	eventsChannel string
}

func NewCommandHandler(
	hunterRepo *db.HunterRepository,
	keys *models.KeySet,
	statsService *services.StatisticsService,
	window *services.HuntWindow,
	errorNotifier *services.ErrorNotifier,
	eventsChannel string,
) *CommandHandler {
	return &CommandHandler{
		hunterRepo:    hunterRepo,
		keys:          keys,
		statsService:  statsService,
		window:        window,
		errorNotifier: errorNotifier,
		eventsChannel: eventsChannel,
	}
}

// GlobalDefinitions returns the hunter-facing commands. DMPermission only
// takes effect on globally registered commands, so these must be created
// with an empty guild id or they become uninvocable over DM.
func (h *CommandHandler) GlobalDefinitions() []*discordgo.ApplicationCommand {
	dmAllowed := true

	return []*discordgo.ApplicationCommand{
		{
			Name:         "help",
			Description:  "Learn how to play the hunt.",
			DMPermission: &dmAllowed,
		},
		{
			Name:         "clue",
			Description:  "Get a hint for your next key.",
			DMPermission: &dmAllowed,
		},
		{
			Name:         "progress",
			Description:  "See your current progress in the hunt.",
			DMPermission: &dmAllowed,
		},
	}
}

// GuildDefinitions returns the staff commands, registered under the hunt
// guild only.
func (h *CommandHandler) GuildDefinitions() []*discordgo.ApplicationCommand {
	manageGuild := int64(discordgo.PermissionManageServer)

	return []*discordgo.ApplicationCommand{
		{
			Name:                     "stats",
			Description:              "Get the global or user stats for the current hunt.",
			DefaultMemberPermissions: &manageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to get stats for.",
				},
			},
		},
	}
}

func (h *CommandHandler) HandleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	user := interactionUser(i)
	defer func() {
		if r := recover(); r != nil {
			userID := "unknown"
			if user != nil {
				userID = user.ID
			}
			h.errorNotifier.NotifyPanic(r, userID)
		}
	}()
	if user == nil {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "help":
		h.handleHelp(s, i)
	case "clue":
		h.handleClue(s, i, user)
	case "progress":
		h.handleProgress(s, i, user)
	case "stats":
		h.handleStats(s, i)
	}
}

func (h *CommandHandler) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID != "" {
		h.respondText(s, i, "This command only works in our DM channel.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "Welcome to the hunt!",
		Color: colorBlue,
		Description: "This is a scavenger hunt where you solve clues to discover hidden keys " +
			"throughout the community. Each key unlocks the next part of your adventure. " +
			"Simply send your guesses here in our DM channel.\n\n" +
			"Ready to begin? Get your first clue with the /clue command!",
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "How to Play",
				Value: "1. Read the clue carefully.\n" +
					"2. Solve the clue to find the key. Keys only contain lowercase letters a-z " +
					"(no spaces, numbers, or special characters). Example key: `sixstars`\n" +
					"3. Send your answer here in this DM channel.\n" +
					"4. If correct, you'll get the next clue! If wrong, you can try again.\n" +
					"Remember: keys must be found in the correct order.\n\n" +
					fmt.Sprintf("Visit <#%s> for more details. Good hunting!", h.eventsChannel),
			},
		},
	}
	h.respondEmbed(s, i, embed)
}

func (h *CommandHandler) handleClue(s *discordgo.Session, i *discordgo.InteractionCreate, user *discordgo.User) {
	if i.GuildID != "" {
		h.respondText(s, i, "This command only works in our DM channel.")
		return
	}

	// /clue starts the hunt for users who never sent a guess.
	hunter, err := h.hunterRepo.GetOrCreate(user.ID)
	if err != nil {
		log.Printf("[CMD] Failed to load hunter %s: %v", user.ID, err)
		h.respondText(s, i, "Something went wrong, please try again later.")
		return
	}

	if hunter.Completed {
		h.respondText(s, i, "You've already completed the hunt! Thanks for participating!")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "Clue",
		Color: colorBlue,
	}
	if hunter.KeyToFind == models.DecodeKey {
		embed.Description = "You've found all the keys! Here's your final clue to decode them:"
	} else {
		embed.Description = "Here's your clue for the next key:"
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: "Once you find the key, send it here to unlock the next clue!",
		}
	}
	embed.Description += fmt.Sprintf("\n> %s", h.keys.ClueFor(hunter.KeyToFind))

	h.respondEmbed(s, i, embed)
}

func (h *CommandHandler) handleProgress(s *discordgo.Session, i *discordgo.InteractionCreate, user *discordgo.User) {
	if i.GuildID != "" {
		h.respondText(s, i, "This command only works in our DM channel.")
		return
	}

	hunter, err := h.hunterRepo.GetByID(user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.respondText(s, i, "You haven't started the hunt yet! Use /clue to get your first clue.")
			return
		}
		log.Printf("[CMD] Failed to load hunter %s: %v", user.ID, err)
		h.respondText(s, i, "Something went wrong, please try again later.")
		return
	}

	total := h.keys.NumberedCount()
	var codesFound []string
	for _, c := range hunter.Completions {
		if c.SequenceID == models.DecodeStageID {
			continue
		}
		stage, ok := h.keys.Get(c.SequenceID)
		if !ok || stage.Code == "" {
			continue
		}
		codesFound = append(codesFound, fmt.Sprintf("From Key %s: **%s**", c.SequenceID, stage.Code))
	}

	embed := &discordgo.MessageEmbed{
		Title: "Your Progress",
		Color: colorBlue,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("You've found %d out of %d keys", hunter.KeysFound(), total),
		},
	}

	switch {
	case hunter.Completed:
		embed.Description = strings.Join(codesFound, "\n") +
			"\n\nYou've completed the hunt!"
		embed.Footer.Text = fmt.Sprintf(
			"You've found %d out of %d keys, and decoded the final message!", total, total)
	case hunter.KeysFound() == total:
		embed.Description = strings.Join(codesFound, "\n") +
			"\n\nYou've found all the codes! Time to decode them! Here's your final clue to do so:\n> " +
			h.keys.DecodeStage().Clue
	case len(codesFound) == 0:
		embed.Description = "You haven't found any codes yet! When you find a new key, its code will be added here."
	default:
		embed.Description = "Here are the codes you have found so far:\n" + strings.Join(codesFound, "\n")
	}

	h.respondEmbed(s, i, embed)
}

func (h *CommandHandler) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		h.respondText(s, i, "This command only works in the server.")
		return
	}

	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "user" {
			h.handleUserStats(s, i, opt.UserValue(s))
			return
		}
	}
	h.handleGlobalStats(s, i)
}

func (h *CommandHandler) handleGlobalStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	stats, err := h.statsService.GlobalStats()
	if err != nil {
		log.Printf("[CMD] Failed to compute stats: %v", err)
		h.respondText(s, i, "Something went wrong, please try again later.")
		return
	}
	if stats.TotalUsers == 0 {
		h.respondText(s, i, "No users found in the database.")
		return
	}

	progressShare := stats.UsersWithProgress * 100 / stats.TotalUsers

	var usersPerKey []string
	for _, ks := range stats.UsersPerKey {
		label := fmt.Sprintf("Key %s", ks.SequenceID)
		if ks.SequenceID == models.DecodeStageID {
			label = "Decoding"
		}
		usersPerKey = append(usersPerKey, fmt.Sprintf("%s: %d users", label, ks.Count))
	}
	usersPerKey = append(usersPerKey, fmt.Sprintf("Completed: %d users", stats.FinishedUsers))

	embed := &discordgo.MessageEmbed{
		Title: "Global Hunt Stats",
		Color: colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total Users", Value: fmt.Sprintf("%d users", stats.TotalUsers), Inline: true},
			{Name: "Users that made progress", Value: fmt.Sprintf("%d users (%d%%)", stats.UsersWithProgress, progressShare), Inline: true},
			{Name: "Total Key Guesses", Value: fmt.Sprintf("%d guesses", stats.TotalGuesses), Inline: true},
			{Name: "Total Finished Users", Value: fmt.Sprintf("%d users", stats.FinishedUsers), Inline: true},
			{Name: "Potential Cheaters", Value: fmt.Sprintf("%d users", stats.FlaggedUsers), Inline: true},
			{Name: "Users per Key", Value: strings.Join(usersPerKey, "\n")},
		},
	}

	if timings, err := h.statsService.AverageKeyTimes(); err == nil && len(timings) > 0 {
		var lines []string
		for _, t := range timings {
			lines = append(lines, fmt.Sprintf("%s → %s: %.1f min",
				keyLabel(t.FromSequenceID), keyLabel(t.ToSequenceID), t.AverageMinutes))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Average Time Spent Per Key",
			Value: strings.Join(lines, "\n"),
		})
	}

	h.respondEmbed(s, i, embed)
}

func (h *CommandHandler) handleUserStats(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User) {
	if target == nil {
		h.respondText(s, i, "User not found.")
		return
	}

	hunter, err := h.hunterRepo.GetByID(target.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.respondText(s, i, "User not found in the database.")
			return
		}
		log.Printf("[CMD] Failed to load hunter %s: %v", target.ID, err)
		h.respondText(s, i, "Something went wrong, please try again later.")
		return
	}

	nextKey := fmt.Sprintf("%d", hunter.KeyToFind)
	if hunter.KeyToFind == models.DecodeKey {
		nextKey = "Finished"
	}

	var completionLines []string
	for _, c := range hunter.Completions {
		label := keyLabel(c.SequenceID)
		completionLines = append(completionLines, fmt.Sprintf("%s: %s", label, services.FormatTimestampFull(c.CompletedAt)))
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Stats for @%s", target.Username),
		Color: colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Next Key", Value: nextKey, Inline: true},
			{Name: "Started At", Value: services.FormatTimestampFull(hunter.CreatedAt), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Total attempts: %d | Wrong Order Attempts: %d",
				hunter.TotalAttempts, hunter.WrongOrderCorrectGuesses),
		},
	}
	if len(completionLines) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Key Completion Times",
			Value: strings.Join(completionLines, "\n"),
		})
	}
	if hunter.Flagged {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Potential Cheating",
			Value: "This user has been flagged for getting keys too quickly or getting " +
				"multiple keys in the wrong order. Please review their progress.",
		})
	}

	h.respondEmbed(s, i, embed)
}

func keyLabel(sequenceID string) string {
	if sequenceID == models.DecodeStageID {
		return "Finished"
	}
	return fmt.Sprintf("Key %s", sequenceID)
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.User != nil {
		return i.User
	}
	if i.Member != nil {
		return i.Member.User
	}
	return nil
}

func (h *CommandHandler) respondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("[CMD] Failed to respond: %v", err)
	}
}

func (h *CommandHandler) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("[CMD] Failed to respond: %v", err)
	}
}
