package services

import (
	"fmt"
	"log"
	"time"

	"github.com/ad/discord-key-hunt/internal/db"
	"github.com/bwmarrin/discordgo"
	"github.com/go-co-op/gocron/v2"
)

// HuntScheduler posts the start/end announcements in the events channel
// and a recurring stats digest in the staff log channel. Settings markers
// keep announcements from repeating across restarts.
type HuntScheduler struct {
	session         *discordgo.Session
	window          *HuntWindow
	statsService    *StatisticsService
	settingsRepo    *db.SettingsRepository
	eventsChannelID string
	logsChannelID   string
	digestInterval  time.Duration

	scheduler gocron.Scheduler
}

func NewHuntScheduler(
	session *discordgo.Session,
	window *HuntWindow,
	statsService *StatisticsService,
	settingsRepo *db.SettingsRepository,
	eventsChannelID string,
	logsChannelID string,
) *HuntScheduler {
	return &HuntScheduler{
		session:         session,
		window:          window,
		statsService:    statsService,
		settingsRepo:    settingsRepo,
		eventsChannelID: eventsChannelID,
		logsChannelID:   logsChannelID,
		digestInterval:  6 * time.Hour,
	}
}

func (s *HuntScheduler) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.scheduler = scheduler

	now := time.Now()
	if s.window.Start().After(now) {
		_, err = scheduler.NewJob(
			gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(s.window.Start())),
			gocron.NewTask(s.announceStart),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule start announcement: %w", err)
		}
	}
	if s.window.End().After(now) {
		_, err = scheduler.NewJob(
			gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(s.window.End())),
			gocron.NewTask(s.announceEnd),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule end announcement: %w", err)
		}
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.digestInterval),
		gocron.NewTask(s.postDigest),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule stats digest: %w", err)
	}

	scheduler.Start()
	return nil
}

func (s *HuntScheduler) Stop() {
	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			log.Printf("[SCHEDULER] Shutdown error: %v", err)
		}
	}
}

func (s *HuntScheduler) announceStart() {
	if s.settingsRepo.GetBool("start_announced") {
		return
	}
	message := "The hunt has begun! DM me your first guess or use /clue to get started. Good hunting!"
	if _, err := s.session.ChannelMessageSend(s.eventsChannelID, message); err != nil {
		log.Printf("[SCHEDULER] Failed to announce start: %v", err)
		return
	}
	if err := s.settingsRepo.SetBool("start_announced", true); err != nil {
		log.Printf("[SCHEDULER] Failed to mark start announced: %v", err)
	}
}

func (s *HuntScheduler) announceEnd() {
	if s.settingsRepo.GetBool("end_announced") {
		return
	}
	message := "The hunt has ended. Thanks to everyone who participated!"
	if _, err := s.session.ChannelMessageSend(s.eventsChannelID, message); err != nil {
		log.Printf("[SCHEDULER] Failed to announce end: %v", err)
		return
	}
	if err := s.settingsRepo.SetBool("end_announced", true); err != nil {
		log.Printf("[SCHEDULER] Failed to mark end announced: %v", err)
	}
}

func (s *HuntScheduler) postDigest() {
	if s.window.State() != WindowOpen {
		return
	}

	stats, err := s.statsService.GlobalStats()
	if err != nil {
		log.Printf("[SCHEDULER] Failed to compute digest stats: %v", err)
		return
	}
	if stats.TotalUsers == 0 {
		return
	}

	message := fmt.Sprintf(
		"Hunt digest: %d hunters, %d made progress, %d guesses so far, %d finished, %d flagged.",
		stats.TotalUsers, stats.UsersWithProgress, stats.TotalGuesses,
		stats.FinishedUsers, stats.FlaggedUsers,
	)
	if _, err := s.session.ChannelMessageSend(s.logsChannelID, message); err != nil {
		log.Printf("[SCHEDULER] Failed to post digest: %v", err)
	}
}
