package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ad/discord-key-hunt/internal/config"
	"github.com/ad/discord-key-hunt/internal/db"
	"github.com/ad/discord-key-hunt/internal/handlers"
	"github.com/ad/discord-key-hunt/internal/services"
	"github.com/bwmarrin/discordgo"
	_ "github.com/joho/godotenv/autoload"
	_ "modernc.org/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sqlDB, err := sql.Open("sqlite", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqlDB.Close()

	if err := db.InitSchema(sqlDB); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	queue := db.NewQueue(sqlDB)
	defer queue.Close()

	hunterRepo := db.NewHunterRepository(queue)
	settingsRepo := db.NewSettingsRepository(queue)

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	session.Identify.Intents = discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers

	engine := services.NewProgressEngine(hunterRepo, cfg.Keys)
	antiCheat := services.NewAntiCheatEvaluator(services.DefaultAntiCheatConfig())
	limiter := services.NewGuessLimiter(2, 5*time.Second)
	window := services.NewHuntWindow(cfg.StartTime, cfg.EndTime, settingsRepo)
	statsService := services.NewStatisticsService(hunterRepo, cfg.Keys)
	errorNotifier := services.NewErrorNotifier(session, cfg.OwnerID)
	notifier := handlers.NewEventNotifier(session, cfg.LogsChannelID, cfg.Keys)

	dmHandler := handlers.NewDMHandler(
		session, engine, antiCheat, hunterRepo, limiter, window,
		settingsRepo, notifier, errorNotifier, cfg.Keys, cfg.RejectURLs,
	)
	roleHandler := handlers.NewRoleHandler(engine, hunterRepo, notifier, cfg.ChampionRoleID)
	commandHandler := handlers.NewCommandHandler(
		hunterRepo, cfg.Keys, statsService, window, errorNotifier, cfg.EventsChannelID,
	)

	session.AddHandler(dmHandler.HandleMessageCreate)
	session.AddHandler(roleHandler.HandleGuildMemberUpdate)
	session.AddHandler(commandHandler.HandleInteractionCreate)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as %s", r.User.String())
	})

	// The gateway can be flaky right after a deploy; retry the initial
	// connect a few times before giving up.
	for attempt := 1; ; attempt++ {
		log.Printf("Connecting to the gateway (attempt %d/3)...", attempt)
		err = session.Open()
		if err == nil {
			break
		}
		if attempt == 3 {
			log.Fatalf("Failed to connect after 3 attempts: %v", err)
		}
		log.Printf("Failed to connect: %v, retrying in 2 seconds...", err)
		time.Sleep(2 * time.Second)
	}
	defer session.Close()

	for _, cmd := range commandHandler.GlobalDefinitions() {
		if _, err := session.ApplicationCommandCreate(session.State.User.ID, "", cmd); err != nil {
			log.Fatalf("Failed to register /%s: %v", cmd.Name, err)
		}
	}
	for _, cmd := range commandHandler.GuildDefinitions() {
		if _, err := session.ApplicationCommandCreate(session.State.User.ID, cfg.GuildID, cmd); err != nil {
			log.Fatalf("Failed to register /%s: %v", cmd.Name, err)
		}
	}

	scheduler := services.NewHuntScheduler(
		session, window, statsService, settingsRepo,
		cfg.EventsChannelID, cfg.LogsChannelID,
	)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	log.Printf("Bot started. Guild: %s, DB: %s, keys: %d", cfg.GuildID, cfg.DBPath, cfg.Keys.NumberedCount())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	log.Println("Shutting down...")
}
