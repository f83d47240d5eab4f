package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swoopingasaservice/discordbots/internal/auditlog"
	"github.com/swoopingasaservice/discordbots/internal/bot"
	"github.com/swoopingasaservice/discordbots/internal/commands"
	"github.com/swoopingasaservice/discordbots/internal/config"
	"github.com/swoopingasaservice/discordbots/internal/database"
	"github.com/swoopingasaservice/discordbots/internal/farewell"
	"github.com/swoopingasaservice/discordbots/internal/logging"
	"github.com/swoopingasaservice/discordbots/internal/notifier"
	"github.com/swoopingasaservice/discordbots/internal/relay"
	"github.com/swoopingasaservice/discordbots/internal/store"
	"github.com/swoopingasaservice/discordbots/internal/watchdog"
)

func main() {
	fmt.Println("Starting Guild Safety Bot")

	cfg := loadConfig()

	if err := initializeLogging(); err != nil {
		panic(err)
	}

	if cfg.Archive.Enabled {
		if err := initializeArchive(cfg); err != nil {
			panic(err)
		}
	}

	st := store.Open(cfg.Safety.HistoryFile)
	logging.Info("Moderation store loaded: %d users on record", st.Len())

	relayClient := relay.New(cfg.Relay.APIBaseURL, time.Duration(cfg.Relay.TimeoutMS)*time.Millisecond)
	importer := auditlog.NewImporter(st, relayClient, cfg.Safety.AuditFetchLimit)

	var player *farewell.Player
	if cfg.Farewell.Enabled {
		player = farewell.NewPlayer(cfg.Farewell.SoundFile)
	}

	session, err := initializeBot(cfg, st, importer, relayClient, player)
	if err != nil {
		panic(err)
	}

	pollInterval := time.Duration(cfg.Safety.PollIntervalMins) * time.Minute

	wd := watchdog.NewWatchdog(time.Minute)
	wd.RegisterComponent(auditlog.HeartbeatName, 3*pollInterval)
	wd.Start()

	poller := auditlog.NewPoller(importer, pollInterval)
	poller.SetHealthMonitor(wd)
	poller.Start(session.GetDiscord())

	logging.Info("All components started successfully")

	waitForShutdown()

	poller.Stop()
	wd.Stop()
	session.Close()
	database.Close()

	logging.Info("Shutdown complete")
}

func loadConfig() *config.Config {
	cfg := config.LoadOrDefault("config.json")

	if cfg.Bot.Token == "" {
		cfg.Bot.Token = os.Getenv("DISCORD_TOKEN")
	}

	return cfg
}

func initializeLogging() error {
	return logging.InitGlobalLogger(logging.LevelInfo, "safetybot.log")
}

func initializeArchive(cfg *config.Config) error {
	fmt.Println("Initializing SQLite event archive...")

	if err := database.Initialize(cfg.Archive.DatabasePath); err != nil {
		return err
	}

	if database.IsConnected() {
		fmt.Println("Event archive initialized and connection verified ✓")
	} else {
		fmt.Println("Event archive initialized but connection verification failed")
	}

	return nil
}

func initializeBot(cfg *config.Config, st *store.Store, importer *auditlog.Importer, relayClient *relay.Client, player *farewell.Player) (*bot.Session, error) {
	fmt.Println("Initializing Discord bot...")

	session, err := bot.New(cfg.Bot.Token)
	if err != nil {
		return nil, err
	}

	watched := make(map[string]bool, len(cfg.Watch.SourceChannelIDs))
	for _, id := range cfg.Watch.SourceChannelIDs {
		watched[id] = true
	}

	// Handlers must be in place before the gateway connects
	session.SetupEventHandlers(&bot.Handlers{
		Importer: importer,
		Relay:    relayClient,
		Farewell: player,
		Watched:  watched,
	})

	if err := session.Connect(); err != nil {
		return nil, err
	}

	notifier.SetSession(session.GetDiscord(), cfg.Bot.TargetChannelIDs)

	if err := commands.Initialize(session, st, importer, player, cfg); err != nil {
		return nil, err
	}

	fmt.Println("Discord bot initialized successfully")
	return session, nil
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nShutdown signal received")
}
