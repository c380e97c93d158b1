package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"github.com/complete-domination/xrp-price-bot/apis"
	"github.com/complete-domination/xrp-price-bot/config"
	"github.com/complete-domination/xrp-price-bot/discord"
	"github.com/complete-domination/xrp-price-bot/handler"
	"github.com/complete-domination/xrp-price-bot/updater"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Fatalf("failed to create Discord session: %v", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	gecko := apis.NewCoinGecko(*cfg)
	status := handler.NewStatusHandler()

	up := updater.New(updater.Options{
		Fetcher:  gecko,
		Presence: discord.NewClient(session),
		GuildID:  cfg.GuildID,
		Interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		OnQuote:  status.Record,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("✅ Logged in as %s in %d guild(s)", r.User.Username, len(r.Guilds))
		up.Start(ctx)
	})
	session.AddHandler(func(s *discordgo.Session, d *discordgo.Disconnect) {
		log.Println("⚠️ Discord disconnected")
	})
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Resumed) {
		log.Println("📡 Discord session resumed")
	})

	if err := session.Open(); err != nil {
		log.Fatalf("failed to open Discord session: %v", err)
	}

	if cfg.StatusAddr != "" {
		go status.Serve(cfg.StatusAddr)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("🛑 Shutting down")
	up.Stop()

	if err := session.Close(); err != nil {
		log.Printf("⚠️ Error closing Discord session: %v", err)
	}
}
