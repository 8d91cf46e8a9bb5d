package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/worklink/internal/client"
	"github.com/geocoder89/worklink/internal/config"
	"github.com/geocoder89/worklink/internal/domain/user"
	"github.com/geocoder89/worklink/internal/observability"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	var (
		apiURL   = flag.String("api", envOr("WORKLINK_API_URL", "http://localhost:8080"), "API base url")
		email    = flag.String("email", os.Getenv("WORKLINK_EMAIL"), "account email")
		password = flag.String("password", os.Getenv("WORKLINK_PASSWORD"), "account password")
		interval = flag.Duration("interval", client.DefaultRefreshInterval, "refresh interval")
		state    = flag.String("state", "", "optional JSON file that mirrors fetched messages")
		local    = flag.Bool("local", false, "read messages from -state instead of the API")
		userID   = flag.String("user", "", "user id to watch as (with -local)")
	)
	flag.Parse()

	log := observability.NewLogger(cfg.Env).With("component", "chatwatch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *client.Store
	if *state != "" {
		kv, err := client.OpenFileKV(*state)
		if err != nil {
			log.Error("open state failed", "path", *state, "err", err)
			os.Exit(1)
		}
		store = client.NewStore(kv)
	}

	var (
		src    client.MessageSource
		mirror *client.Store
		watch  string
	)

	if *local {
		if store == nil || *userID == "" {
			fmt.Fprintln(os.Stderr, "-local needs -state and -user")
			os.Exit(2)
		}
		src = client.NewLocalSource(store, *userID)
		watch = *userID
	} else {
		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "-email and -password (or WORKLINK_EMAIL / WORKLINK_PASSWORD) are required")
			os.Exit(2)
		}

		api := client.NewAPIClient(*apiURL, nil)
		lctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		session, err := api.Login(lctx, *email, *password)
		cancel()
		if err != nil {
			log.Error("login failed", "err", err)
			os.Exit(1)
		}
		log.Info("logged in", "user_id", session.User.ID, "role", session.User.Role)

		if store != nil {
			if err := store.Users().Update(func(users *[]user.Public) error {
				*users = client.UpsertUser(*users, session.User)
				return nil
			}); err != nil {
				log.Warn("could not cache user", "err", err)
			}
		}

		src = api
		mirror = store
		watch = session.User.ID
	}

	tray := client.NewTray(client.RealClock{})
	tray.OnPush = func(n client.Notification) {
		fmt.Printf("[%s] %s: %s (%s)\n", n.At.Format(time.Kitchen), n.Title, n.Message, n.ChatID)
	}

	r := client.NewRefresher(log, src, tray, client.RealClock{}, client.RefresherConfig{
		UserID:   watch,
		Interval: *interval,
		Mirror:   mirror,
	})
	if err := r.Run(ctx); err != nil {
		log.Error("refresher exited", "err", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
