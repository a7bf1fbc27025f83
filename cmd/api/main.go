package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/httpapi"
	"leasepilot.org/internal/obs"
	"leasepilot.org/internal/portfolio"
	"leasepilot.org/internal/sms"
	"leasepilot.org/internal/store/memory"
	"leasepilot.org/internal/store/pg"
)

var version = "0.3.1"

// combinedStore is what both services need from one backend.
type combinedStore interface {
	auth.Store
	portfolio.Store
}

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("LEASEPILOT_COMMIT"))

	secret := os.Getenv("LEASEPILOT_AUTH_SECRET")
	if secret == "" {
		log.Fatal("LEASEPILOT_AUTH_SECRET is required")
	}

	// Postgres when a DSN is configured, in-memory otherwise. The in-memory
	// store loses everything on restart and exists for local development.
	var (
		store  combinedStore
		pinger httpapi.Pinger
	)
	if dsn := os.Getenv("LEASEPILOT_PG_DSN"); dsn != "" {
		pgStore, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
		pinger = pgStore
	} else {
		log.Println("LEASEPILOT_PG_DSN not set, using in-memory store")
		store = memory.New()
	}

	authSvc, err := auth.NewService(store,
		auth.WithSecret(secret),
		auth.WithScopeMode(auth.ScopeMode(os.Getenv("LEASEPILOT_SCOPE_MODE"))),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	portfolioSvc, err := portfolio.NewService(store)
	if err != nil {
		log.Fatalf("portfolio service: %v", err)
	}

	var sender sms.Sender = sms.Disabled{}
	if sid := os.Getenv("TWILIO_ACCOUNT_SID"); sid != "" {
		sender, err = sms.NewTwilio(sid, os.Getenv("TWILIO_AUTH_TOKEN"), os.Getenv("TWILIO_FROM_NUMBER"))
		if err != nil {
			log.Fatalf("twilio: %v", err)
		}
	}

	api := httpapi.New(authSvc, portfolioSvc, sender, httpapi.ReadyProbe{Store: pinger}, httpapi.Config{
		Version:        version,
		SecureCookies:  os.Getenv("LEASEPILOT_SECURE_COOKIES") == "true",
		AllowedOrigins: splitOrigins(os.Getenv("LEASEPILOT_ALLOWED_ORIGINS")),
		RateBurst:      envInt("LEASEPILOT_RATE_BURST", 50),
		RatePerSecond:  envInt("LEASEPILOT_RATE_PER_SEC", 25),
	})

	addr := os.Getenv("LEASEPILOT_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting leasepilot-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
