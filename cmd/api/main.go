package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orgaccess.org/internal/auth"
	"orgaccess.org/internal/catalog"
	"orgaccess.org/internal/config"
	"orgaccess.org/internal/httpapi"
	"orgaccess.org/internal/obs"
	"orgaccess.org/internal/store/pg"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("ORGACCESS_COMMIT"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	codec, err := auth.NewTokenCodec(cfg.AuthSecret,
		auth.WithAccessTTL(cfg.AccessTokenTTL),
		auth.WithRefreshTTL(cfg.RefreshTokenTTL),
	)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	courses, err := pg.Open(cfg.DSN())
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer courses.Close()

	authStore := auth.NewPGStore(courses.DB())
	resolver := auth.NewResolver(authStore, codec)
	authSvc := auth.NewService(authStore, codec)
	catalogSvc := catalog.NewService(courses)

	api := httpapi.New(httpapi.ReadyProbe{DB: courses.DB()}, version, httpapi.Deps{
		Auth:          authSvc,
		Resolver:      resolver,
		Catalog:       catalogSvc,
		RateBurst:     cfg.RateBurst,
		RatePerSecond: cfg.RatePerSecond,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting orgaccess-api %s on %s", version, srv.Addr)

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
