package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuzowebsite/ider-surver/app"
	"github.com/kuzowebsite/ider-surver/config"
	"github.com/kuzowebsite/ider-surver/database"
	"github.com/kuzowebsite/ider-surver/httpx"
	"github.com/kuzowebsite/ider-surver/log"
	"github.com/kuzowebsite/ider-surver/routes"
	"github.com/kuzowebsite/ider-surver/store"
)

func main() {
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AdminEmail != "" {
		err = httpx.SeedAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatal("main.admin.seed:", err)
		}
		log.Infof("Admin %s ready", cfg.AdminEmail)
	}

	st, err := store.Open(cfg.StoreParams.DatabaseURL, cfg.StoreParams.ProjectID, db)
	if err != nil {
		log.Fatal("main.store.open:", err)
	}
	defer st.Close()
	if missing := cfg.StoreParams.Missing(); len(missing) > 0 {
		log.Debugf("main.store: unset parameters %v", missing)
	}

	app := app.New(db, st, cfg)
	go app.Hub.Run(ctx)
	go app.Sessions.Run(ctx)

	handler := routes.Wire(app)

	err = runServer(ctx, cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
