package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/past0101/gstravel/app"
	"github.com/past0101/gstravel/config"
	"github.com/past0101/gstravel/database"
	"github.com/past0101/gstravel/httpx"
	"github.com/past0101/gstravel/log"
	"github.com/past0101/gstravel/routes"
	"github.com/past0101/gstravel/store"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	docs := store.NewSQLite(db)
	bearerServer := httpx.NewBearerServer(db, cfg)

	app := app.New(db, bearerServer, cfg, docs)
	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
