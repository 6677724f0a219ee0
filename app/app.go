package app

import (
	"database/sql"

	"github.com/go-chi/oauth"
	"github.com/kuzowebsite/ider-surver/catalog"
	"github.com/kuzowebsite/ider-surver/config"
	"github.com/kuzowebsite/ider-surver/httpx"
	"github.com/kuzowebsite/ider-surver/live"
	"github.com/kuzowebsite/ider-surver/session"
	"github.com/kuzowebsite/ider-surver/sink"
	"github.com/kuzowebsite/ider-surver/store"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Store    store.Store
	Sink     *sink.Sink
	Sessions *session.Registry
	Editors  *catalog.Editors
	Hub      *live.Hub
}

// New wires the survey components around an open store.
func New(db *sql.DB, s store.Store, cfg config.Config) App {
	return App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg.TokenSecret, cfg.TokenTTL, cfg.RefreshTTL),
		Config:       cfg,
		Store:        s,
		Sink:         sink.New(s, cfg.SubmitTimeout, cfg.LocalBuffer),
		Sessions:     session.NewRegistry(cfg.SessionTTL),
		Editors:      catalog.NewEditors(s),
		Hub:          live.NewHub(s),
	}
}
