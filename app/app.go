package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/past0101/gstravel/config"
	"github.com/past0101/gstravel/forms"
	"github.com/past0101/gstravel/store"
)

// App bundles the wired collaborators handed to the route controllers.
type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Store       store.Store
	Events      *forms.EventStore
	Definitions *forms.DefinitionStore
	Submissions *forms.SubmissionStore
}

func New(db *sql.DB, bearerServer *oauth.BearerServer, cfg config.Config, docs store.Store) App {
	return App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Store:        docs,
		Events:       forms.NewEventStore(docs),
		Definitions:  forms.NewDefinitionStore(docs),
		Submissions:  forms.NewSubmissionStore(docs),
	}
}
