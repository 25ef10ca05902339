package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/past0101/gstravel/app"
	"github.com/past0101/gstravel/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// shareable public form, no auth
	api.Get("/f/{eventId}", PublicGetForm(app))
	api.Post("/f/{eventId}/submissions", PublicSubmit(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		r.Post("/events", CreateEvent(app))
		r.Get("/events", ListEvents(app))
		r.Put("/events/{id}", UpdateEvent(app))
		r.Delete("/events/{id}", DeleteEvent(app))

		r.Get("/events/{id}/form", GetEventForm(app))
		r.Put("/events/{id}/form", SaveEventForm(app))
		r.Delete("/events/{id}/form", DeleteEventForm(app))

		r.Post("/events/{id}/submissions", InternalSubmit(app))
		r.Get("/events/{id}/submissions", ListSubmissions(app))
		r.Get("/events/{id}/submissions/export", ExportSubmissions(app))
		r.Put("/submissions/{id}", UpdateSubmission(app))
		r.Delete("/submissions/{id}", DeleteSubmission(app))

		r.Get("/users", ListUsers(app))
		r.Post("/users", CreateUser(app))
		r.Put("/users/{uid}", UpdateUser(app))
		r.Delete("/users/{uid}", DeleteUser(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}
