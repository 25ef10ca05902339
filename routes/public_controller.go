package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/past0101/gstravel/app"
	"github.com/past0101/gstravel/forms"
	"github.com/past0101/gstravel/httpx"
	"github.com/past0101/gstravel/log"
	"github.com/past0101/gstravel/model"
	"github.com/past0101/gstravel/store"
)

// PublicGetForm serves the shareable participation form: event metadata
// plus the live field list. An event without a configured form (or with
// zero fields) is a valid empty state, not an error.
func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventId")

		event, err := app.Events.Get(r.Context(), eventID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				httpx.LogNotFound(w, "public.get_form.event", eventID)
			} else {
				httpx.LogInternalError(w, "public.get_form.event", err)
			}
			return
		}

		renderer := forms.NewRenderer(app.Definitions, app.Submissions, app.Events, eventID, model.ModePublic, nil)
		renderer.Load(r.Context())

		render.JSON(w, r, map[string]any{
			"event":  event,
			"fields": renderer.Fields(),
			"empty":  renderer.State() == forms.StateEmpty,
		})
	}
}

// PublicSubmit captures an anonymous entry. Consent is required before
// anything is written.
func PublicSubmit(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventId")

		var req submitRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		renderer := forms.NewRenderer(app.Definitions, app.Submissions, app.Events, eventID, model.ModePublic, nil)
		renderer.Load(r.Context())
		applyValues(renderer, req.Values)
		renderer.SetConsent(req.GDPRAccepted)

		sub, err := renderer.Submit(r.Context())
		if err != nil {
			writeSubmitError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, sub)
	}
}

type submitRequest struct {
	Values       map[string]any `json:"values"`
	GDPRAccepted bool           `json:"gdprAccepted"`
}

// applyValues feeds a decoded value bag into the renderer's capture API.
// Only labels present in the definition are applied; value types other
// than string and string array are ignored.
func applyValues(renderer *forms.Renderer, values map[string]any) {
	for _, f := range renderer.Fields() {
		v, ok := values[f.Label]
		if !ok {
			continue
		}
		if f.Type == model.FieldCheckbox {
			for _, opt := range model.StringSlice(v) {
				renderer.SetChecked(f.Label, opt, true)
			}
			continue
		}
		renderer.SetValue(f.Label, model.StringValue(v))
	}
}

func writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *forms.ValidationError
	switch {
	case errors.As(err, &validation):
		log.Debugf("submit.validation: %s", err)
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, map[string]any{
			"error":  "validation-failed",
			"fields": validation.Fields,
		})
	case errors.Is(err, forms.ErrConsentRequired):
		log.Debug("submit.consent")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, map[string]any{
			"error": "consent-required",
		})
	case errors.Is(err, forms.ErrNoForm):
		httpx.LogNotFound(w, "submit.form", "no form configured")
	default:
		httpx.LogInternalError(w, "submit.append", err)
	}
}
