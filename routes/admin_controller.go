package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/past0101/gstravel/app"
	"github.com/past0101/gstravel/export"
	"github.com/past0101/gstravel/forms"
	"github.com/past0101/gstravel/httpx"
	"github.com/past0101/gstravel/log"
	"github.com/past0101/gstravel/model"
	"github.com/past0101/gstravel/routes/middlewares"
	"github.com/past0101/gstravel/store"
)

// ---- events ----

func CreateEvent(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event model.Event
		if err := render.DecodeJSON(r.Body, &event); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if event.Name == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "event.create", "name is required")
			return
		}

		id, err := app.Events.Create(r.Context(), event)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_event", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{"id": id})
	}
}

func ListEvents(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := app.Events.List(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.get_events", err)
			return
		}

		// flag events that have a form configured
		forms, err := app.Store.List(r.Context(), store.EventForms)
		if err != nil {
			httpx.LogInternalError(w, "db.get_event_forms", err)
			return
		}
		hasForm := make(map[string]bool, len(forms))
		for _, kd := range forms {
			hasForm[kd.Key] = true
		}

		type eventEntry struct {
			model.Event
			HasForm bool `json:"hasForm"`
		}
		entries := make([]eventEntry, len(events))
		for i, ev := range events {
			entries[i] = eventEntry{Event: ev, HasForm: hasForm[ev.ID]}
		}

		render.JSON(w, r, map[string]any{"events": entries})
	}
}

func UpdateEvent(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "id")

		var event model.Event
		if err := render.DecodeJSON(r.Body, &event); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err := app.Events.Update(r.Context(), eventID, event)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "update_event", eventID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_event", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteEvent removes the event document only. Its form definition and
// submissions are left in place; cleaning them up is a separate,
// deliberate operator action.
func DeleteEvent(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "id")

		err := app.Events.Delete(r.Context(), eventID)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "delete_event", eventID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_event", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ---- form definitions ----

func GetEventForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "id")

		def, err := app.Definitions.Load(r.Context(), eventID)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "get_event_form", eventID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_event_form", err)
			return
		}

		render.JSON(w, r, def)
	}
}

// SaveEventForm replaces the event's whole field list. Transient editing
// ids and blank options never reach storage.
func SaveEventForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "id")

		var body struct {
			Fields []model.FieldDefinition `json:"fields"`
		}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		for _, f := range body.Fields {
			if !f.Type.Valid() {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "event_form.save",
					"unknown field type %q", f.Type)
				return
			}
		}

		builder := forms.NewBuilder(app.Definitions, eventID, body.Fields)
		if err := builder.Save(r.Context()); err != nil {
			if errors.Is(err, forms.ErrNoEventSelected) {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "event_form.save.no_event")
				return
			}
			httpx.LogInternalError(w, "db.save_event_form", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteEventForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "id")

		err := app.Definitions.Delete(r.Context(), eventID)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "delete_event_form", eventID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_event_form", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ---- submissions ----

type tokenIdentity string

func (t tokenIdentity) CurrentUID() string { return string(t) }

// InternalSubmit records an entry made by a staff operator on behalf of
// a participant. Consent is implied for the internal channel.
func InternalSubmit(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "id")

		var req submitRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		identity := tokenIdentity(middlewares.CurrentUID(r))
		renderer := forms.NewRenderer(app.Definitions, app.Submissions, app.Events, eventID, model.ModeInternal, identity)
		renderer.Load(r.Context())
		applyValues(renderer, req.Values)

		sub, err := renderer.Submit(r.Context())
		if err != nil {
			writeSubmitError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, sub)
	}
}

func ListSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "id")

		subs, err := app.Submissions.ListByEvent(r.Context(), eventID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}

		render.JSON(w, r, map[string]any{"submissions": subs})
	}
}

// UpdateSubmission is the list view's direct-edit path: it replaces the
// captured values of one record and nothing else.
func UpdateSubmission(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissionID := chi.URLParam(r, "id")

		var body struct {
			Values map[string]any `json:"values"`
		}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err := app.Submissions.UpdateValues(r.Context(), submissionID, body.Values)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "update_submission", submissionID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_submission", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSubmission(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissionID := chi.URLParam(r, "id")

		err := app.Submissions.Delete(r.Context(), submissionID)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "delete_submission", submissionID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_submission", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ExportSubmissions streams the event's submissions as a spreadsheet.
func ExportSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "id")

		event, err := app.Events.Get(r.Context(), eventID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				httpx.LogNotFound(w, "export_submissions.event", eventID)
			} else {
				httpx.LogInternalError(w, "db.get_event", err)
			}
			return
		}

		subs, err := app.Submissions.ListByEvent(r.Context(), eventID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}

		var fields []model.FieldDefinition
		if def, err := app.Definitions.Load(r.Context(), eventID); err == nil {
			fields = def.Fields
		}

		workbook, err := export.Workbook(event, fields, subs)
		if err != nil {
			httpx.LogInternalError(w, "export.workbook", err)
			return
		}
		defer workbook.Close()

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", event.Name+".xlsx"))
		if err := workbook.Write(w); err != nil {
			log.Errorf("export.write: %s", err)
		}
	}
}
