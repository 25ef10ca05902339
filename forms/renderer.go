package forms

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/past0101/gstravel/log"
	"github.com/past0101/gstravel/model"
	"github.com/past0101/gstravel/store"
)

// State of a renderer session.
//
//	Loading -> Empty | Ready
//	Ready -> Submitting -> Ready
//
// Empty has no submit path and is reached when no definition exists, the
// definition has zero fields, or loading it failed.
type State int

const (
	StateLoading State = iota
	StateEmpty
	StateReady
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Identity exposes the current operator's identifier. An empty uid is a
// valid state and means anonymous.
type Identity interface {
	CurrentUID() string
}

// Anonymous is the identity of an unauthenticated session.
var Anonymous Identity = anonymous{}

type anonymous struct{}

func (anonymous) CurrentUID() string { return "" }

// Placeholder options shown for choice fields whose persisted option
// list is empty. Display only, never written back.
var placeholderOptions = []string{"Επιλογή 1", "Επιλογή 2"}

// Renderer drives one form-filling session for an event: it follows the
// live definition, collects values, validates them and appends a
// submission. Safe for concurrent use; definition updates arrive on the
// store's delivery goroutine.
type Renderer struct {
	defs     *DefinitionStore
	subs     *SubmissionStore
	events   *EventStore
	identity Identity
	eventID  string
	mode     model.SubmissionMode

	mu        sync.Mutex
	state     State
	exists    bool
	fields    []model.FieldDefinition
	values    map[string]any
	consent   bool
	fieldErrs model.FieldErrors
	event     *model.Event
	cancel    store.CancelFunc
	closed    bool
}

func NewRenderer(defs *DefinitionStore, subs *SubmissionStore, events *EventStore, eventID string, mode model.SubmissionMode, identity Identity) *Renderer {
	if identity == nil {
		identity = Anonymous
	}
	return &Renderer{
		defs:      defs,
		subs:      subs,
		events:    events,
		identity:  identity,
		eventID:   eventID,
		mode:      mode,
		state:     StateLoading,
		values:    map[string]any{},
		fieldErrs: model.FieldErrors{},
	}
}

// Start subscribes to the event's definition; controls re-render on every
// change without reloading the session. In public mode the event metadata
// is fetched once for display.
func (r *Renderer) Start(ctx context.Context) {
	cancel := r.defs.SubscribeEvent(r.eventID, r.onDefinition)

	r.mu.Lock()
	r.cancel = cancel
	closed := r.closed
	r.mu.Unlock()
	if closed {
		cancel()
		return
	}

	if r.mode == model.ModePublic {
		ev, err := r.events.Get(ctx, r.eventID)
		if err != nil {
			log.Warnf("forms.renderer.event_meta %s: %s", r.eventID, err)
		} else {
			r.mu.Lock()
			r.event = &ev
			r.mu.Unlock()
		}
	}
}

// Load fetches the definition once, without subscribing. One-shot
// callers (HTTP submits) use it instead of Start. A failed load degrades
// to Empty rather than propagating.
func (r *Renderer) Load(ctx context.Context) {
	def, err := r.defs.Load(ctx, r.eventID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warnf("forms.renderer.load %s: %s", r.eventID, err)
		}
		r.onDefinition(model.FormDefinition{}, false)
		return
	}
	r.onDefinition(def, true)
}

// Close stops definition deliveries. A delivery already in flight may
// still run; it is discarded by the closed check.
func (r *Renderer) Close() {
	r.mu.Lock()
	r.closed = true
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (r *Renderer) onDefinition(def model.FormDefinition, exists bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	fields := make([]model.FieldDefinition, len(def.Fields))
	copy(fields, def.Fields)
	for i := range fields {
		if fields[i].ID == "" {
			fields[i].ID = fmt.Sprintf("f_%d", i)
		}
	}
	r.fields = fields
	r.exists = exists

	if r.state == StateSubmitting {
		// keep the in-flight submit's view; Submit re-derives on completion
		return
	}
	r.state = r.deriveState()
}

// deriveState maps the current definition onto a settled state. Callers
// hold r.mu.
func (r *Renderer) deriveState() State {
	if !r.exists || len(r.fields) == 0 {
		return StateEmpty
	}
	return StateReady
}

func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Renderer) Fields() []model.FieldDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()
	fields := make([]model.FieldDefinition, len(r.fields))
	copy(fields, r.fields)
	return fields
}

// DisplayOptions returns the options to render for a choice field,
// substituting placeholders when the persisted list is empty.
func DisplayOptions(f model.FieldDefinition) []string {
	if !f.Type.HasOptions() {
		return nil
	}
	if len(f.Options) == 0 {
		return placeholderOptions
	}
	return f.Options
}

// Event returns the metadata fetched for public display.
func (r *Renderer) Event() (model.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.event == nil {
		return model.Event{}, false
	}
	return *r.event, true
}

// SetValue captures a scalar value; changing a field clears its error.
func (r *Renderer) SetValue(label string, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[label] = value
	delete(r.fieldErrs, label)
}

// SetChecked toggles one option of a checkbox group.
func (r *Renderer) SetChecked(label, option string, checked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	selected := model.StringSlice(r.values[label])
	next := make([]string, 0, len(selected)+1)
	for _, s := range selected {
		if s != option {
			next = append(next, s)
		}
	}
	if checked {
		next = append(next, option)
	}
	r.values[label] = next
	delete(r.fieldErrs, label)
}

func (r *Renderer) SetConsent(accepted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consent = accepted
}

// Values returns a snapshot of the captured values.
func (r *Renderer) Values() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyValues(r.values)
}

// FieldErrors returns the per-field errors of the last failed submit.
func (r *Renderer) FieldErrors() model.FieldErrors {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := model.FieldErrors{}
	for label, tag := range r.fieldErrs {
		errs[label] = tag
	}
	return errs
}

// Submit validates the captured values and appends one submission.
// Required checks run first, then the public-mode consent gate, then
// format checks; any failure aborts without writing. On success the
// values and the consent flag are cleared so the session can take
// another entry. There is no duplicate guard: two rapid submits create
// two records.
func (r *Renderer) Submit(ctx context.Context) (model.Submission, error) {
	r.mu.Lock()
	if r.state == StateEmpty || r.state == StateLoading {
		r.mu.Unlock()
		return model.Submission{}, ErrNoForm
	}
	r.state = StateSubmitting
	fields := r.fields
	values := copyValues(r.values)
	consent := r.consent
	r.mu.Unlock()

	abort := func(err error, fieldErrs model.FieldErrors) (model.Submission, error) {
		r.mu.Lock()
		r.state = r.deriveState()
		if fieldErrs != nil {
			r.fieldErrs = fieldErrs
		}
		r.mu.Unlock()
		return model.Submission{}, err
	}

	if errs := model.ValidateRequired(fields, values); len(errs) > 0 {
		return abort(&ValidationError{Fields: errs}, errs)
	}
	if r.mode == model.ModePublic && !consent {
		return abort(ErrConsentRequired, nil)
	}
	if errs := model.ValidateFormat(fields, values); len(errs) > 0 {
		return abort(&ValidationError{Fields: errs}, errs)
	}

	sub := model.Submission{
		EventID:      r.eventID,
		Values:       normalizeValues(fields, values),
		Mode:         r.mode,
		GDPRAccepted: true,
	}
	if r.mode == model.ModeInternal {
		sub.SubmittedByUID = r.identity.CurrentUID()
	}

	id, err := r.subs.Append(ctx, sub)
	if err != nil {
		return abort(&PersistenceError{Op: "append submission", Err: err}, nil)
	}
	sub.ID = id

	r.mu.Lock()
	// a definition update delivered while submitting may have emptied
	// the field list; the session must not stay submittable then
	r.state = r.deriveState()
	r.values = map[string]any{}
	r.fieldErrs = model.FieldErrors{}
	r.consent = false
	r.mu.Unlock()

	return sub, nil
}

// normalizeValues orders checkbox selections by the field's option list,
// so stored order is deterministic regardless of click order.
func normalizeValues(fields []model.FieldDefinition, values map[string]any) map[string]any {
	for _, f := range fields {
		if f.Type != model.FieldCheckbox {
			continue
		}
		selected := model.StringSlice(values[f.Label])
		if selected == nil {
			continue
		}
		picked := make(map[string]bool, len(selected))
		for _, s := range selected {
			picked[s] = true
		}
		ordered := make([]string, 0, len(selected))
		for _, opt := range f.Options {
			if picked[opt] {
				ordered = append(ordered, opt)
				delete(picked, opt)
			}
		}
		// selections outside the option list keep their click order
		for _, s := range selected {
			if picked[s] {
				ordered = append(ordered, s)
			}
		}
		values[f.Label] = ordered
	}
	return values
}

func copyValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
