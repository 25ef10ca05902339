package forms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/past0101/gstravel/model"
	"github.com/past0101/gstravel/store"
)

type staticIdentity string

func (id staticIdentity) CurrentUID() string { return string(id) }

type rendererFixture struct {
	docs *store.Memory
	defs *DefinitionStore
	subs *SubmissionStore
	evs  *EventStore
}

func newRendererFixture(t *testing.T) *rendererFixture {
	t.Helper()
	docs := store.NewMemory()
	return &rendererFixture{
		docs: docs,
		defs: NewDefinitionStore(docs),
		subs: NewSubmissionStore(docs),
		evs:  NewEventStore(docs),
	}
}

func (fx *rendererFixture) saveForm(t *testing.T, eventID string, fields ...model.FieldDefinition) {
	t.Helper()
	require.NoError(t, fx.defs.Save(context.Background(), eventID, fields))
}

func (fx *rendererFixture) open(eventID string, mode model.SubmissionMode, id Identity) *Renderer {
	r := NewRenderer(fx.defs, fx.subs, fx.evs, eventID, mode, id)
	r.Load(context.Background())
	return r
}

func (fx *rendererFixture) submissions(t *testing.T, eventID string) []model.Submission {
	t.Helper()
	subs, err := fx.subs.ListByEvent(context.Background(), eventID)
	require.NoError(t, err)
	return subs
}

func TestRendererEmptyStates(t *testing.T) {
	fx := newRendererFixture(t)
	ctx := context.Background()

	// no definition at all
	r := fx.open("ev1", model.ModeInternal, nil)
	assert.Equal(t, StateEmpty, r.State())
	_, err := r.Submit(ctx)
	assert.ErrorIs(t, err, ErrNoForm)

	// a definition with zero fields renders the same
	fx.saveForm(t, "ev2")
	r = fx.open("ev2", model.ModeInternal, nil)
	assert.Equal(t, StateEmpty, r.State())
	_, err = r.Submit(ctx)
	assert.ErrorIs(t, err, ErrNoForm)

	assert.Empty(t, fx.submissions(t, "ev1"))
	assert.Empty(t, fx.submissions(t, "ev2"))
}

func TestRendererRequiredBlocksSubmit(t *testing.T) {
	fx := newRendererFixture(t)
	fx.saveForm(t, "ev1",
		model.FieldDefinition{Label: "Όνομα", Type: model.FieldText, Required: true},
		model.FieldDefinition{Label: "Σχόλια", Type: model.FieldText},
	)

	r := fx.open("ev1", model.ModeInternal, nil)
	require.Equal(t, StateReady, r.State())

	_, err := r.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, model.ErrMissing, verr.Fields["Όνομα"])
	assert.NotContains(t, verr.Fields, "Σχόλια")

	assert.Empty(t, fx.submissions(t, "ev1"))
	assert.Equal(t, StateReady, r.State())
	assert.Equal(t, model.ErrMissing, r.FieldErrors()["Όνομα"])

	// editing the field clears its error
	r.SetValue("Όνομα", "Γιώργος")
	assert.NotContains(t, r.FieldErrors(), "Όνομα")
}

func TestRendererFormatChecksIgnoreRequired(t *testing.T) {
	fx := newRendererFixture(t)
	fx.saveForm(t, "ev1",
		model.FieldDefinition{Label: "Email", Type: model.FieldEmail},
		model.FieldDefinition{Label: "Τηλέφωνο", Type: model.FieldPhone},
	)

	r := fx.open("ev1", model.ModeInternal, nil)

	// optional fields left empty pass
	sub, err := r.Submit(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)

	// a present value on an optional field is still format-checked
	r.SetValue("Email", "not-an-email")
	_, err = r.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, model.ErrInvalidFormat, verr.Fields["Email"])

	r.SetValue("Email", "giorgos@example.gr")
	r.SetValue("Τηλέφωνο", "abc")
	_, err = r.Submit(context.Background())
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, model.ErrInvalidFormat, verr.Fields["Τηλέφωνο"])
	assert.NotContains(t, verr.Fields, "Email")

	r.SetValue("Τηλέφωνο", "+30 697 123 4567")
	_, err = r.Submit(context.Background())
	assert.NoError(t, err)

	assert.Len(t, fx.submissions(t, "ev1"), 2)
}

func TestRendererConsentGatePublicMode(t *testing.T) {
	fx := newRendererFixture(t)
	fx.saveForm(t, "ev1", model.FieldDefinition{Label: "Όνομα", Type: model.FieldText, Required: true})

	r := fx.open("ev1", model.ModePublic, nil)
	r.SetValue("Όνομα", "Μαρία")

	_, err := r.Submit(context.Background())
	assert.ErrorIs(t, err, ErrConsentRequired)
	assert.Empty(t, fx.submissions(t, "ev1"))

	r.SetConsent(true)
	sub, err := r.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, sub.GDPRAccepted)
	assert.Equal(t, model.ModePublic, sub.Mode)
	assert.Empty(t, sub.SubmittedByUID)

	// consent does not carry over to the next entry
	r.SetValue("Όνομα", "Ελένη")
	_, err = r.Submit(context.Background())
	assert.ErrorIs(t, err, ErrConsentRequired)
}

func TestRendererInternalModeNoConsent(t *testing.T) {
	fx := newRendererFixture(t)
	fx.saveForm(t, "ev1", model.FieldDefinition{Label: "Όνομα", Type: model.FieldText, Required: true})

	r := fx.open("ev1", model.ModeInternal, staticIdentity("uid-42"))
	r.SetValue("Όνομα", "Γιώργος")

	sub, err := r.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.ModeInternal, sub.Mode)
	assert.Equal(t, "uid-42", sub.SubmittedByUID)
	assert.True(t, sub.GDPRAccepted)
}

func TestRendererCheckboxOrderFollowsOptions(t *testing.T) {
	fx := newRendererFixture(t)
	fx.saveForm(t, "ev1", model.FieldDefinition{
		Label:   "Γεύματα",
		Type:    model.FieldCheckbox,
		Options: []string{"A", "B", "C"},
	})

	r := fx.open("ev1", model.ModeInternal, nil)
	r.SetChecked("Γεύματα", "C", true)
	r.SetChecked("Γεύματα", "A", true)

	sub, err := r.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, sub.Values["Γεύματα"])

	stored := fx.submissions(t, "ev1")
	require.Len(t, stored, 1)
	assert.Equal(t, []string{"A", "C"}, model.StringSlice(stored[0].Values["Γεύματα"]))
}

func TestRendererUncheckRemovesSelection(t *testing.T) {
	fx := newRendererFixture(t)
	fx.saveForm(t, "ev1", model.FieldDefinition{
		Label:    "Γεύματα",
		Type:     model.FieldCheckbox,
		Required: true,
		Options:  []string{"A", "B"},
	})

	r := fx.open("ev1", model.ModeInternal, nil)
	r.SetChecked("Γεύματα", "A", true)
	r.SetChecked("Γεύματα", "A", false)

	_, err := r.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, model.ErrChooseAtLeastOne, verr.Fields["Γεύματα"])
}

func TestRendererSuccessfulSubmitClearsSession(t *testing.T) {
	fx := newRendererFixture(t)
	fx.saveForm(t, "ev1", model.FieldDefinition{Label: "Όνομα", Type: model.FieldText, Required: true})

	r := fx.open("ev1", model.ModeInternal, nil)
	r.SetValue("Όνομα", "Γιώργος")

	_, err := r.Submit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, r.Values())
	assert.Equal(t, StateReady, r.State())

	// a second submit of the now-empty session fails required again
	_, err = r.Submit(context.Background())
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Len(t, fx.submissions(t, "ev1"), 1)
}

func TestRendererNoDuplicateGuard(t *testing.T) {
	fx := newRendererFixture(t)
	fx.saveForm(t, "ev1", model.FieldDefinition{Label: "Όνομα", Type: model.FieldText, Required: true})

	r := fx.open("ev1", model.ModeInternal, nil)
	for i := 0; i < 2; i++ {
		r.SetValue("Όνομα", "Γιώργος")
		_, err := r.Submit(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, fx.submissions(t, "ev1"), 2)
}

func TestRendererFailedAppendKeepsValues(t *testing.T) {
	fx := newRendererFixture(t)
	fx.saveForm(t, "ev1", model.FieldDefinition{Label: "Όνομα", Type: model.FieldText, Required: true})

	r := fx.open("ev1", model.ModeInternal, nil)
	r.SetValue("Όνομα", "Γιώργος")

	fx.docs.FailWrites = assert.AnError
	_, err := r.Submit(context.Background())
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Γιώργος", r.Values()["Όνομα"])

	fx.docs.FailWrites = nil
	_, err = r.Submit(context.Background())
	require.NoError(t, err)
}

func waitForState(t *testing.T, r *Renderer, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state never became %s, still %s", want, r.State())
}

func TestRendererLiveDefinitionUpdates(t *testing.T) {
	fx := newRendererFixture(t)
	ctx := context.Background()

	r := NewRenderer(fx.defs, fx.subs, fx.evs, "ev1", model.ModeInternal, nil)
	r.Start(ctx)
	defer r.Close()

	// no definition yet
	waitForState(t, r, StateEmpty)

	// a save re-renders the session without reloading
	fx.saveForm(t, "ev1", model.FieldDefinition{Label: "Όνομα", Type: model.FieldText, Required: true})
	waitForState(t, r, StateReady)
	require.Len(t, r.Fields(), 1)
	assert.Equal(t, "Όνομα", r.Fields()[0].Label)

	// deleting the definition takes the session back to the empty state
	require.NoError(t, fx.defs.Delete(ctx, "ev1"))
	waitForState(t, r, StateEmpty)
	_, err := r.Submit(ctx)
	assert.ErrorIs(t, err, ErrNoForm)
}

func TestRendererCloseStopsDeliveries(t *testing.T) {
	fx := newRendererFixture(t)
	ctx := context.Background()

	r := NewRenderer(fx.defs, fx.subs, fx.evs, "ev1", model.ModeInternal, nil)
	r.Start(ctx)
	waitForState(t, r, StateEmpty)
	r.Close()

	fx.saveForm(t, "ev1", model.FieldDefinition{Label: "Όνομα", Type: model.FieldText})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateEmpty, r.State())
	assert.Empty(t, r.Fields())
}

// gatedSubmissions holds every Add until the gate opens, so a test can
// interleave a definition update with an in-flight submit.
type gatedSubmissions struct {
	*store.Memory
	gate chan struct{}
}

func (g *gatedSubmissions) Add(ctx context.Context, collection string, doc store.Document) (string, error) {
	<-g.gate
	return g.Memory.Add(ctx, collection, doc)
}

func TestRendererDefinitionRemovedDuringSubmit(t *testing.T) {
	fx := newRendererFixture(t)
	ctx := context.Background()
	fx.saveForm(t, "ev1", model.FieldDefinition{Label: "Όνομα", Type: model.FieldText, Required: true})

	gated := &gatedSubmissions{Memory: store.NewMemory(), gate: make(chan struct{})}
	subs := NewSubmissionStore(gated)

	r := NewRenderer(fx.defs, subs, fx.evs, "ev1", model.ModeInternal, nil)
	r.Start(ctx)
	defer r.Close()
	waitForState(t, r, StateReady)

	r.SetValue("Όνομα", "Γιώργος")
	done := make(chan error, 1)
	go func() {
		_, err := r.Submit(ctx)
		done <- err
	}()
	waitForState(t, r, StateSubmitting)

	// the form is deleted while the append is in flight
	require.NoError(t, fx.defs.Delete(ctx, "ev1"))
	deadline := time.Now().Add(2 * time.Second)
	for len(r.Fields()) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("definition removal never delivered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(gated.gate)
	require.NoError(t, <-done)

	// the session must land in the empty state, with no submit path left
	assert.Equal(t, StateEmpty, r.State())
	_, err := r.Submit(ctx)
	assert.ErrorIs(t, err, ErrNoForm)

	stored, err := subs.ListByEvent(ctx, "ev1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestDisplayOptionsPlaceholders(t *testing.T) {
	radio := model.FieldDefinition{Type: model.FieldRadio}
	assert.Equal(t, []string{"Επιλογή 1", "Επιλογή 2"}, DisplayOptions(radio))

	radio.Options = []string{"Πάρος"}
	assert.Equal(t, []string{"Πάρος"}, DisplayOptions(radio))

	text := model.FieldDefinition{Type: model.FieldText}
	assert.Nil(t, DisplayOptions(text))
}
