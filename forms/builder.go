package forms

import (
	"context"

	"github.com/gofrs/uuid"

	"github.com/past0101/gstravel/model"
)

// Default texts for freshly added fields and options, matching the
// dashboard language.
const (
	defaultFieldLabel = "Νέο πεδίο"
	defaultOption     = "Νέα επιλογή"
)

// Builder edits the ordered field list of one event's form and commits it
// atomically. The draft lives in memory until Save; a failed save keeps
// the draft intact so the operator can retry. Not safe for concurrent
// use: one builder belongs to one editing session.
type Builder struct {
	defs    *DefinitionStore
	eventID string
	fields  []model.FieldDefinition
}

// NewBuilder starts an editing session. Incoming fields keep their ids;
// fields without one get a generated id so list edits stay addressable.
// Re-opening the same definition never reassigns existing ids.
func NewBuilder(defs *DefinitionStore, eventID string, initial []model.FieldDefinition) *Builder {
	fields := make([]model.FieldDefinition, len(initial))
	copy(fields, initial)
	for i := range fields {
		if fields[i].ID == "" {
			fields[i].ID = newFieldID()
		}
	}
	return &Builder{defs: defs, eventID: eventID, fields: fields}
}

func newFieldID() string {
	return uuid.Must(uuid.NewV4()).String()
}

func (b *Builder) EventID() string {
	return b.eventID
}

// SelectEvent retargets the draft to another event.
func (b *Builder) SelectEvent(eventID string) {
	b.eventID = eventID
}

// Fields returns a copy of the current draft.
func (b *Builder) Fields() []model.FieldDefinition {
	fields := make([]model.FieldDefinition, len(b.fields))
	copy(fields, b.fields)
	return fields
}

// AddField appends a new optional text field and returns it.
func (b *Builder) AddField() model.FieldDefinition {
	f := model.FieldDefinition{
		ID:    newFieldID(),
		Label: defaultFieldLabel,
		Type:  model.FieldText,
	}
	b.fields = append(b.fields, f)
	return f
}

// FieldPatch is a partial change to one field; nil members are left
// untouched.
type FieldPatch struct {
	Label    *string
	Type     *model.FieldType
	Required *bool
	Options  *[]string
}

// UpdateField merges a patch into the field with the given id. Unknown
// ids are a no-op.
func (b *Builder) UpdateField(id string, patch FieldPatch) {
	f := b.field(id)
	if f == nil {
		return
	}
	if patch.Label != nil {
		f.Label = *patch.Label
	}
	if patch.Type != nil {
		f.Type = *patch.Type
	}
	if patch.Required != nil {
		f.Required = *patch.Required
	}
	if patch.Options != nil {
		f.Options = append([]string(nil), (*patch.Options)...)
	}
}

// RemoveField deletes the field with the given id. Unknown ids are a
// no-op.
func (b *Builder) RemoveField(id string) {
	for i := range b.fields {
		if b.fields[i].ID == id {
			b.fields = append(b.fields[:i], b.fields[i+1:]...)
			return
		}
	}
}

// AddOption appends a default option to the field's option list.
func (b *Builder) AddOption(id string) {
	if f := b.field(id); f != nil {
		f.Options = append(f.Options, defaultOption)
	}
}

// UpdateOption replaces the option at idx. Out-of-range indexes are a
// silent no-op.
func (b *Builder) UpdateOption(id string, idx int, value string) {
	f := b.field(id)
	if f == nil || idx < 0 || idx >= len(f.Options) {
		return
	}
	f.Options[idx] = value
}

// RemoveOption deletes the option at idx. Out-of-range indexes are a
// silent no-op.
func (b *Builder) RemoveOption(id string, idx int) {
	f := b.field(id)
	if f == nil || idx < 0 || idx >= len(f.Options) {
		return
	}
	f.Options = append(f.Options[:idx], f.Options[idx+1:]...)
}

// Save commits the draft as the event's full definition. The transient
// field ids and empty option strings are stripped before persisting; a
// choice field may legitimately persist an empty option list. The draft
// is kept on failure.
func (b *Builder) Save(ctx context.Context) error {
	if b.eventID == "" {
		return ErrNoEventSelected
	}

	fields := make([]model.FieldDefinition, 0, len(b.fields))
	for _, f := range b.fields {
		options := make([]string, 0, len(f.Options))
		for _, opt := range f.Options {
			if opt != "" {
				options = append(options, opt)
			}
		}
		fields = append(fields, model.FieldDefinition{
			Label:    f.Label,
			Type:     f.Type,
			Required: f.Required,
			Options:  options,
		})
	}

	if err := b.defs.Save(ctx, b.eventID, fields); err != nil {
		return &PersistenceError{Op: "save form definition", Err: err}
	}
	return nil
}

func (b *Builder) field(id string) *model.FieldDefinition {
	for i := range b.fields {
		if b.fields[i].ID == id {
			return &b.fields[i]
		}
	}
	return nil
}
