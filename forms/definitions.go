package forms

import (
	"context"
	"time"

	"github.com/past0101/gstravel/log"
	"github.com/past0101/gstravel/model"
	"github.com/past0101/gstravel/store"
)

// DefinitionStore persists form definitions, one per event, keyed by the
// event id. Saves replace the whole definition; concurrent saves for the
// same event are last-writer-wins with no conflict detection.
type DefinitionStore struct {
	docs store.Store
}

func NewDefinitionStore(docs store.Store) *DefinitionStore {
	return &DefinitionStore{docs: docs}
}

// Load returns the definition for an event, or store.ErrNotFound when no
// form is configured. Absence is a common, valid state.
func (s *DefinitionStore) Load(ctx context.Context, eventID string) (model.FormDefinition, error) {
	doc, err := s.docs.GetByKey(ctx, store.EventForms, eventID)
	if err != nil {
		return model.FormDefinition{}, err
	}

	var def model.FormDefinition
	if err := fromDocument(doc, &def); err != nil {
		return model.FormDefinition{}, err
	}
	def.EventID = eventID
	return def, nil
}

// Save replaces the event's definition wholesale and stamps UpdatedAt.
func (s *DefinitionStore) Save(ctx context.Context, eventID string, fields []model.FieldDefinition) error {
	def := model.FormDefinition{
		EventID:   eventID,
		Fields:    fields,
		UpdatedAt: time.Now().UTC(),
	}
	if def.Fields == nil {
		def.Fields = []model.FieldDefinition{}
	}

	doc, err := toDocument(def)
	if err != nil {
		return err
	}
	return s.docs.SetByKey(ctx, store.EventForms, eventID, doc)
}

func (s *DefinitionStore) Delete(ctx context.Context, eventID string) error {
	return s.docs.DeleteByKey(ctx, store.EventForms, eventID)
}

// Subscribe delivers the full definition collection, keyed by event id, on
// every change. Used for the "has a form" indicators next to events.
func (s *DefinitionStore) Subscribe(fn func(map[string]model.FormDefinition)) store.CancelFunc {
	return s.docs.Subscribe(store.EventForms, func(snap store.Snapshot) {
		defs := make(map[string]model.FormDefinition, len(snap))
		for _, kd := range snap {
			var def model.FormDefinition
			if err := fromDocument(kd.Doc, &def); err != nil {
				log.Warnf("forms.definitions.decode %s: %s", kd.Key, err)
				continue
			}
			def.EventID = kd.Key
			defs[kd.Key] = def
		}
		fn(defs)
	})
}

// SubscribeEvent narrows the subscription to one event. exists is false
// while no definition is stored for it.
func (s *DefinitionStore) SubscribeEvent(eventID string, fn func(def model.FormDefinition, exists bool)) store.CancelFunc {
	return s.Subscribe(func(defs map[string]model.FormDefinition) {
		def, ok := defs[eventID]
		fn(def, ok)
	})
}
