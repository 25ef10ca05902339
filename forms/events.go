package forms

import (
	"context"
	"sort"
	"time"

	"github.com/past0101/gstravel/log"
	"github.com/past0101/gstravel/model"
	"github.com/past0101/gstravel/store"
)

// EventStore reads and writes event metadata documents. The form core
// only reads events (public rendering shows name, dates, location);
// CRUD is dashboard glue. Deleting an event does not touch its form
// definition or submissions, so dangling definitions are possible.
type EventStore struct {
	docs store.Store
}

func NewEventStore(docs store.Store) *EventStore {
	return &EventStore{docs: docs}
}

func (s *EventStore) Get(ctx context.Context, id string) (model.Event, error) {
	doc, err := s.docs.GetByKey(ctx, store.Events, id)
	if err != nil {
		return model.Event{}, err
	}

	var ev model.Event
	if err := fromDocument(doc, &ev); err != nil {
		return model.Event{}, err
	}
	ev.ID = id
	return ev, nil
}

// List returns all events, newest first.
func (s *EventStore) List(ctx context.Context) ([]model.Event, error) {
	snap, err := s.docs.List(ctx, store.Events)
	if err != nil {
		return nil, err
	}

	events := []model.Event{}
	for _, kd := range snap {
		var ev model.Event
		if err := fromDocument(kd.Doc, &ev); err != nil {
			log.Warnf("forms.events.decode %s: %s", kd.Key, err)
			continue
		}
		ev.ID = kd.Key
		events = append(events, ev)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

func (s *EventStore) Create(ctx context.Context, ev model.Event) (string, error) {
	ev.ID = ""
	ev.CreatedAt = time.Now().UTC()
	doc, err := toDocument(ev)
	if err != nil {
		return "", err
	}
	return s.docs.Add(ctx, store.Events, doc)
}

// Update replaces the event wholesale, keeping its original CreatedAt.
func (s *EventStore) Update(ctx context.Context, id string, ev model.Event) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	ev.ID = ""
	ev.CreatedAt = current.CreatedAt
	doc, err := toDocument(ev)
	if err != nil {
		return err
	}
	return s.docs.SetByKey(ctx, store.Events, id, doc)
}

func (s *EventStore) Delete(ctx context.Context, id string) error {
	return s.docs.DeleteByKey(ctx, store.Events, id)
}
