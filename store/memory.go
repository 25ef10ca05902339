package store

import (
	"context"
	"sync"

	"github.com/gofrs/uuid"
)

// Memory is a map-backed Store with the same snapshot and subscription
// semantics as the SQLite implementation. Package tests use it as the
// document datastore collaborator.
type Memory struct {
	mu    sync.Mutex
	docs  map[string]map[string]Document
	order map[string][]string
	hub   *Hub

	// FailWrites makes every write return this error, for exercising
	// persistence failure paths.
	FailWrites error
}

func NewMemory() *Memory {
	return &Memory{
		docs:  map[string]map[string]Document{},
		order: map[string][]string{},
		hub:   NewHub(),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) GetByKey(_ context.Context, collection, key string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(doc), nil
}

func (m *Memory) SetByKey(_ context.Context, collection, key string, doc Document) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}

	m.mu.Lock()
	if m.docs[collection] == nil {
		m.docs[collection] = map[string]Document{}
	}
	if _, exists := m.docs[collection][key]; !exists {
		m.order[collection] = append(m.order[collection], key)
	}
	m.docs[collection][key] = cloneDoc(doc)
	snap := m.snapshot(collection)
	m.mu.Unlock()

	m.hub.Publish(collection, snap)
	return nil
}

func (m *Memory) Add(ctx context.Context, collection string, doc Document) (string, error) {
	key := uuid.Must(uuid.NewV4()).String()
	if err := m.SetByKey(ctx, collection, key, doc); err != nil {
		return "", err
	}
	return key, nil
}

func (m *Memory) DeleteByKey(_ context.Context, collection, key string) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}

	m.mu.Lock()
	if _, ok := m.docs[collection][key]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.docs[collection], key)
	keys := m.order[collection]
	for i, k := range keys {
		if k == key {
			m.order[collection] = append(keys[:i:i], keys[i+1:]...)
			break
		}
	}
	snap := m.snapshot(collection)
	m.mu.Unlock()

	m.hub.Publish(collection, snap)
	return nil
}

func (m *Memory) List(_ context.Context, collection string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(collection), nil
}

func (m *Memory) Subscribe(collection string, fn func(Snapshot)) CancelFunc {
	return m.hub.SubscribeWithInitial(collection, func() Snapshot {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.snapshot(collection)
	}, fn)
}

func (m *Memory) snapshot(collection string) Snapshot {
	snap := Snapshot{}
	for _, key := range m.order[collection] {
		snap = append(snap, KeyedDocument{Key: key, Doc: cloneDoc(m.docs[collection][key])})
	}
	return snap
}

func cloneDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
