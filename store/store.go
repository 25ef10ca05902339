package store

import (
	"context"
	"errors"
)

// Collections used by the application. Form definitions share their key
// with the event they belong to; submissions are auto-keyed.
const (
	Events           = "events"
	EventForms       = "eventForms"
	EventSubmissions = "eventSubmissions"
)

var ErrNotFound = errors.New("store: document not found")

// Document is a schema-less record body.
type Document map[string]any

// KeyedDocument pairs a document with its collection key.
type KeyedDocument struct {
	Key string
	Doc Document
}

// Snapshot is the full content of one collection at a point in time,
// in insertion order.
type Snapshot []KeyedDocument

// CancelFunc tears down a subscription. Deliveries already in flight may
// still reach the callback after it returns; subscribers guard their own
// liveness.
type CancelFunc func()

// Store is the document datastore contract. Writes are full replaces with
// last-writer-wins semantics; every successful write re-publishes the
// collection snapshot to its subscribers, in write order per subscription.
type Store interface {
	GetByKey(ctx context.Context, collection, key string) (Document, error)
	SetByKey(ctx context.Context, collection, key string, doc Document) error
	Add(ctx context.Context, collection string, doc Document) (key string, err error)
	DeleteByKey(ctx context.Context, collection, key string) error
	List(ctx context.Context, collection string) (Snapshot, error)
	Subscribe(collection string, fn func(Snapshot)) CancelFunc
}
