package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofrs/uuid"

	"github.com/past0101/gstravel/log"
)

// SQLite stores documents as JSON bodies in a single table, keyed by
// (collection, key). Every successful write reloads the collection and
// publishes the snapshot through the hub.
type SQLite struct {
	db  *sql.DB
	hub *Hub
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, hub: NewHub()}
}

var _ Store = (*SQLite)(nil)

func (s *SQLite) GetByKey(ctx context.Context, collection, key string) (Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM document
		WHERE collection = ? AND key = ?`,
		collection, key,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc := Document{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLite) SetByKey(ctx context.Context, collection, key string, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO document (collection, key, body, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, key)
		DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		collection, key, string(body), time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	s.notify(collection)
	return nil
}

func (s *SQLite) Add(ctx context.Context, collection string, doc Document) (string, error) {
	key := uuid.Must(uuid.NewV4()).String()
	if err := s.SetByKey(ctx, collection, key, doc); err != nil {
		return "", err
	}
	return key, nil
}

func (s *SQLite) DeleteByKey(ctx context.Context, collection, key string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM document
		WHERE collection = ? AND key = ?`,
		collection, key,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n < 1 {
		return ErrNotFound
	}

	s.notify(collection)
	return nil
}

func (s *SQLite) List(ctx context.Context, collection string) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, body FROM document
		WHERE collection = ?
		ORDER BY rowid`,
		collection,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := Snapshot{}
	for rows.Next() {
		var key, body string
		if err := rows.Scan(&key, &body); err != nil {
			return nil, err
		}
		doc := Document{}
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, err
		}
		snap = append(snap, KeyedDocument{Key: key, Doc: doc})
	}
	return snap, rows.Err()
}

// Subscribe delivers the current snapshot first, then one snapshot per
// subsequent write to the collection.
func (s *SQLite) Subscribe(collection string, fn func(Snapshot)) CancelFunc {
	return s.hub.SubscribeWithInitial(collection, func() Snapshot {
		snap, err := s.List(context.Background(), collection)
		if err != nil {
			log.Errorf("store.subscribe.%s: %s", collection, err)
			return Snapshot{}
		}
		return snap
	}, fn)
}

func (s *SQLite) notify(collection string) {
	snap, err := s.List(context.Background(), collection)
	if err != nil {
		log.Errorf("store.notify.%s: %s", collection, err)
		return
	}
	s.hub.Publish(collection, snap)
}
