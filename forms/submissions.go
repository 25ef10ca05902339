package forms

import (
	"context"
	"sort"
	"time"

	"github.com/past0101/gstravel/log"
	"github.com/past0101/gstravel/model"
	"github.com/past0101/gstravel/store"
)

// SubmissionStore persists completed forms. The renderer only appends;
// edits and deletions come from the submission list view as independent,
// uncoordinated writes.
type SubmissionStore struct {
	docs store.Store
}

func NewSubmissionStore(docs store.Store) *SubmissionStore {
	return &SubmissionStore{docs: docs}
}

// Append writes one submission and stamps SubmittedAt.
func (s *SubmissionStore) Append(ctx context.Context, sub model.Submission) (string, error) {
	sub.ID = ""
	sub.SubmittedAt = time.Now().UTC()

	doc, err := toDocument(sub)
	if err != nil {
		return "", err
	}
	return s.docs.Add(ctx, store.EventSubmissions, doc)
}

// ListByEvent returns an event's submissions, newest first.
func (s *SubmissionStore) ListByEvent(ctx context.Context, eventID string) ([]model.Submission, error) {
	snap, err := s.docs.List(ctx, store.EventSubmissions)
	if err != nil {
		return nil, err
	}

	subs := []model.Submission{}
	for _, kd := range snap {
		var sub model.Submission
		if err := fromDocument(kd.Doc, &sub); err != nil {
			log.Warnf("forms.submissions.decode %s: %s", kd.Key, err)
			continue
		}
		if sub.EventID != eventID {
			continue
		}
		sub.ID = kd.Key
		subs = append(subs, sub)
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].SubmittedAt.After(subs[j].SubmittedAt)
	})
	return subs, nil
}

// UpdateValues replaces the captured values of one submission, preserving
// its provenance fields. This is the list view's direct-edit path.
func (s *SubmissionStore) UpdateValues(ctx context.Context, id string, values map[string]any) error {
	doc, err := s.docs.GetByKey(ctx, store.EventSubmissions, id)
	if err != nil {
		return err
	}
	doc["values"] = values
	return s.docs.SetByKey(ctx, store.EventSubmissions, id, doc)
}

func (s *SubmissionStore) Delete(ctx context.Context, id string) error {
	return s.docs.DeleteByKey(ctx, store.EventSubmissions, id)
}
