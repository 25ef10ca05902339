package forms

import (
	"encoding/json"

	"github.com/past0101/gstravel/store"
)

// Documents are schema-less maps; typed values go through a JSON round
// trip in both directions.

func toDocument(v any) (store.Document, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := store.Document{}
	err = json.Unmarshal(body, &doc)
	return doc, err
}

func fromDocument(doc store.Document, v any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
