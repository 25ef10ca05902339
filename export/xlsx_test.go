package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/past0101/gstravel/model"
)

func TestWorkbookHeaderAndRows(t *testing.T) {
	event := model.Event{ID: "ev1", Name: "Πάρος 2026"}
	fields := []model.FieldDefinition{
		{Label: "Όνομα", Type: model.FieldText, Required: true},
		{Label: "Τηλέφωνο", Type: model.FieldPhone},
		{Label: "Γεύματα", Type: model.FieldCheckbox, Options: []string{"Πρωινό", "Βραδινό"}},
	}
	submitted := time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC)
	subs := []model.Submission{
		{
			EventID: "ev1",
			Values: map[string]any{
				"Όνομα":    "Γιώργος",
				"Τηλέφωνο": "6971234567",
				"Γεύματα":  []string{"Πρωινό", "Βραδινό"},
			},
			Mode:           model.ModeInternal,
			GDPRAccepted:   true,
			SubmittedByUID: "uid-42",
			SubmittedAt:    submitted,
		},
		{
			EventID:      "ev1",
			Values:       map[string]any{"Όνομα": "Μαρία"},
			Mode:         model.ModePublic,
			GDPRAccepted: true,
			SubmittedAt:  submitted,
		},
	}

	f, err := Workbook(event, fields, subs)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Πάρος 2026")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Ημ/νία", "Προέλευση", "GDPR", "Χρήστης", "Γεύματα", "Όνομα", "Τηλέφωνο"}, rows[0])

	first := rows[1]
	require.Len(t, first, 7)
	assert.Equal(t, "internal", first[1])
	assert.Equal(t, "Ναι", first[2])
	assert.Equal(t, "uid-42", first[3])
	assert.Equal(t, "Πρωινό; Βραδινό", first[4])
	assert.Equal(t, "Γιώργος", first[5])
	assert.Equal(t, "+306971234567", first[6])

	second := rows[2]
	assert.Equal(t, "public", second[1])
	assert.Equal(t, "-", second[3])
	assert.Equal(t, "Μαρία", second[5])
}

func TestValueColumnsFirstSeenOrder(t *testing.T) {
	subs := []model.Submission{
		{Values: map[string]any{"b": "1", "a": "2"}},
		{Values: map[string]any{"c": "3", "a": "4"}},
	}
	assert.Equal(t, []string{"a", "b", "c"}, valueColumns(subs))
}

func TestCellValueKeepsUnparsablePhones(t *testing.T) {
	assert.Equal(t, "abc", cellValue("abc", true))
	assert.Equal(t, "+306971234567", cellValue("697 123 4567", true))
	assert.Equal(t, "plain", cellValue("plain", false))
	assert.Equal(t, "A; B", cellValue([]any{"A", "B"}, true))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Πάρος 2026", sheetName(model.Event{Name: "Πάρος 2026"}))
	assert.Equal(t, "Πάρος-Νάξος", sheetName(model.Event{Name: "Πάρος/Νάξος"}))
	assert.Equal(t, "Υποβολές", sheetName(model.Event{Name: ""}))

	long := model.Event{Name: "Εκδρομή με πολύ μεγάλο όνομα που δεν χωράει"}
	assert.Len(t, []rune(sheetName(long)), 31)
}
