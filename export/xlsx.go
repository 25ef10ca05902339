package export

import (
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/past0101/gstravel/log"
	"github.com/past0101/gstravel/model"
)

// Fixed leading columns of every export, before the form's own columns.
var baseColumns = []string{"Ημ/νία", "Προέλευση", "GDPR", "Χρήστης"}

// Workbook builds one spreadsheet of an event's submissions. Value
// columns are the union of captured keys in first-seen order; array
// values are joined with "; ". Phone-typed values are normalized to
// E.164 when they parse, otherwise exported as entered.
func Workbook(event model.Event, fields []model.FieldDefinition, subs []model.Submission) (*excelize.File, error) {
	phoneLabels := map[string]bool{}
	for _, f := range fields {
		if f.Type == model.FieldPhone {
			phoneLabels[f.Label] = true
		}
	}

	columns := valueColumns(subs)

	f := excelize.NewFile()
	sheet := sheetName(event)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := append(append([]string{}, baseColumns...), columns...)
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}

	for row, sub := range subs {
		record := []string{
			sub.SubmittedAt.Local().Format("02/01/2006 15:04"),
			string(sub.Mode),
			greekBool(sub.GDPRAccepted),
			orDash(sub.SubmittedByUID),
		}
		for _, label := range columns {
			record = append(record, cellValue(sub.Values[label], phoneLabels[label]))
		}

		for col, value := range record {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

// valueColumns returns the union of value keys across submissions, in
// the order they are first seen. Keys introduced by the same submission
// are sorted alphabetically, since map iteration order is random.
func valueColumns(subs []model.Submission) []string {
	ordered := []string{}
	added := map[string]bool{}
	for _, sub := range subs {
		batch := []string{}
		for label := range sub.Values {
			if !added[label] {
				added[label] = true
				batch = append(batch, label)
			}
		}
		sort.Strings(batch)
		ordered = append(ordered, batch...)
	}
	return ordered
}

func cellValue(v any, phone bool) string {
	if list := model.StringSlice(v); list != nil {
		return strings.Join(list, "; ")
	}
	s := model.StringValue(v)
	if phone && s != "" {
		if normalized, err := model.NormalizePhone(s); err == nil {
			return normalized
		}
		log.Debugf("export.phone: keeping raw value %q", s)
	}
	return s
}

func greekBool(b bool) string {
	if b {
		return "Ναι"
	}
	return "Όχι"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var sheetNameSanitizer = strings.NewReplacer(
	"[", "", "]", "", ":", "", "*", "", "?", "", "/", "-", "\\", "-",
)

func sheetName(event model.Event) string {
	name := sheetNameSanitizer.Replace(event.Name)
	if name == "" {
		name = "Υποβολές"
	}
	if len([]rune(name)) > 31 {
		name = string([]rune(name)[:31])
	}
	return name
}
