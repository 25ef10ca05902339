package model

import "time"

// FieldType is the fixed catalog of input types a form field can take.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldSelect   FieldType = "select"
	FieldDate     FieldType = "date"
	FieldPhone    FieldType = "phone"
	FieldEmail    FieldType = "email"
)

// FieldTypes lists every known field type in presentation order.
var FieldTypes = []FieldType{
	FieldText, FieldNumber, FieldRadio, FieldCheckbox,
	FieldSelect, FieldDate, FieldPhone, FieldEmail,
}

func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether the type carries an option list.
func (t FieldType) HasOptions() bool {
	return t == FieldRadio || t == FieldCheckbox || t == FieldSelect
}

// FieldDefinition is one question in a form. ID is a transient editing key:
// it keeps list rendering stable while a draft is open and is stripped
// before the definition is persisted. Captured values are keyed by Label.
type FieldDefinition struct {
	ID       string    `json:"id,omitempty"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

// FormDefinition is the full schema of one event's participation form,
// keyed 1:1 by the event id. It is replaced wholesale on every save.
type FormDefinition struct {
	EventID   string            `json:"eventId"`
	Fields    []FieldDefinition `json:"fields"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// SubmissionMode records which channel produced a submission.
type SubmissionMode string

const (
	ModeInternal SubmissionMode = "internal"
	ModePublic   SubmissionMode = "public"
)

// Submission is one completed instance of a form. Values maps field labels
// to a string or, for checkbox groups, a []string.
type Submission struct {
	ID             string         `json:"id,omitempty"`
	EventID        string         `json:"eventId"`
	Values         map[string]any `json:"values"`
	Mode           SubmissionMode `json:"mode"`
	GDPRAccepted   bool           `json:"gdprAccepted"`
	SubmittedByUID string         `json:"submittedByUid,omitempty"`
	SubmittedAt    time.Time      `json:"submittedAt"`
}

// Event is the parent entity a form is attached to. The core only reads
// events; CRUD happens in the admin controller.
type Event struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartDate   string    `json:"startDate,omitempty"`
	EndDate     string    `json:"endDate,omitempty"`
	Location    string    `json:"location,omitempty"`
	Hotel       string    `json:"hotel,omitempty"`
	Link        string    `json:"link,omitempty"`
	PhotoBase64 string    `json:"photoBase64,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// User is a staff account managed through the admin API.
type User struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	Phone       string    `json:"phoneNumber,omitempty"`
	Disabled    bool      `json:"disabled"`
	CreatedAt   time.Time `json:"createdAt"`
}
