package model

// Field identifies one of the ten positional fields of a Record.
type Field int

const (
	FieldTitle Field = iota
	FieldDetails
	FieldFile
	FieldStatus
	FieldStage
	FieldSource
	FieldCreateAt
	FieldSentBy
	FieldSentTo
	FieldCustomResponse

	// NumFields is the fixed arity of a Record.
	NumFields
)

var fieldKeys = [NumFields]string{
	"title", "details", "file", "status", "stage",
	"source", "createAt", "sentBy", "sentTo", "customResponse",
}

var fieldHeaders = [NumFields]string{
	"Title", "Details", "File", "Status", "Stage",
	"Source", "Create at", "Sent by", "Sent to", "Custom response",
}

// String returns the field's JSON key.
func (f Field) String() string {
	if f < 0 || f >= NumFields {
		return "unknown"
	}
	return fieldKeys[f]
}

// Header returns the column title used by tabular output.
func (f Field) Header() string {
	if f < 0 || f >= NumFields {
		return ""
	}
	return fieldHeaders[f]
}

// Record is one logical record recovered from the export.
// All ten fields are always present; a missing value is the empty string.
type Record struct {
	Title          string `json:"title"`
	Details        string `json:"details"`
	File           string `json:"file"`
	Status         string `json:"status"`
	Stage          string `json:"stage"` // never populated by this export
	Source         string `json:"source"`
	CreateAt       string `json:"createAt"`
	SentBy         string `json:"sentBy"`
	SentTo         string `json:"sentTo"`
	CustomResponse string `json:"customResponse"`
}

// Get returns the value of field f.
func (r Record) Get(f Field) string {
	switch f {
	case FieldTitle:
		return r.Title
	case FieldDetails:
		return r.Details
	case FieldFile:
		return r.File
	case FieldStatus:
		return r.Status
	case FieldStage:
		return r.Stage
	case FieldSource:
		return r.Source
	case FieldCreateAt:
		return r.CreateAt
	case FieldSentBy:
		return r.SentBy
	case FieldSentTo:
		return r.SentTo
	case FieldCustomResponse:
		return r.CustomResponse
	}
	return ""
}

// Set assigns v to field f. Unknown fields are ignored.
func (r *Record) Set(f Field, v string) {
	switch f {
	case FieldTitle:
		r.Title = v
	case FieldDetails:
		r.Details = v
	case FieldFile:
		r.File = v
	case FieldStatus:
		r.Status = v
	case FieldStage:
		r.Stage = v
	case FieldSource:
		r.Source = v
	case FieldCreateAt:
		r.CreateAt = v
	case FieldSentBy:
		r.SentBy = v
	case FieldSentTo:
		r.SentTo = v
	case FieldCustomResponse:
		r.CustomResponse = v
	}
}

// Values returns the ten field values in positional order.
func (r Record) Values() []string {
	out := make([]string, NumFields)
	for f := Field(0); f < NumFields; f++ {
		out[f] = r.Get(f)
	}
	return out
}

// RawRecord is a tokenized Record tagged with the file it came from.
type RawRecord struct {
	Record Record
	Source string // originating file path
}
