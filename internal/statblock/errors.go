package statblock

import "fmt"

// FieldMismatch reports that a field's text did not fit its grammar.
// Inside an optional section the field is dropped and the mismatch becomes
// a diagnostic; inside a mandatory one it fails the document.
type FieldMismatch struct {
	Field  string
	Text   string
	Reason string
}

func (e *FieldMismatch) Error() string {
	return fmt.Sprintf("%s: %s: %q", e.Field, e.Reason, e.Text)
}

// InternalError is a panic recovered while extracting one document.
type InternalError struct {
	Document string
	Stage    string
	Value    any
	Stack    string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s: internal error: %v", e.Document, e.Stage, e.Value)
}
