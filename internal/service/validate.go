package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"example.com/friendship-notes/internal/stringsx"
)

const (
	MinSharedMemory    = 10
	MinPersonalTouches = 5
)

// ErrInvalidInput matches every FieldErrors value with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// NoteDraft is what the user enters before a note is generated.
type NoteDraft struct {
	RecipientName     string `json:"recipientName"`
	UserName          string `json:"userName"`
	SharedMemory      string `json:"sharedMemory"`
	IncludeInsideJoke bool   `json:"includeInsideJoke"`
	Tone              string `json:"tone,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors lists every failed field, in form order.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, e := range fe {
		msgs[i] = e.Field + ": " + e.Message
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

func (fe FieldErrors) Is(target error) bool { return target == ErrInvalidInput }

// For returns the message for field, or "".
func (fe FieldErrors) For(field string) string {
	for _, e := range fe {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Err returns fe as an error, or nil when there are no failures.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// ValidateDraft checks a draft the same way for the JSON API and the wizard form.
func ValidateDraft(d NoteDraft) FieldErrors {
	var fe FieldErrors
	if stringsx.IsEmpty(d.RecipientName) {
		fe = append(fe, FieldError{"recipientName", "Please enter your friend's name."})
	}
	if stringsx.IsEmpty(d.UserName) {
		fe = append(fe, FieldError{"userName", "Please enter your name."})
	}
	if stringsx.Len(strings.TrimSpace(d.SharedMemory)) < MinSharedMemory {
		fe = append(fe, FieldError{"sharedMemory", "Please share a more detailed memory to make the note special."})
	}
	return fe
}

// ValidateCustomization checks a request to personalize an existing note.
func ValidateCustomization(initialNote, personalTouches string) FieldErrors {
	var fe FieldErrors
	if stringsx.IsEmpty(initialNote) {
		fe = append(fe, FieldError{"initialNote", "There is no note to customize yet."})
	}
	if stringsx.Len(strings.TrimSpace(personalTouches)) < MinPersonalTouches {
		fe = append(fe, FieldError{"personalTouches", "Please add a bit more detail for customization."})
	}
	return fe
}

// ValidateNote checks a note before it is shared.
func ValidateNote(note string) FieldErrors {
	if stringsx.IsEmpty(note) {
		return FieldErrors{{"note", "There is no note to share yet."}}
	}
	return ValidateText(note)
}

// ValidateText rejects note text that is not valid UTF-8. Such text would not
// read back byte for byte from every store.
func ValidateText(note string) FieldErrors {
	if !utf8.ValidString(note) {
		return FieldErrors{{"note", "The note contains characters that cannot be saved."}}
	}
	return nil
}
