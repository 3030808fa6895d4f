package notes

import "example.com/friendship-notes/internal/service"

// Messages returned at the action boundary. They never reveal the cause.
const (
	msgInvalidJSON     = "invalid json"
	msgInvalidInput    = "Invalid input."
	msgGenerateFailed  = "Failed to generate note. Please try again."
	msgCustomizeFailed = "Failed to customize note. Please try again."
	msgSaveFailed      = "Could not create a shareable link. Please try again."
	msgLoadFailed      = "Could not load this note. Please try again."
	msgNotFound        = "not found"
)

type GenerateNoteRequest = service.NoteDraft

type CustomizeNoteRequest struct {
	InitialNote     string `json:"initialNote"`
	PersonalTouches string `json:"personalTouches"`
}

type SaveNoteRequest struct {
	Note string `json:"note"`
}

// ActionResponse is {success, note|noteId} on success and {error, fields} on failure.
type ActionResponse struct {
	Success bool                `json:"success,omitempty"`
	Note    string              `json:"note,omitempty"`
	NoteID  string              `json:"noteId,omitempty"`
	URL     string              `json:"url,omitempty"`
	Error   string              `json:"error,omitempty"`
	Fields  service.FieldErrors `json:"fields,omitempty"`
}

type SharedNote struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}
