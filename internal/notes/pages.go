package notes

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"example.com/friendship-notes/internal/service"
	"example.com/friendship-notes/internal/wizard"
)

const sessionCookie = "friendship_session"

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("pages").
	Funcs(template.FuncMap{"confetti": confetti}).
	ParseFS(templateFS, "templates/*.html"))

var confettiColors = []string{"#f4a261", "#e76f51", "#2a9d8f", "#e9c46a", "#f28482"}

type confettiPiece struct {
	Style template.CSS
}

// confetti lays out a fixed set of falling pieces for the final step.
func confetti() []confettiPiece {
	out := make([]confettiPiece, 40)
	for i := range out {
		left := (i * 61) % 100
		delay := (i * 137) % 1500
		color := confettiColors[i%len(confettiColors)]
		out[i].Style = template.CSS(fmt.Sprintf("left:%d%%;background:%s;animation-delay:%dms", left, color, delay))
	}
	return out
}

type wizardView struct {
	wizard.Snapshot
	Toast  *wizard.Toast
	Errors service.FieldErrors
}

type noteView struct {
	Found   bool
	Note    string
	Message string
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) *wizard.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	s, created := h.sessions.Session(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s
}

func (h *Handlers) wizardPage(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	h.renderWizard(w, s, http.StatusOK, nil)
}

func (h *Handlers) renderWizard(w http.ResponseWriter, s *wizard.Session, status int, fe service.FieldErrors) {
	h.render(w, status, "wizard.html", wizardView{
		Snapshot: s.Wizard.Snapshot(),
		Toast:    s.TakeToast(),
		Errors:   fe,
	})
}

func (h *Handlers) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("Rendering page failed", zap.String("template", name), zap.Error(err))
	}
}

func back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) wizardStart(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	_ = s.Wizard.Start()
	back(w, r)
}

func (h *Handlers) wizardGenerate(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	d := service.NoteDraft{
		RecipientName:     r.PostFormValue("recipientName"),
		UserName:          r.PostFormValue("userName"),
		SharedMemory:      r.PostFormValue("sharedMemory"),
		IncludeInsideJoke: r.PostFormValue("includeInsideJoke") != "",
		Tone:              r.PostFormValue("tone"),
	}

	err := s.Wizard.Generate(r.Context(), d)
	if fe, ok := fieldErrors(err); ok {
		h.renderWizard(w, s, http.StatusBadRequest, fe)
		return
	}
	if failed(err) {
		h.logger.Warn("Wizard generate failed", zap.String("session", s.ID), zap.Error(err))
		s.SetToast(wizard.Toast{
			Title:       "Uh oh! Something went wrong.",
			Description: msgGenerateFailed,
			Destructive: true,
		})
	}
	back(w, r)
}

func (h *Handlers) wizardCustomize(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)

	err := s.Wizard.Customize(r.Context(), r.PostFormValue("personalTouches"))
	if fe, ok := fieldErrors(err); ok {
		h.renderWizard(w, s, http.StatusBadRequest, fe)
		return
	}
	if failed(err) {
		h.logger.Warn("Wizard customize failed", zap.String("session", s.ID), zap.Error(err))
		s.SetToast(wizard.Toast{
			Title:       "Customization Failed",
			Description: msgCustomizeFailed,
			Destructive: true,
		})
	}
	back(w, r)
}

// wizardManual toggles manual editing; finishing an edit keeps the typed text.
func (h *Handlers) wizardManual(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s.Wizard.Snapshot().EditingManually {
		if err := s.Wizard.EditManually(r.PostFormValue("note")); err != nil {
			h.editFailed(s, err)
			back(w, r)
			return
		}
	}
	_ = s.Wizard.ToggleManualEdit()
	back(w, r)
}

func (h *Handlers) wizardConfirm(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s.Wizard.Snapshot().EditingManually {
		if err := s.Wizard.EditManually(r.PostFormValue("note")); err != nil {
			h.editFailed(s, err)
			back(w, r)
			return
		}
	}
	_ = s.Wizard.Confirm()
	back(w, r)
}

// editFailed keeps the wizard in manual editing and tells the user why.
func (h *Handlers) editFailed(s *wizard.Session, err error) {
	fe, ok := fieldErrors(err)
	if !ok {
		return
	}
	s.SetToast(wizard.Toast{
		Title:       "Uh oh! Something went wrong.",
		Description: fe.For("note"),
		Destructive: true,
	})
}

func (h *Handlers) wizardEdit(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	_ = s.Wizard.Edit()
	back(w, r)
}

func (h *Handlers) wizardShare(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)

	link, err := s.Wizard.Share(r.Context(), h.base(r))
	switch {
	case err == nil:
		s.SetToast(wizard.Toast{
			Title:       "Link Copied!",
			Description: "Your shareable note link is copied to the clipboard.",
			Copy:        link,
		})
	case failed(err):
		msg := msgSaveFailed
		if fe, ok := fieldErrors(err); ok {
			msg = fe.For("note")
		} else {
			h.logger.Error("Wizard share failed", zap.String("session", s.ID), zap.Error(err))
		}
		s.SetToast(wizard.Toast{Title: "Sharing Failed", Description: msg, Destructive: true})
	}
	back(w, r)
}

func (h *Handlers) wizardReset(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	s.Wizard.Reset()
	back(w, r)
}

func (h *Handlers) viewNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "noteId")

	note, ok, err := h.store.Get(r.Context(), id)
	switch {
	case err != nil:
		h.logger.Error("Loading shared note failed", zap.String("id", id), zap.Error(err))
		h.render(w, http.StatusInternalServerError, "note.html", noteView{Message: msgLoadFailed})
	case !ok:
		h.render(w, http.StatusNotFound, "note.html", noteView{
			Message: "This note could not be found. It might have expired.",
		})
	default:
		h.render(w, http.StatusOK, "note.html", noteView{Found: true, Note: note})
	}
}

// failed reports whether err should be shown to the user. Stale or
// out-of-order form posts just re-render the current step.
func failed(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, wizard.ErrInvalidTransition) &&
		!errors.Is(err, wizard.ErrDiscarded) &&
		!errors.Is(err, context.Canceled)
}
