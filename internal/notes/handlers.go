package notes

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"example.com/friendship-notes/internal/notestore"
	"example.com/friendship-notes/internal/service"
	"example.com/friendship-notes/internal/wizard"
)

type Handlers struct {
	writer   wizard.Writer
	store    notestore.Store
	sessions *wizard.Manager
	baseURL  string
	proxied  bool
	secure   bool
	logger   *zap.Logger
	pages    *template.Template
}

type Options struct {
	// BaseURL prefixes share links. Empty means derive it from the request's
	// Host header, which the client controls; set it in production.
	BaseURL string
	// TrustProxy honours X-Forwarded-Proto when deriving share links. Enable it
	// only behind a proxy that overwrites the header.
	TrustProxy bool
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	Logger       *zap.Logger
}

// NewHandlers wires the note writer and store behind the JSON actions, the
// wizard pages and the shared note viewer.
func NewHandlers(writer wizard.Writer, store notestore.Store, sessions *wizard.Manager, opts Options) *Handlers {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		writer:   writer,
		store:    store,
		sessions: sessions,
		baseURL:  opts.BaseURL,
		proxied:  opts.TrustProxy,
		secure:   opts.SecureCookie,
		logger:   logger,
		pages:    pages,
	}
}

func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/notes", h.save)
	r.Post("/api/notes/generate", h.generate)
	r.Post("/api/notes/customize", h.customize)
	r.Get("/api/notes/{noteId}", h.get)

	r.Get("/", h.wizardPage)
	r.Route("/wizard", func(r chi.Router) {
		r.Post("/start", h.wizardStart)
		r.Post("/generate", h.wizardGenerate)
		r.Post("/customize", h.wizardCustomize)
		r.Post("/manual", h.wizardManual)
		r.Post("/confirm", h.wizardConfirm)
		r.Post("/edit", h.wizardEdit)
		r.Post("/share", h.wizardShare)
		r.Post("/reset", h.wizardReset)
	})

	r.Get("/note/{noteId}", h.viewNote)

	return r
}

func (h *Handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ActionResponse{Error: msgInvalidJSON})
		return
	}

	note, err := h.writer.Generate(r.Context(), req)
	if fe, ok := fieldErrors(err); ok {
		writeJSON(w, http.StatusBadRequest, ActionResponse{Error: msgInvalidInput, Fields: fe})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadGateway, ActionResponse{Error: msgGenerateFailed})
		return
	}
	writeJSON(w, http.StatusOK, ActionResponse{Success: true, Note: note})
}

func (h *Handlers) customize(w http.ResponseWriter, r *http.Request) {
	var req CustomizeNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ActionResponse{Error: msgInvalidJSON})
		return
	}

	note, err := h.writer.Customize(r.Context(), req.InitialNote, req.PersonalTouches)
	if fe, ok := fieldErrors(err); ok {
		writeJSON(w, http.StatusBadRequest, ActionResponse{Error: msgInvalidInput, Fields: fe})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadGateway, ActionResponse{Error: msgCustomizeFailed})
		return
	}
	writeJSON(w, http.StatusOK, ActionResponse{Success: true, Note: note})
}

func (h *Handlers) save(w http.ResponseWriter, r *http.Request) {
	var req SaveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ActionResponse{Error: msgInvalidJSON})
		return
	}
	if fe := service.ValidateNote(req.Note); len(fe) > 0 {
		writeJSON(w, http.StatusBadRequest, ActionResponse{Error: msgInvalidInput, Fields: fe})
		return
	}

	id, err := h.store.Save(r.Context(), req.Note)
	if err != nil {
		h.logger.Error("Saving note failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ActionResponse{Error: msgSaveFailed})
		return
	}
	writeJSON(w, http.StatusCreated, ActionResponse{
		Success: true,
		NoteID:  id,
		URL:     wizard.ShareLink(h.base(r), id),
	})
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "noteId")

	note, ok, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("Loading note failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ActionResponse{Error: msgLoadFailed})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, ActionResponse{Error: msgNotFound})
		return
	}
	writeJSON(w, http.StatusOK, SharedNote{ID: id, Note: note})
}

// base is the configured public address, or the one the request came in on.
func (h *Handlers) base(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if h.proxied {
		if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
			scheme = p
		}
	}
	return scheme + "://" + r.Host
}

func fieldErrors(err error) (service.FieldErrors, bool) {
	var fe service.FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
