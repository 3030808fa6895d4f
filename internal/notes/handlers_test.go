package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"example.com/friendship-notes/internal/notestore"
	"example.com/friendship-notes/internal/service"
	"example.com/friendship-notes/internal/textgen"
	"example.com/friendship-notes/internal/wizard"
)

type stubWriter struct {
	generateFn  func(context.Context, service.NoteDraft) (string, error)
	customizeFn func(context.Context, string, string) (string, error)
}

func (s stubWriter) Generate(ctx context.Context, d service.NoteDraft) (string, error) {
	return s.generateFn(ctx, d)
}
func (s stubWriter) Customize(ctx context.Context, note, touches string) (string, error) {
	return s.customizeFn(ctx, note, touches)
}

type stubStore struct {
	saveFn func(context.Context, string) (string, error)
	getFn  func(context.Context, string) (string, bool, error)
}

func (s stubStore) Save(ctx context.Context, note string) (string, error) { return s.saveFn(ctx, note) }
func (s stubStore) Get(ctx context.Context, id string) (string, bool, error) {
	return s.getFn(ctx, id)
}

func newRoutes(writer wizard.Writer, store notestore.Store, opts Options) http.Handler {
	sessions := wizard.NewManager(func() *wizard.Wizard { return wizard.New(writer, store) })
	return NewHandlers(writer, store, sessions, opts).Routes()
}

func offlineRoutes(store notestore.Store) http.Handler {
	return newRoutes(service.New(service.Offline(), zap.NewNop()), store, Options{})
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) ActionResponse {
	t.Helper()
	var got ActionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	return got
}

func TestHandlers_Health(t *testing.T) {
	h := offlineRoutes(notestore.NewMemory())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHandlers_Generate(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		rr := postJSON(offlineRoutes(notestore.NewMemory()), "/api/notes/generate", "{")
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("validation errors list fields", func(t *testing.T) {
		rr := postJSON(offlineRoutes(notestore.NewMemory()), "/api/notes/generate",
			`{"recipientName":"","userName":"Alex","sharedMemory":"short","includeInsideJoke":false}`)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		got := decode(t, rr)
		require.Equal(t, msgInvalidInput, got.Error)
		require.False(t, got.Success)
		require.Len(t, got.Fields, 2)
		require.Equal(t, "recipientName", got.Fields[0].Field)
		require.Equal(t, "sharedMemory", got.Fields[1].Field)
	})

	t.Run("success", func(t *testing.T) {
		h := newRoutes(stubWriter{
			generateFn: func(_ context.Context, d service.NoteDraft) (string, error) {
				require.Equal(t, "Jess", d.RecipientName)
				require.True(t, d.IncludeInsideJoke)
				return "Dear Jess", nil
			},
		}, notestore.NewMemory(), Options{})
		rr := postJSON(h, "/api/notes/generate",
			`{"recipientName":"Jess","userName":"Alex","sharedMemory":"the time we got lost hiking","includeInsideJoke":true}`)
		require.Equal(t, http.StatusOK, rr.Code)
		got := decode(t, rr)
		require.True(t, got.Success)
		require.Equal(t, "Dear Jess", got.Note)
		require.Empty(t, got.Error)
	})

	t.Run("model failure is opaque", func(t *testing.T) {
		h := newRoutes(stubWriter{
			generateFn: func(context.Context, service.NoteDraft) (string, error) {
				return "", errors.New("quota exceeded for project 123")
			},
		}, notestore.NewMemory(), Options{})
		rr := postJSON(h, "/api/notes/generate",
			`{"recipientName":"Jess","userName":"Alex","sharedMemory":"the time we got lost hiking"}`)
		require.Equal(t, http.StatusBadGateway, rr.Code)
		got := decode(t, rr)
		require.Equal(t, msgGenerateFailed, got.Error)
		require.NotContains(t, got.Error, "quota")
	})
}

func TestHandlers_Customize(t *testing.T) {
	t.Run("short touches rejected before the model", func(t *testing.T) {
		calls := 0
		svc := service.New(textgen.Func(func(context.Context, textgen.Request) (string, error) {
			calls++
			return "revised", nil
		}), zap.NewNop())
		h := newRoutes(svc, notestore.NewMemory(), Options{})

		rr := postJSON(h, "/api/notes/customize", `{"initialNote":"Dear Jess","personalTouches":"hey"}`)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		got := decode(t, rr)
		require.Equal(t, "personalTouches", got.Fields[0].Field)
		require.Equal(t, 0, calls)
	})

	t.Run("success", func(t *testing.T) {
		rr := postJSON(offlineRoutes(notestore.NewMemory()), "/api/notes/customize",
			`{"initialNote":"Dear Jess","personalTouches":"And the seagulls!"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		got := decode(t, rr)
		require.True(t, got.Success)
		require.Equal(t, "Dear Jess\n\nP.S. And the seagulls!", got.Note)
	})

	t.Run("failure is opaque", func(t *testing.T) {
		h := newRoutes(stubWriter{
			customizeFn: func(context.Context, string, string) (string, error) { return "", errors.New("refused") },
		}, notestore.NewMemory(), Options{})
		rr := postJSON(h, "/api/notes/customize", `{"initialNote":"Dear Jess","personalTouches":"seagulls"}`)
		require.Equal(t, http.StatusBadGateway, rr.Code)
		require.Equal(t, msgCustomizeFailed, decode(t, rr).Error)
	})
}

func TestHandlers_SaveAndGet(t *testing.T) {
	t.Run("round trip through the API", func(t *testing.T) {
		h := offlineRoutes(notestore.NewMemory())

		rr := postJSON(h, "/api/notes", `{"note":"Happy Friendship Day!"}`)
		require.Equal(t, http.StatusCreated, rr.Code)
		saved := decode(t, rr)
		require.True(t, saved.Success)
		require.NotEmpty(t, saved.NoteID)
		require.Equal(t, "http://example.com/note/"+saved.NoteID, saved.URL)

		req := httptest.NewRequest(http.MethodGet, "/api/notes/"+saved.NoteID, nil)
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		var got SharedNote
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		require.Equal(t, "Happy Friendship Day!", got.Note)
	})

	t.Run("configured base url", func(t *testing.T) {
		store := stubStore{saveFn: func(context.Context, string) (string, error) { return "abc", nil }}
		h := newRoutes(stubWriter{}, store, Options{BaseURL: "https://notes.example/"})
		rr := postJSON(h, "/api/notes", `{"note":"hi"}`)
		require.Equal(t, "https://notes.example/note/abc", decode(t, rr).URL)
	})

	t.Run("forwarded proto needs a trusted proxy", func(t *testing.T) {
		store := stubStore{saveFn: func(context.Context, string) (string, error) { return "abc", nil }}
		save := func(opts Options) string {
			req := httptest.NewRequest(http.MethodPost, "/api/notes", bytes.NewBufferString(`{"note":"hi"}`))
			req.Header.Set("X-Forwarded-Proto", "https")
			rr := httptest.NewRecorder()
			newRoutes(stubWriter{}, store, opts).ServeHTTP(rr, req)
			return decode(t, rr).URL
		}
		require.Equal(t, "http://example.com/note/abc", save(Options{}))
		require.Equal(t, "https://example.com/note/abc", save(Options{TrustProxy: true}))
	})

	t.Run("blank note", func(t *testing.T) {
		rr := postJSON(offlineRoutes(notestore.NewMemory()), "/api/notes", `{"note":"  "}`)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, "note", decode(t, rr).Fields[0].Field)
	})

	t.Run("store failure is opaque", func(t *testing.T) {
		store := stubStore{saveFn: func(context.Context, string) (string, error) {
			return "", errors.New("disk full")
		}}
		rr := postJSON(newRoutes(stubWriter{}, store, Options{}), "/api/notes", `{"note":"hi"}`)
		require.Equal(t, http.StatusInternalServerError, rr.Code)
		require.Equal(t, msgSaveFailed, decode(t, rr).Error)
	})

	t.Run("get not found and internal", func(t *testing.T) {
		h := offlineRoutes(notestore.NewMemory())
		req := httptest.NewRequest(http.MethodGet, "/api/notes/not-a-real-id", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusNotFound, rr.Code)

		store := stubStore{getFn: func(context.Context, string) (string, bool, error) {
			return "", false, errors.New("boom")
		}}
		h = newRoutes(stubWriter{}, store, Options{})
		req = httptest.NewRequest(http.MethodGet, "/api/notes/abc", nil)
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestHandlers_SharedNoteViewer(t *testing.T) {
	store := notestore.NewMemory()
	id, err := store.Save(context.Background(), "Dear Jess <3")
	require.NoError(t, err)
	h := offlineRoutes(store)

	req := httptest.NewRequest(http.MethodGet, "/note/"+id, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "A Note For You")
	require.Contains(t, rr.Body.String(), "Dear Jess &lt;3")

	req = httptest.NewRequest(http.MethodGet, "/note/not-a-real-id", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "This note could not be found. It might have expired.")
}

// browser keeps the session cookie between requests like a real client.
type browser struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rr := httptest.NewRecorder()
	b.h.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			b.cookie = c
		}
	}
	return rr
}

func (b *browser) page() string {
	b.t.Helper()
	rr := b.do(http.MethodGet, "/", nil)
	require.Equal(b.t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func (b *browser) post(path string, form url.Values) {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	rr := b.do(http.MethodPost, path, form)
	require.Equal(b.t, http.StatusSeeOther, rr.Code, rr.Body.String())
}

func TestWizardPages_FullFlow(t *testing.T) {
	store := notestore.NewMemory()
	b := &browser{t: t, h: offlineRoutes(store)}

	require.Contains(t, b.page(), `data-step="intro"`)
	require.NotNil(t, b.cookie)

	b.post("/wizard/start", nil)
	require.Contains(t, b.page(), `data-step="generate"`)

	// Invalid form re-renders with field errors and keeps the step.
	rr := b.do(http.MethodPost, "/wizard/generate", url.Values{
		"recipientName": {"Jess"},
		"userName":      {""},
		"sharedMemory":  {"short"},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, "Please enter your name.")
	require.Contains(t, body, "Please share a more detailed memory")
	require.Contains(t, body, `value="Jess"`)

	b.post("/wizard/generate", url.Values{
		"recipientName": {"Jess"},
		"userName":      {"Alex"},
		"sharedMemory":  {"the time we got lost hiking"},
	})
	page := b.page()
	require.Contains(t, page, `data-step="customize"`)
	require.Contains(t, page, "I will always remember the time we got lost hiking.")

	b.post("/wizard/customize", url.Values{"personalTouches": {"And the seagulls!"}})
	page = b.page()
	require.Contains(t, page, `data-step="customize"`)
	require.Contains(t, page, "P.S. And the seagulls!")

	b.post("/wizard/manual", nil)
	require.Contains(t, b.page(), "Finish Editing")
	b.post("/wizard/manual", url.Values{"note": {"Dear Jess, typed by hand. Alex"}})
	require.Contains(t, b.page(), "Dear Jess, typed by hand. Alex")

	b.post("/wizard/confirm", nil)
	page = b.page()
	require.Contains(t, page, `data-step="final"`)
	require.Contains(t, page, `class="confetti"`)

	b.post("/wizard/share", nil)
	page = b.page()
	require.Contains(t, page, "Link Copied!")
	link := regexp.MustCompile(`data-copy="http://example.com/note/([A-Za-z0-9]+)"`).FindStringSubmatch(page)
	require.Len(t, link, 2, page)

	// The toast is shown once.
	require.NotContains(t, b.page(), "Link Copied!")

	got, ok, err := store.Get(context.Background(), link[1])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Dear Jess, typed by hand. Alex", got)

	b.post("/wizard/edit", nil)
	require.Contains(t, b.page(), `data-step="customize"`)

	b.post("/wizard/reset", nil)
	require.Contains(t, b.page(), `data-step="intro"`)
}

func TestWizardPages_FailuresShowToasts(t *testing.T) {
	writer := stubWriter{
		generateFn: func(context.Context, service.NoteDraft) (string, error) { return "", errors.New("model down") },
	}
	store := stubStore{saveFn: func(context.Context, string) (string, error) { return "", errors.New("disk full") }}
	b := &browser{t: t, h: newRoutes(writer, store, Options{})}

	b.page()
	b.post("/wizard/start", nil)
	b.post("/wizard/generate", url.Values{
		"recipientName": {"Jess"},
		"userName":      {"Alex"},
		"sharedMemory":  {"the time we got lost hiking"},
	})
	page := b.page()
	require.Contains(t, page, "Uh oh! Something went wrong.")
	require.Contains(t, page, `data-step="generate"`)
	require.Contains(t, page, "the time we got lost hiking")
}

func TestWizardPages_OutOfOrderPostsAreIgnored(t *testing.T) {
	b := &browser{t: t, h: offlineRoutes(notestore.NewMemory())}
	b.page()

	b.post("/wizard/confirm", nil)
	b.post("/wizard/share", nil)
	b.post("/wizard/customize", url.Values{"personalTouches": {"seagulls everywhere"}})
	page := b.page()
	require.Contains(t, page, `data-step="intro"`)
	require.NotContains(t, page, "Failed")
}

func TestWizardPages_ManualEditRejectsInvalidUTF8(t *testing.T) {
	store := stubStore{saveFn: func(context.Context, string) (string, error) {
		t.Fatal("invalid text must not be saved")
		return "", nil
	}}
	b := &browser{t: t, h: newRoutes(service.New(service.Offline(), zap.NewNop()), store, Options{})}

	b.page()
	b.post("/wizard/start", nil)
	b.post("/wizard/generate", url.Values{
		"recipientName": {"Jess"},
		"userName":      {"Alex"},
		"sharedMemory":  {"the time we got lost hiking"},
	})
	b.post("/wizard/manual", nil)
	b.post("/wizard/confirm", url.Values{"note": {"hi \xff there"}})

	page := b.page()
	require.Contains(t, page, "The note contains characters that cannot be saved.")
	require.Contains(t, page, `data-step="customize"`)
	require.Contains(t, page, "Finish Editing")
}
