// Package wizard is the note wizard state machine:
//
//	intro -> generate -> customize <-> final
//
// with Reset leading back to intro from any step.
package wizard

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"example.com/friendship-notes/internal/service"
)

type Step string

const (
	StepIntro     Step = "intro"
	StepGenerate  Step = "generate"
	StepCustomize Step = "customize"
	StepFinal     Step = "final"
)

// celebration is how long the final step reports Celebrate.
const celebration = 5 * time.Second

var (
	ErrInvalidTransition = errors.New("wizard: invalid transition")
	// ErrDiscarded is returned when a call resolves after the wizard moved on
	// (for example after a reset); its result is dropped.
	ErrDiscarded = errors.New("wizard: result discarded")
)

type Writer interface {
	Generate(ctx context.Context, d service.NoteDraft) (string, error)
	Customize(ctx context.Context, initialNote, personalTouches string) (string, error)
}

type Saver interface {
	Save(ctx context.Context, note string) (string, error)
}

// Snapshot is a copy of the wizard state for rendering.
type Snapshot struct {
	Step            Step
	Draft           service.NoteDraft
	Note            string
	PersonalTouches string
	EditingManually bool
	ShareURL        string
	Celebrate       bool
}

// Wizard holds one user's progress. No lock is held while the model or the
// store is working, so overlapping calls resolve last-write-wins.
type Wizard struct {
	writer Writer
	saver  Saver
	now    func() time.Time

	mu       sync.Mutex
	step     Step
	draft    service.NoteDraft
	note     string
	touches  string
	manual   bool
	shareURL string
	finalAt  time.Time
	epoch    uint64
}

func New(writer Writer, saver Saver) *Wizard {
	return &Wizard{writer: writer, saver: saver, now: time.Now, step: StepIntro}
}

func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		Step:            w.step,
		Draft:           w.draft,
		Note:            w.note,
		PersonalTouches: w.touches,
		EditingManually: w.manual,
		ShareURL:        w.shareURL,
		Celebrate:       w.step == StepFinal && w.now().Sub(w.finalAt) < celebration,
	}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Start leaves the intro.
func (w *Wizard) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepIntro {
		return ErrInvalidTransition
	}
	w.step = StepGenerate
	return nil
}

// Generate writes the first draft. On failure the wizard stays on the
// generate step and keeps the entered draft for the form.
func (w *Wizard) Generate(ctx context.Context, d service.NoteDraft) error {
	w.mu.Lock()
	if w.step != StepGenerate {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	w.draft = d
	epoch := w.epoch
	w.mu.Unlock()

	note, err := w.writer.Generate(ctx, d)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		return ErrDiscarded
	}
	if err != nil {
		return err
	}
	if w.step != StepGenerate && w.step != StepCustomize {
		return ErrDiscarded
	}
	w.step = StepCustomize
	w.note = note
	w.touches = ""
	w.manual = false
	return nil
}

// Customize asks the model to add personalTouches to the current note and
// stays on the customize step.
func (w *Wizard) Customize(ctx context.Context, personalTouches string) error {
	w.mu.Lock()
	if w.step != StepCustomize || w.manual {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	w.touches = personalTouches
	note := w.note
	epoch := w.epoch
	w.mu.Unlock()

	revised, err := w.writer.Customize(ctx, note, personalTouches)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		return ErrDiscarded
	}
	if err != nil {
		return err
	}
	if w.step != StepCustomize {
		return ErrDiscarded
	}
	w.note = revised
	return nil
}

// ToggleManualEdit switches direct text editing on or off.
func (w *Wizard) ToggleManualEdit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepCustomize {
		return ErrInvalidTransition
	}
	w.manual = !w.manual
	return nil
}

// EditManually replaces the note text without calling the model.
func (w *Wizard) EditManually(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepCustomize || !w.manual {
		return ErrInvalidTransition
	}
	if fe := service.ValidateText(text); len(fe) > 0 {
		return fe
	}
	w.note = text
	return nil
}

// Confirm accepts the note and moves to the final step.
func (w *Wizard) Confirm() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepCustomize {
		return ErrInvalidTransition
	}
	w.manual = false
	w.step = StepFinal
	w.finalAt = w.now()
	return nil
}

// Edit goes back from the final step for more changes.
func (w *Wizard) Edit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepFinal {
		return ErrInvalidTransition
	}
	w.step = StepCustomize
	w.shareURL = ""
	return nil
}

// Share saves the final note and returns its viewing link under baseURL.
// A failed save leaves the wizard unchanged.
func (w *Wizard) Share(ctx context.Context, baseURL string) (string, error) {
	w.mu.Lock()
	if w.step != StepFinal {
		w.mu.Unlock()
		return "", ErrInvalidTransition
	}
	note := w.note
	epoch := w.epoch
	w.mu.Unlock()

	if err := service.ValidateNote(note).Err(); err != nil {
		return "", err
	}
	id, err := w.saver.Save(ctx, note)
	if err != nil {
		return "", err
	}
	link := ShareLink(baseURL, id)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch == epoch && w.step == StepFinal {
		w.shareURL = link
	}
	return link, nil
}

// Reset starts over from the intro and drops everything entered so far.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = StepIntro
	w.draft = service.NoteDraft{}
	w.note = ""
	w.touches = ""
	w.manual = false
	w.shareURL = ""
	w.finalAt = time.Time{}
	w.epoch++
}

// ShareLink is the public viewing address of a saved note.
func ShareLink(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/note/" + url.PathEscape(id)
}
