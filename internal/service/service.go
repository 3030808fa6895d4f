package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"example.com/friendship-notes/internal/stringsx"
	"example.com/friendship-notes/internal/textgen"
)

var (
	ErrGenerateFailed  = errors.New("failed to generate note")
	ErrCustomizeFailed = errors.New("failed to customize note")
)

// Service writes and rewrites notes with a text generator. It is independent
// from transport and storage.
type Service struct {
	gen    textgen.Generator
	logger *zap.Logger
}

func New(gen textgen.Generator, logger *zap.Logger) *Service {
	return &Service{gen: gen, logger: logger}
}

// Generate validates the draft and asks the model for a note.
func (s *Service) Generate(ctx context.Context, d NoteDraft) (string, error) {
	if err := ValidateDraft(d).Err(); err != nil {
		return "", err
	}
	d = trimDraft(d)

	prompt, err := render(generateTmpl, d)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerateFailed, err)
	}

	note, err := s.gen.Generate(ctx, textgen.Request{
		System: generateSystem,
		Prompt: prompt,
		Input: map[string]any{
			"recipientName":     d.RecipientName,
			"userName":          d.UserName,
			"sharedMemory":      d.SharedMemory,
			"includeInsideJoke": d.IncludeInsideJoke,
			"tone":              d.Tone,
		},
		Tools: []textgen.Tool{insideJoke(d.IncludeInsideJoke)},
	})
	if err == nil {
		note = strings.TrimSpace(note)
		if note == "" {
			err = textgen.ErrEmptyResponse
		}
	}
	if err != nil {
		s.logger.Warn("Note generation failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrGenerateFailed, err)
	}

	s.logger.Debug("Note generated",
		zap.Int("words", stringsx.Words(note)),
		zap.String("preview", stringsx.Clip(note, 40)))
	return note, nil
}

// Customize rewrites initialNote with the user's personal touches.
func (s *Service) Customize(ctx context.Context, initialNote, personalTouches string) (string, error) {
	if err := ValidateCustomization(initialNote, personalTouches).Err(); err != nil {
		return "", err
	}
	data := struct{ InitialNote, PersonalTouches string }{
		InitialNote:     strings.TrimSpace(initialNote),
		PersonalTouches: strings.TrimSpace(personalTouches),
	}

	prompt, err := render(customizeTmpl, data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCustomizeFailed, err)
	}

	note, err := s.gen.Generate(ctx, textgen.Request{
		System: customizeSystem,
		Prompt: prompt,
		Input: map[string]any{
			"initialNote":     data.InitialNote,
			"personalTouches": data.PersonalTouches,
		},
	})
	if err == nil {
		note = strings.TrimSpace(note)
		if note == "" {
			err = textgen.ErrEmptyResponse
		}
	}
	if err != nil {
		s.logger.Warn("Note customization failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrCustomizeFailed, err)
	}
	return note, nil
}

// insideJoke is the decision step offered to the model. It only echoes the
// user's choice back.
func insideJoke(include bool) textgen.Tool {
	return textgen.Tool{
		Name:        insideJokeTool,
		Description: "Determines if an inside joke should be included in the friendship note based on user input.",
		Params: []textgen.Param{{
			Name:        "includeInsideJoke",
			Type:        textgen.Boolean,
			Description: "Whether to include an inside joke. This comes directly from the user input.",
			Required:    true,
		}},
		Handler: func(context.Context, map[string]any) (any, error) {
			return include, nil
		},
	}
}

func trimDraft(d NoteDraft) NoteDraft {
	d.RecipientName = strings.TrimSpace(d.RecipientName)
	d.UserName = strings.TrimSpace(d.UserName)
	d.SharedMemory = strings.TrimSpace(d.SharedMemory)
	d.Tone = strings.TrimSpace(d.Tone)
	return d
}
