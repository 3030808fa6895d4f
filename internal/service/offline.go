package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"example.com/friendship-notes/internal/textgen"
)

// Offline is a generator that needs no hosted model. It builds notes from the
// structured request input, which makes local runs and demos deterministic.
func Offline() textgen.Generator {
	return textgen.Func(func(ctx context.Context, req textgen.Request) (string, error) {
		if initial, ok := req.Input["initialNote"].(string); ok {
			touches, _ := req.Input["personalTouches"].(string)
			return fmt.Sprintf("%s\n\nP.S. %s", initial, touches), nil
		}

		recipient, _ := req.Input["recipientName"].(string)
		user, _ := req.Input["userName"].(string)
		memory, _ := req.Input["sharedMemory"].(string)

		joke := false
		if out, err := req.Call(ctx, insideJokeTool, map[string]any{"includeInsideJoke": req.Input["includeInsideJoke"]}); err == nil {
			joke, _ = out.(bool)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Dear %s,\n\n", recipient)
		if joke {
			fmt.Fprintf(&b, "Remember %s? I still laugh about it every time.", lowerFirst(memory))
		} else {
			fmt.Fprintf(&b, "I will always remember %s.", lowerFirst(memory))
		}
		b.WriteString(" Thank you for being the kind of friend who makes ordinary days feel special.\n\n")
		fmt.Fprintf(&b, "With love,\n%s", user)
		return b.String(), nil
	})
}

func lowerFirst(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), ".!?")
	if s == "" {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}
