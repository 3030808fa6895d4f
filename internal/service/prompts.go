package service

import (
	"strings"
	"text/template"
)

const insideJokeTool = "shouldIncludeInsideJoke"

const generateSystem = `You are a friendship note writing assistant. Your goal is to create a heartfelt and memorable note for the user to give to their friend.`

var generateTmpl = template.Must(template.New("generate").Option("missingkey=error").Parse(
	`Compose a friendship note based on the following information:
- Recipient Name: {{.RecipientName}}
- Your Name: {{.UserName}}
- Shared Memory or Occasion: {{.SharedMemory}}
{{- if .Tone}}
- Tone: {{.Tone}}
{{- end}}

Instructions:
1. The note should be personalized and reflect the shared experience.
2. Call the ` + insideJokeTool + ` tool. If it returns true, include a brief, lighthearted inside joke drawn from the shared memory. Otherwise do not include one.
{{- if .Tone}}
3. Write in a {{.Tone}} tone while staying appreciative.
{{- else}}
3. Keep the tone positive and appreciative.
{{- end}}
4. The note should not exceed 150 words.
5. Sign the note from {{.UserName}}. Reply with the note text only, without placeholders.
`))

const customizeSystem = `You are an expert at crafting personalized friendship notes.`

var customizeTmpl = template.Must(template.New("customize").Option("missingkey=error").Parse(
	`You will take an initial AI-generated note and add personal touches to it, to ensure the message perfectly reflects the user's feelings and shared experiences.

Initial Note: {{.InitialNote}}

Personal Touches: {{.PersonalTouches}}

Reply with the customized note text only.
`))

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
