// Package overview holds the splash shown on an empty conversation and the
// suggested first questions.
package overview

import (
	"context"
	"fmt"

	"github.com/PabloGalante/vitalito/internal/domain"
)

const Title = "Vitalito"

// Suggestion is a canned first question.
type Suggestion struct {
	Title  string
	Label  string
	Action string
}

var Suggestions = []Suggestion{
	{
		Title:  "Qué es la diabetes",
		Label:  "Mellitus tipo 2?",
		Action: "Qué es la diabetes mellitus tipo 2?",
	},
	{
		Title:  "Dime 3 factores de riesgo",
		Label:  "para contraer diabetes",
		Action: "Dime 3 factores de riesgo para contraer diabetes",
	},
}

// Visible reports whether the overview and suggestions should be shown.
func Visible(messages domain.MessageLog) bool {
	return len(messages.Messages()) == 0
}

// Pick submits suggestion i as a user message.
func Pick(ctx context.Context, responder domain.Responder, i int) error {
	if i < 0 || i >= len(Suggestions) {
		return fmt.Errorf("suggestion %d out of range", i)
	}
	return responder.Submit(ctx, Suggestions[i].Action)
}
