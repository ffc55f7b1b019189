// Package onboarding runs the first-visit questionnaire and remembers whether
// the user has finished it.
package onboarding

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"
)

var (
	ErrUnknownStep   = errors.New("unknown onboarding step")
	ErrInvalidAnswer = errors.New("invalid answer")
)

type StepType string

const (
	TypeText   StepType = "text"
	TypeSelect StepType = "select"
	TypeMulti  StepType = "multi"
	TypeBool   StepType = "bool"
)

const maxTextAnswer = 1000

type Step struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Type     StepType `json:"type"`
	Options  []string `json:"options,omitempty"`
}

// Steps is the questionnaire in the order it is shown.
var Steps = []Step{
	{
		ID:       "goal",
		Question: "Зачем вы используете приложение? (основная цель)",
		Type:     TypeSelect,
		Options: []string{
			"Отслеживание количества прочитанного",
			"Поиск новых книг",
			"AI-рекомендации",
			"Другое",
		},
	},
	{
		ID:       "level",
		Question: "Ваш уровень читателя?",
		Type:     TypeSelect,
		Options:  []string{"Новичок", "Уверенный", "Про"},
	},
	{ID: "notify", Question: "Включить напоминания по e-mail?", Type: TypeBool},
	{ID: "about", Question: "Расскажите о себе в двух словах", Type: TypeText},
}

// State is what the client needs to render the questionnaire.
type State struct {
	Steps     []Step         `json:"steps"`
	Current   int            `json:"current"`
	Answers   map[string]any `json:"answers"`
	Completed bool           `json:"completed"`
}

func findStep(id string) (Step, bool) {
	for _, s := range Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// checkAnswer validates a JSON-decoded value against the step. A nil value
// clears the answer and is always accepted.
func checkAnswer(step Step, value any) error {
	if value == nil {
		return nil
	}
	switch step.Type {
	case TypeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s expects true or false", ErrInvalidAnswer, step.ID)
		}
	case TypeText:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects text", ErrInvalidAnswer, step.ID)
		}
		if utf8.RuneCountInString(s) > maxTextAnswer {
			return fmt.Errorf("%w: %s is longer than %d characters", ErrInvalidAnswer, step.ID, maxTextAnswer)
		}
	case TypeSelect:
		s, ok := value.(string)
		if !ok || !slices.Contains(step.Options, s) {
			return fmt.Errorf("%w: %s expects one of the listed options", ErrInvalidAnswer, step.ID)
		}
	case TypeMulti:
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%w: %s expects a list", ErrInvalidAnswer, step.ID)
		}
		for _, it := range items {
			s, ok := it.(string)
			if !ok || !slices.Contains(step.Options, s) {
				return fmt.Errorf("%w: %s expects listed options only", ErrInvalidAnswer, step.ID)
			}
		}
	}
	return nil
}
