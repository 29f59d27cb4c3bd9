package chat

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Threshold is the highest moderation score a message may reach and still
// be answered.
const Threshold = 0.01

// RefusalCategories is how many categories a refusal lists.
const RefusalCategories = 5

// Reply length targets. The system instruction asks for at most this many
// words; the completion cap is ReplyTokenLimit of it.
const (
	LengthShort  = 300
	LengthMedium = 600
	LengthLong   = 900
)

// tokensPerWord leaves room for an English reply of the target length.
const tokensPerWord = 2

// ReplyTokenLimit is the max_tokens sent for a reply of the given target
// length.
func ReplyTokenLimit(length int) int { return length * tokensPerWord }

// Lengths lists the selectable reply lengths.
var Lengths = []int{LengthShort, LengthMedium, LengthLong}

// Temperature bounds for the creativity slider.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
)

var (
	ErrEmptyInput      = errors.New("message is empty")
	ErrInvalidSettings = errors.New("invalid chat settings")
	ErrSessionNotFound = errors.New("chat session not found")
	ErrMissingAPIKey   = errors.New("an OpenAI API key is required to start a conversation")
)

// Settings are the sidebar controls in effect for one turn.
type Settings struct {
	Temperature float64 `json:"temperature"`
	Length      int     `json:"length"`
	Style       string  `json:"style"`
}

// Validate checks the settings. A nil styles list accepts any non-empty style.
func (s Settings) Validate(styles []string) error {
	if s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature %.2f outside [0, 2]", ErrInvalidSettings, s.Temperature)
	}
	if !slices.Contains(Lengths, s.Length) {
		return fmt.Errorf("%w: length %d must be 300, 600 or 900", ErrInvalidSettings, s.Length)
	}
	if s.Style == "" {
		return fmt.Errorf("%w: style is required", ErrInvalidSettings)
	}
	if styles != nil && !slices.Contains(styles, s.Style) {
		return fmt.Errorf("%w: unknown style %q", ErrInvalidSettings, s.Style)
	}
	return nil
}

// LengthLabel names a reply length for display.
func LengthLabel(length int) string {
	switch length {
	case LengthShort:
		return "short"
	case LengthMedium:
		return "medium"
	case LengthLong:
		return "long"
	default:
		return ""
	}
}

// SystemInstruction builds the opening system message for a conversation.
func SystemInstruction(s Settings) string {
	return fmt.Sprintf("You are a personal assistant whose goal is to answer the user's questions "+
		"with a %s writing style. Limit the size of your reply to at most %d words.", s.Style, s.Length)
}

// Usage is a pair of running token totals.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Total returns prompt plus completion tokens.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// Add returns the sum of two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
	}
}

// Outcome is how a turn ended.
type Outcome string

const (
	OutcomeAnswered Outcome = "answered"
	OutcomeBlocked  Outcome = "blocked"
)

// TurnResult describes one handled message.
type TurnResult struct {
	Outcome Outcome `json:"outcome"`
	// Reply is the assistant's answer; empty when blocked.
	Reply string `json:"reply,omitempty"`
	// Categories are the top categories by score; set only when blocked.
	Categories []string `json:"categories,omitempty"`
	// Usage is what this turn consumed; Totals is the session total after it.
	Usage  Usage `json:"usage"`
	Totals Usage `json:"totals"`
	// FinishReason is why the model stopped, e.g. "stop" or "length".
	FinishReason string `json:"finish_reason,omitempty"`
}

// RefusalIntro and RefusalOutro frame the category list of a blocked turn.
const (
	RefusalIntro = "I think what you said falls into some categories I can't talk about:"
	RefusalOutro = "How about we talk about something else?"
)

// RefusalMessage renders the reply shown for a blocked turn as markdown,
// one bullet per category in the given order.
func RefusalMessage(categories []string) string {
	var b strings.Builder
	b.WriteString(RefusalIntro)
	b.WriteString("\n\n")
	for _, c := range categories {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(RefusalOutro)
	return b.String()
}
