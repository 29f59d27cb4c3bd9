package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// CategoryScore is the estimated likelihood, in [0,1], that a text violates
// one content-policy category.
type CategoryScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// ModerationResult is the outcome of one moderation check. Scores always
// cover the full category vocabulary in ModerationCategories order.
type ModerationResult struct {
	Flagged bool
	Scores  []CategoryScore
}

// ModerationCategories is the fixed content-policy vocabulary, in the order
// the moderation endpoint enumerates it.
var ModerationCategories = []string{
	"harassment",
	"harassment/threatening",
	"hate",
	"hate/threatening",
	"self-harm",
	"self-harm/instructions",
	"self-harm/intent",
	"sexual",
	"sexual/minors",
	"violence",
	"violence/graphic",
}
