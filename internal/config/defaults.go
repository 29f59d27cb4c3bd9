package config

// ReplyLengths are the selectable target reply lengths, in tokens.
var ReplyLengths = []int{300, 600, 900}

// DefaultStyles are the writing styles offered by the chat assistant.
var DefaultStyles = []string{
	"expository",
	"elaborate",
	"narrative",
	"creative",
	"objective",
	"pragmatic",
	"systematic",
	"mocking",
	"soteropolitan",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:            8080,
		AllowAllOrigins: false,
		Model: ModelConfig{
			Artifact:       "models/diamond-price",
			TimeoutSeconds: 30,
		},
		Chat: ChatConfig{
			Model:              "gpt-3.5-turbo",
			Styles:             DefaultStyles,
			DefaultStyle:       "expository",
			DefaultLength:      300,
			DefaultTemperature: 0,
			IdleMinutes:        30,
		},
	}
}
