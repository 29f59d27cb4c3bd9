package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/ziadkadry99/diamond-desk/internal/chat"
	"github.com/ziadkadry99/diamond-desk/internal/config"
	"github.com/ziadkadry99/diamond-desk/internal/llm"
	"github.com/ziadkadry99/diamond-desk/internal/model"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `diamonddesk init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// createPredictorFromConfig returns the remote predictor when an endpoint
// is configured, otherwise the local artifact.
func createPredictorFromConfig(cfg *config.Config) (model.Predictor, error) {
	if cfg.Model.Endpoint != "" {
		timeout := time.Duration(cfg.Model.TimeoutSeconds) * time.Second
		return model.NewHTTPPredictor(cfg.Model.Endpoint, timeout), nil
	}
	m, err := model.LoadArtifact(cfg.Model.Artifact)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// loadPredictor is createPredictorFromConfig for long-running commands: a
// missing model only disables estimates.
func loadPredictor(cfg *config.Config) model.Predictor {
	p, err := createPredictorFromConfig(cfg)
	if err != nil {
		log.Printf("warning: price model unavailable, estimates will fail: %v", err)
		return nil
	}
	if verbose {
		log.Printf("price model: %s", p.Name())
	}
	return p
}

// openAIFactory builds per-session OpenAI clients from the key the user
// entered on the chat page.
func openAIFactory(cfg *config.Config) chat.ClientFactory {
	return func(apiKey string) (llm.Moderator, llm.Provider) {
		var p *llm.OpenAIProvider
		if cfg.Chat.BaseURL != "" {
			p = llm.NewOpenAIProviderWithBaseURL(apiKey, cfg.Chat.Model, cfg.Chat.BaseURL)
		} else {
			p = llm.NewOpenAIProvider(apiKey, cfg.Chat.Model)
		}
		return p, p
	}
}

func defaultChatSettings(cfg *config.Config) chat.Settings {
	return chat.Settings{
		Temperature: cfg.Chat.DefaultTemperature,
		Length:      cfg.Chat.DefaultLength,
		Style:       cfg.Chat.DefaultStyle,
	}
}
