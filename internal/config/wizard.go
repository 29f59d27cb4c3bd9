package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/manifoldco/promptui"
)

// artifactExtensions are the model artifact formats the wizard looks for.
var artifactExtensions = []string{".yaml", ".yml", ".json"}

// detectArtifact looks for an exported price model in the usual places and
// returns its name without extension.
func detectArtifact() string {
	for _, dir := range []string{"models", "resources", "."} {
		for _, ext := range artifactExtensions {
			matches, _ := filepath.Glob(filepath.Join(dir, "*price*"+ext))
			if len(matches) > 0 {
				return matches[0][:len(matches[0])-len(ext)]
			}
		}
	}
	return ""
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to diamonddesk! Let's configure your dashboard.")
	fmt.Println()

	cfg := DefaultConfig()
	if artifact := detectArtifact(); artifact != "" {
		fmt.Printf("Detected model artifact: %s\n\n", artifact)
		cfg.Model.Artifact = artifact
	}

	// 1. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("port must be between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 2. Where predictions come from.
	sourcePrompt := promptui.Select{
		Label: "Price model source",
		Items: []string{
			"artifact: exported model file loaded in-process",
			"endpoint: remote inference server",
		},
	}
	sourceIdx, _, err := sourcePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model source: %w", err)
	}

	if sourceIdx == 0 {
		artifactPrompt := promptui.Prompt{
			Label:   "Model artifact (path without extension)",
			Default: cfg.Model.Artifact,
		}
		cfg.Model.Artifact, err = artifactPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model artifact: %w", err)
		}
	} else {
		endpointPrompt := promptui.Prompt{
			Label:   "Inference endpoint URL",
			Default: "http://localhost:8000/predict",
		}
		cfg.Model.Endpoint, err = endpointPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model endpoint: %w", err)
		}
	}

	// 3. Chat model.
	chatModelPrompt := promptui.Prompt{
		Label:   "Chat completion model",
		Default: cfg.Chat.Model,
	}
	cfg.Chat.Model, err = chatModelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("chat model: %w", err)
	}

	// 4. Default style.
	stylePrompt := promptui.Select{
		Label: "Default reply style",
		Items: cfg.Chat.Styles,
	}
	_, cfg.Chat.DefaultStyle, err = stylePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("style selection: %w", err)
	}

	// 5. Default length.
	lengthPrompt := promptui.Select{
		Label: "Default reply length",
		Items: []string{"short (300 tokens)", "medium (600 tokens)", "long (900 tokens)"},
	}
	lengthIdx, _, err := lengthPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("length selection: %w", err)
	}
	cfg.Chat.DefaultLength = ReplyLengths[lengthIdx]

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("\nNote: overwriting existing %s\n", path)
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	fmt.Println("The OpenAI API key is entered on the chat page and is never written to disk.")
	return cfg, nil
}
