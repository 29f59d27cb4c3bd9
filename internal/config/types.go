package config

// Config is the top-level diamonddesk configuration, corresponding to .diamonddesk.yml.
type Config struct {
	Port            int         `yaml:"port" koanf:"port"`
	AllowAllOrigins bool        `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	DBPath          string      `yaml:"db_path" koanf:"db_path"` // empty keeps the ledger in memory
	Model           ModelConfig `yaml:"model" koanf:"model"`
	Chat            ChatConfig  `yaml:"chat" koanf:"chat"`
}

// ModelConfig locates the price regression model.
type ModelConfig struct {
	// Artifact is a name or path without extension; .yaml, .yml and .json are tried.
	Artifact string `yaml:"artifact" koanf:"artifact"`
	// Endpoint, when set, sends records to a remote inference server instead.
	Endpoint       string `yaml:"endpoint" koanf:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// ChatConfig holds the chat assistant defaults.
type ChatConfig struct {
	Model              string   `yaml:"model" koanf:"model"`
	BaseURL            string   `yaml:"base_url" koanf:"base_url"`
	Styles             []string `yaml:"styles" koanf:"styles"`
	DefaultStyle       string   `yaml:"default_style" koanf:"default_style"`
	DefaultLength      int      `yaml:"default_length" koanf:"default_length"`
	DefaultTemperature float64  `yaml:"default_temperature" koanf:"default_temperature"`
	RequestsPerMinute  int      `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	// IdleMinutes ends conversations nobody has touched for this long; 0 keeps them until ended.
	IdleMinutes int `yaml:"idle_minutes" koanf:"idle_minutes"`
}
