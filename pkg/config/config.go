package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Server   ServerConfig   `json:"server"`
	Model    ModelConfig    `json:"model"`
	Chat     ChatConfig     `json:"chat"`
	Data     DataConfig     `json:"data"`
	ConvLog  ConvLogConfig  `json:"conversation_log"`
	Channels ChannelsConfig `json:"channels"`
	Support  SupportConfig  `json:"support"`
	mu       sync.RWMutex
}

type ServerConfig struct {
	Host string `json:"host" env:"SUPPORTBOT_SERVER_HOST"`
	Port int    `json:"port" env:"SUPPORTBOT_SERVER_PORT"`
}

// ModelConfig points at a locally hosted llama.cpp server and fixes
// the decoding parameters used for every fallback completion.
type ModelConfig struct {
	BaseURL        string   `json:"base_url" env:"SUPPORTBOT_MODEL_BASE_URL"`
	MaxTokens      int      `json:"max_tokens" env:"SUPPORTBOT_MODEL_MAX_TOKENS"`
	Temperature    float64  `json:"temperature" env:"SUPPORTBOT_MODEL_TEMPERATURE"`
	TopP           float64  `json:"top_p" env:"SUPPORTBOT_MODEL_TOP_P"`
	TopK           int      `json:"top_k" env:"SUPPORTBOT_MODEL_TOP_K"`
	RepeatPenalty  float64  `json:"repeat_penalty" env:"SUPPORTBOT_MODEL_REPEAT_PENALTY"`
	Stop           []string `json:"stop"`
	TimeoutSeconds int      `json:"timeout_seconds" env:"SUPPORTBOT_MODEL_TIMEOUT_SECONDS"` // 0 = no timeout
	MaxConcurrent  int      `json:"max_concurrent" env:"SUPPORTBOT_MODEL_MAX_CONCURRENT"`
}

type ChatConfig struct {
	MaxHistory     int    `json:"max_history" env:"SUPPORTBOT_CHAT_MAX_HISTORY"`
	DefaultSession string `json:"default_session" env:"SUPPORTBOT_CHAT_DEFAULT_SESSION"`
}

type DataConfig struct {
	Dir            string `json:"dir" env:"SUPPORTBOT_DATA_DIR"`
	Restaurants    string `json:"restaurants" env:"SUPPORTBOT_DATA_RESTAURANTS"`
	Menu           string `json:"menu" env:"SUPPORTBOT_DATA_MENU"`
	Orders         string `json:"orders" env:"SUPPORTBOT_DATA_ORDERS"`
	ConversationDB string `json:"conversation_db" env:"SUPPORTBOT_DATA_CONVERSATION_DB"`
}

type ConvLogConfig struct {
	RetentionDays   int    `json:"retention_days" env:"SUPPORTBOT_CONVLOG_RETENTION_DAYS"`
	CleanupSchedule string `json:"cleanup_schedule" env:"SUPPORTBOT_CONVLOG_CLEANUP_SCHEDULE"`
}

type ChannelsConfig struct {
	Discord DiscordConfig `json:"discord"`
}

type DiscordConfig struct {
	Token     string              `json:"token" env:"SUPPORTBOT_CHANNELS_DISCORD_TOKEN"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"SUPPORTBOT_CHANNELS_DISCORD_ALLOW_FROM"`
}

type SupportConfig struct {
	Phone string `json:"phone" env:"SUPPORTBOT_SUPPORT_PHONE"`
}

// WelcomeMessage greets interactive sessions before the first message.
const WelcomeMessage = `👋 Welcome to FeastLine Support! I'm your AI assistant.

I can help you with:
• 📦 Order tracking (provide order ID)
• 🍴 Restaurant discovery
• 📋 Menu browsing
• ⚡ Quick delivery options
• ⭐ Popular recommendations

How can I assist you today?`

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Model: ModelConfig{
			BaseURL:        "http://127.0.0.1:8080",
			MaxTokens:      150,
			Temperature:    0.7,
			TopP:           0.95,
			TopK:           40,
			RepeatPenalty:  1.1,
			Stop:           []string{"User:", "\n\n"},
			TimeoutSeconds: 0,
			MaxConcurrent:  4,
		},
		Chat: ChatConfig{
			MaxHistory:     20,
			DefaultSession: "default",
		},
		Data: DataConfig{
			Dir:            "data",
			Restaurants:    "restaurants.json",
			Menu:           "menu.json",
			Orders:         "orders.json",
			ConversationDB: "conversations.db",
		},
		ConvLog: ConvLogConfig{
			RetentionDays:   90,
			CleanupSchedule: "0 3 * * *",
		},
		Channels: ChannelsConfig{
			Discord: DiscordConfig{
				Token:     "",
				AllowFrom: FlexibleStringSlice{},
			},
		},
		Support: SupportConfig{
			Phone: "1800-1234-5678",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func (c *Config) ListenAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) DataPath(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filepath.Join(expandHome(c.Data.Dir), name)
}

func (c *Config) ConversationDBPath() string {
	return c.DataPath(c.Data.ConversationDB)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
