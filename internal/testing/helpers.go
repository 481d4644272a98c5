package testing

import (
	"time"

	"pkdindustries/chorus/internal/config"
)

// DefaultTestConfig returns a minimal valid configuration for testing
func DefaultTestConfig() *config.Configuration {
	return &config.Configuration{
		Server: &config.ServerConfig{
			Nick:      "testbot",
			Server:    "irc.test.local",
			Port:      6667,
			Channel:   "#test",
			ChunkMax:  350,
			WindowTTL: time.Minute * 10,
		},
		Discord: &config.DiscordConfig{
			Token: "test-token",
		},
		Bot: &config.BotConfig{
			Platforms:  []string{config.PlatformDiscord},
			Admins:     []string{},
			ShowTyping: true,
			TypingCap:  0,
		},
		Model: &config.ModelConfig{
			Provider:    config.ProviderAnthropic,
			Model:       "test-model",
			MaxTokens:   100,
			Temperature: 0.7,
		},
		Prompt: &config.PromptConfig{
			HistoryLimit: 10,
		},
		API: &config.APIConfig{
			Timeout:      time.Second * 30,
			Attempts:     1,
			AnthropicKey: "test-key",
		},
	}
}
