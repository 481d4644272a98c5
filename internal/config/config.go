package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"pkdindustries/chorus/internal/core"
)

const (
	PlatformDiscord = "discord"
	PlatformIRC     = "irc"

	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderPolly     = "polly"
)

type Configuration struct {
	Server  *ServerConfig
	Discord *DiscordConfig
	Bot     *BotConfig
	Model   *ModelConfig
	Prompt  *PromptConfig
	API     *APIConfig
}

// ServerConfig holds the IRC connection settings
type ServerConfig struct {
	Nick        string
	Server      string
	Port        int
	Channel     string
	SSL         bool
	TLSInsecure bool
	SASLNick    string
	SASLPass    string
	ChunkMax    int
	WindowTTL   time.Duration
}

type DiscordConfig struct {
	Token   string
	GuildID string
}

type BotConfig struct {
	Platforms      []string
	Admins         []string
	Verbose        bool
	ShowTyping     bool
	TypingCap      time.Duration
	ReplyToTrigger bool
}

type ModelConfig struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float32
}

type PromptConfig struct {
	IdentityPath   string
	GuidelinesPath string
	HistoryLimit   int
}

type APIConfig struct {
	Timeout      time.Duration
	Attempts     int
	OpenAIKey    string
	OpenAIURL    string
	AnthropicKey string
	GeminiKey    string
	OllamaURL    string
	OllamaKey    string
}

// YamlSource implements cli.ValueSource for a map loaded from YAML
type YamlSource struct {
	data map[string]any
	key  string
}

func (y *YamlSource) Lookup() (string, bool) {
	if v, ok := y.data[y.key]; ok {
		if slice, ok := v.([]any); ok {
			var strs []string
			for _, item := range slice {
				strs = append(strs, fmt.Sprintf("%v", item))
			}
			return strings.Join(strs, ","), true
		}
		return fmt.Sprintf("%v", v), true
	}
	return "", false
}

func (y *YamlSource) String() string   { return "yaml" }
func (y *YamlSource) GoString() string { return "yaml" }

func GetFlags() []cli.Flag {
	configPath := getConfigPath(os.Args)
	var configData map[string]any
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err == nil {
			_ = yaml.Unmarshal(data, &configData)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config file %s: %v\n", configPath, err)
		}
	}
	return flagsWithSource(configData)
}

// flagsWithSource builds the flag set. Value precedence: EnvVar > YAML > Default
func flagsWithSource(configData map[string]any) []cli.Flag {
	src := func(key string, env ...string) cli.ValueSourceChain {
		chain := cli.ValueSourceChain{}
		for _, e := range env {
			chain.Chain = append(chain.Chain, cli.EnvVar(e))
		}
		if configData != nil {
			chain.Chain = append(chain.Chain, &YamlSource{data: configData, key: key})
		}
		return chain
	}

	return []cli.Flag{
		// Config file
		&cli.StringFlag{Name: "config", Aliases: []string{"b"}, Usage: "use the named configuration file", Sources: cli.EnvVars("CHORUS_CONFIG")},

		// Platforms
		&cli.StringSliceFlag{Name: "platform", Value: []string{PlatformDiscord}, Usage: "chat platforms to connect to (discord, irc)", Sources: src("platform", "CHORUS_PLATFORM")},
		&cli.StringFlag{Name: "discordtoken", Usage: "discord bot token", Sources: src("discordtoken", "CHORUS_DISCORDTOKEN", "DISCORD_TOKEN")},
		&cli.StringFlag{Name: "discordguild", Usage: "only answer in this discord guild (empty for all)", Sources: src("discordguild", "CHORUS_DISCORDGUILD")},

		// IRC Client Configuration
		&cli.StringFlag{Name: "nick", Aliases: []string{"n"}, Value: "chorus", Usage: "bot's nickname on the irc server", Sources: src("nick", "CHORUS_NICK")},
		&cli.StringFlag{Name: "server", Aliases: []string{"s"}, Value: "localhost", Usage: "irc server address", Sources: src("server", "CHORUS_SERVER")},
		&cli.BoolFlag{Name: "tls", Aliases: []string{"e"}, Usage: "enable TLS for the IRC connection", Sources: src("tls", "CHORUS_TLS")},
		&cli.BoolFlag{Name: "tlsinsecure", Usage: "skip TLS certificate verification", Sources: src("tlsinsecure", "CHORUS_TLSINSECURE")},
		&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 6667, Usage: "irc server port", Sources: src("port", "CHORUS_PORT")},
		&cli.StringFlag{Name: "channel", Aliases: []string{"c"}, Usage: "irc channel to join", Sources: src("channel", "CHORUS_CHANNEL")},
		&cli.StringFlag{Name: "saslnick", Usage: "nick used for SASL", Sources: src("saslnick", "CHORUS_SASLNICK")},
		&cli.StringFlag{Name: "saslpass", Usage: "password for SASL plain", Sources: src("saslpass", "CHORUS_SASLPASS")},
		&cli.IntFlag{Name: "chunkmax", Aliases: []string{"m"}, Value: 350, Usage: "maximum number of characters to send as a single irc message", Sources: src("chunkmax", "CHORUS_CHUNKMAX")},
		&cli.DurationFlag{Name: "sessionduration", Aliases: []string{"S"}, Value: time.Minute * 30, Usage: "irc channel history is dropped after it is unused for this duration", Sources: src("sessionduration", "CHORUS_SESSIONDURATION")},

		// Bot Configuration
		&cli.StringSliceFlag{Name: "admins", Aliases: []string{"A"}, Usage: "user ids (discord) or hostmasks (irc) allowed to use admin commands", Sources: src("admins", "CHORUS_ADMINS")},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"V"}, Usage: "enable verbose logging", Sources: src("verbose", "CHORUS_VERBOSE")},
		&cli.BoolFlag{Name: "showtyping", Value: true, Usage: "show a typing indicator while generating and sending", Sources: src("showtyping", "CHORUS_SHOWTYPING")},
		&cli.DurationFlag{Name: "typingcap", Value: 1500 * time.Millisecond, Usage: "upper bound of the simulated typing delay between messages", Sources: src("typingcap", "CHORUS_TYPINGCAP")},
		&cli.BoolFlag{Name: "replytotrigger", Usage: "send the first message as a reply to the triggering message", Sources: src("replytotrigger", "CHORUS_REPLYTOTRIGGER")},

		// API Configuration
		&cli.StringFlag{Name: "provider", Value: ProviderAnthropic, Usage: "completion backend (anthropic, openai, polly)", Sources: src("provider", "CHORUS_PROVIDER")},
		&cli.StringFlag{Name: "anthropickey", Usage: "Anthropic API key", Sources: src("anthropickey", "CHORUS_ANTHROPICKEY", "ANTHROPIC_API_KEY")},
		&cli.StringFlag{Name: "openaikey", Usage: "OpenAI API key", Sources: src("openaikey", "CHORUS_OPENAIKEY")},
		&cli.StringFlag{Name: "openaiurl", Usage: "OpenAI API URL (for custom endpoints)", Sources: src("openaiurl", "CHORUS_OPENAIURL")},
		&cli.StringFlag{Name: "geminikey", Usage: "Google Gemini API key (polly provider)", Sources: src("geminikey", "CHORUS_GEMINIKEY")},
		&cli.StringFlag{Name: "ollamaurl", Value: "http://localhost:11434", Usage: "Ollama API URL (polly provider)", Sources: src("ollamaurl", "CHORUS_OLLAMAURL")},
		&cli.StringFlag{Name: "ollamakey", Usage: "Ollama API key (Bearer token for authentication)", Sources: src("ollamakey", "CHORUS_OLLAMAKEY")},
		&cli.IntFlag{Name: "maxtokens", Value: 2000, Usage: "maximum number of tokens to generate", Sources: src("maxtokens", "CHORUS_MAXTOKENS")},
		&cli.StringFlag{Name: "model", Value: "claude-sonnet-4-5", Usage: "model to be used for responses", Sources: src("model", "CHORUS_MODEL")},
		&cli.FloatFlag{Name: "temperature", Value: 0.7, Usage: "temperature for the completion", Sources: src("temperature", "CHORUS_TEMPERATURE")},
		&cli.DurationFlag{Name: "apitimeout", Aliases: []string{"t"}, Value: time.Minute * 2, Usage: "timeout for handling one trigger, completion included", Sources: src("apitimeout", "CHORUS_APITIMEOUT")},
		&cli.IntFlag{Name: "attempts", Value: 3, Usage: "total tries for a completion that fails with a transient error", Sources: src("attempts", "CHORUS_ATTEMPTS")},

		// Personality / Prompting
		&cli.StringFlag{Name: "identity", Value: "prompts/profile.txt", Usage: "file with the identity block of the system prompt", Sources: src("identity", "CHORUS_IDENTITY")},
		&cli.StringFlag{Name: "guidelines", Value: "prompts/base.txt", Usage: "file with the behavior guidelines of the system prompt", Sources: src("guidelines", "CHORUS_GUIDELINES")},
		&cli.IntFlag{Name: "historylimit", Aliases: []string{"H"}, Value: 10, Usage: "number of recent channel messages included in the prompt", Sources: src("historylimit", "CHORUS_HISTORYLIMIT")},
	}
}

func getConfigPath(args []string) string {
	if v := os.Getenv("CHORUS_CONFIG"); v != "" {
		return v
	}
	for i, arg := range args {
		if arg == "--config" || arg == "-b" {
			if i+1 < len(args) {
				return args[i+1]
			}
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

// maskSecret keeps the last three characters of a secret visible
func maskSecret(s string) string {
	if len(s) <= 3 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-3) + s[len(s)-3:]
}

func (c *Configuration) PrintConfig() {
	fmt.Printf("platform: %v\n", c.Bot.Platforms)
	fmt.Printf("discordtoken: %s\n", maskSecret(c.Discord.Token))
	fmt.Printf("discordguild: %s\n", c.Discord.GuildID)
	fmt.Printf("nick: %s\n", c.Server.Nick)
	fmt.Printf("server: %s\n", c.Server.Server)
	fmt.Printf("port: %d\n", c.Server.Port)
	fmt.Printf("channel: %s\n", c.Server.Channel)
	fmt.Printf("tls: %t\n", c.Server.SSL)
	fmt.Printf("tlsinsecure: %t\n", c.Server.TLSInsecure)
	fmt.Printf("saslnick: %s\n", c.Server.SASLNick)
	fmt.Printf("saslpass: %s\n", maskSecret(c.Server.SASLPass))
	fmt.Printf("chunkmax: %d\n", c.Server.ChunkMax)
	fmt.Printf("sessionduration: %s\n", c.Server.WindowTTL)
	fmt.Printf("admins: %v\n", c.Bot.Admins)
	fmt.Printf("verbose: %t\n", c.Bot.Verbose)
	fmt.Printf("showtyping: %t\n", c.Bot.ShowTyping)
	fmt.Printf("typingcap: %s\n", c.Bot.TypingCap)
	fmt.Printf("replytotrigger: %t\n", c.Bot.ReplyToTrigger)
	fmt.Printf("provider: %s\n", c.Model.Provider)
	fmt.Printf("model: %s\n", c.Model.Model)
	fmt.Printf("maxtokens: %d\n", c.Model.MaxTokens)
	fmt.Printf("temperature: %f\n", c.Model.Temperature)
	fmt.Printf("apitimeout: %s\n", c.API.Timeout)
	fmt.Printf("attempts: %d\n", c.API.Attempts)
	fmt.Printf("anthropickey: %s\n", maskSecret(c.API.AnthropicKey))
	fmt.Printf("openaikey: %s\n", maskSecret(c.API.OpenAIKey))
	fmt.Printf("geminikey: %s\n", maskSecret(c.API.GeminiKey))
	fmt.Printf("openaiurl: %s\n", c.API.OpenAIURL)
	fmt.Printf("ollamaurl: %s\n", c.API.OllamaURL)
	fmt.Printf("identity: %s\n", c.Prompt.IdentityPath)
	fmt.Printf("guidelines: %s\n", c.Prompt.GuidelinesPath)
	fmt.Printf("historylimit: %d\n", c.Prompt.HistoryLimit)
}

func NewConfiguration(c *cli.Command) *Configuration {
	if c.IsSet("config") {
		zap.S().Infow("Using config file", "path", c.String("config"))
	}

	return &Configuration{
		Server: &ServerConfig{
			Nick:        c.String("nick"),
			Server:      c.String("server"),
			Port:        c.Int("port"),
			Channel:     c.String("channel"),
			SSL:         c.Bool("tls"),
			TLSInsecure: c.Bool("tlsinsecure"),
			SASLNick:    c.String("saslnick"),
			SASLPass:    c.String("saslpass"),
			ChunkMax:    c.Int("chunkmax"),
			WindowTTL:   c.Duration("sessionduration"),
		},
		Discord: &DiscordConfig{
			Token:   c.String("discordtoken"),
			GuildID: c.String("discordguild"),
		},
		Bot: &BotConfig{
			Platforms:      normalize(c.StringSlice("platform")),
			Admins:         c.StringSlice("admins"),
			Verbose:        c.Bool("verbose"),
			ShowTyping:     c.Bool("showtyping"),
			TypingCap:      c.Duration("typingcap"),
			ReplyToTrigger: c.Bool("replytotrigger"),
		},
		Model: &ModelConfig{
			Provider:    strings.ToLower(c.String("provider")),
			Model:       c.String("model"),
			MaxTokens:   c.Int("maxtokens"),
			Temperature: float32(c.Float("temperature")),
		},
		Prompt: &PromptConfig{
			IdentityPath:   c.String("identity"),
			GuidelinesPath: c.String("guidelines"),
			HistoryLimit:   c.Int("historylimit"),
		},
		API: &APIConfig{
			Timeout:      c.Duration("apitimeout"),
			Attempts:     c.Int("attempts"),
			OpenAIKey:    c.String("openaikey"),
			OpenAIURL:    c.String("openaiurl"),
			AnthropicKey: c.String("anthropickey"),
			GeminiKey:    c.String("geminikey"),
			OllamaURL:    c.String("ollamaurl"),
			OllamaKey:    c.String("ollamakey"),
		},
	}
}

func normalize(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// HasPlatform reports whether the named platform is enabled
func (c *Configuration) HasPlatform(name string) bool {
	return slices.Contains(c.Bot.Platforms, name)
}

// Validate checks the settings the bot cannot start without.
// Every error wraps core.ErrConfig.
func (c *Configuration) Validate() error {
	if len(c.Bot.Platforms) == 0 {
		return fmt.Errorf("%w: no platform configured", core.ErrConfig)
	}
	for _, p := range c.Bot.Platforms {
		switch p {
		case PlatformDiscord:
			if c.Discord.Token == "" {
				return fmt.Errorf("%w: discordtoken is required for the discord platform", core.ErrConfig)
			}
		case PlatformIRC:
			if c.Server.Channel == "" {
				return fmt.Errorf("%w: channel is required for the irc platform", core.ErrConfig)
			}
			if c.Server.ChunkMax <= 0 {
				return fmt.Errorf("%w: chunkmax must be positive", core.ErrConfig)
			}
		default:
			return fmt.Errorf("%w: unknown platform %q", core.ErrConfig, p)
		}
	}

	switch c.Model.Provider {
	case ProviderAnthropic:
		if c.API.AnthropicKey == "" {
			return fmt.Errorf("%w: anthropickey is required for the anthropic provider", core.ErrConfig)
		}
	case ProviderOpenAI:
		if c.API.OpenAIKey == "" && c.API.OpenAIURL == "" {
			return fmt.Errorf("%w: openaikey or openaiurl is required for the openai provider", core.ErrConfig)
		}
	case ProviderPolly:
		if !strings.Contains(c.Model.Model, "/") {
			return fmt.Errorf("%w: polly models are named provider/model, got %q", core.ErrConfig, c.Model.Model)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q", core.ErrConfig, c.Model.Provider)
	}

	if c.Model.Model == "" {
		return fmt.Errorf("%w: model is required", core.ErrConfig)
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("%w: maxtokens must be positive", core.ErrConfig)
	}
	if c.Prompt.HistoryLimit <= 0 {
		return fmt.Errorf("%w: historylimit must be positive", core.ErrConfig)
	}
	if c.API.Attempts < 1 {
		return fmt.Errorf("%w: attempts must be at least 1", core.ErrConfig)
	}
	return nil
}
