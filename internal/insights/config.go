package insights

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is built once at process start and passed to each component.
// All fields are read-only after Load returns.
type Config struct {
	BotToken        string
	SourceBotToken  string
	ChatID          int64
	GeminiAPIKey    string
	CredentialsJSON []byte
	TokenFile       string
	OffsetFile      string
	DriveFolder     string
	LogLevel        string
	LogPretty       bool
}

const (
	envBotToken        = "INSIGHTS_BOT_TOKEN"
	envSourceBotToken  = "INSIGHTS_SOURCE_BOT_TOKEN"
	envChatID          = "INSIGHTS_CHAT_ID"
	envGeminiAPIKey    = "INSIGHTS_GEMINI_API_KEY"
	envCredentials     = "INSIGHTS_GOOGLE_CREDENTIALS"
	envCredentialsFile = "INSIGHTS_GOOGLE_CREDENTIALS_FILE"
	envTokenFile       = "INSIGHTS_TOKEN_FILE"
	envOffsetFile      = "INSIGHTS_OFFSET_FILE"
	envDriveFolder     = "INSIGHTS_DRIVE_FOLDER"
	envLogLevel        = "INSIGHTS_LOG_LEVEL"
	envLogPretty       = "INSIGHTS_LOG_PRETTY"

	defaultDriveFolder = "Daily Insights"
)

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; absence is not an error.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BotToken:       strings.TrimSpace(os.Getenv(envBotToken)),
		SourceBotToken: strings.TrimSpace(os.Getenv(envSourceBotToken)),
		GeminiAPIKey:   strings.TrimSpace(os.Getenv(envGeminiAPIKey)),
		TokenFile:      strings.TrimSpace(os.Getenv(envTokenFile)),
		OffsetFile:     strings.TrimSpace(os.Getenv(envOffsetFile)),
		DriveFolder:    strings.TrimSpace(os.Getenv(envDriveFolder)),
		LogLevel:       strings.TrimSpace(os.Getenv(envLogLevel)),
		LogPretty:      envBool(envLogPretty),
	}

	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("%s is required", envBotToken)
	}

	// Only the primary bot token is a startup requirement. Everything else
	// degrades: without a chat ID every command is unauthorized, without a
	// Gemini key or source token the pipeline reports the failure per run.
	if rawChat := strings.TrimSpace(os.Getenv(envChatID)); rawChat != "" {
		chatID, err := strconv.ParseInt(rawChat, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", envChatID, rawChat, err)
		}
		cfg.ChatID = chatID
	}

	if inline := strings.TrimSpace(os.Getenv(envCredentials)); inline != "" {
		cfg.CredentialsJSON = []byte(inline)
	} else if path := strings.TrimSpace(os.Getenv(envCredentialsFile)); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read credentials file: %w", err)
		}
		cfg.CredentialsJSON = data
	}

	if cfg.DriveFolder == "" {
		cfg.DriveFolder = defaultDriveFolder
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = stateFile("token.json")
	}
	if cfg.OffsetFile == "" {
		cfg.OffsetFile = stateFile("updates.offset")
	}

	return cfg, nil
}

// StorageEnabled reports whether Drive credentials were configured. Missing
// credentials degrade the save path, they never halt startup.
func (c Config) StorageEnabled() bool {
	return len(c.CredentialsJSON) > 0
}

// FetchEnabled reports whether a source feed token was configured.
func (c Config) FetchEnabled() bool {
	return c.SourceBotToken != ""
}

func stateFile(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".insights-bot", name)
	}
	return filepath.Join(home, ".insights-bot", name)
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
