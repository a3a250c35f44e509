// Package settings loads and validates service configuration.
//
// Values come from an optional YAML file, overridden by TRIPFLOW_*
// environment variables. The Gemini and SerpAPI keys are mandatory:
// without them no request can succeed, so the process fails fast at
// startup. Amadeus and SMTP credentials are optional; without them the
// corresponding tools run degraded and report their absence to the model.
package settings

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jmallory/tripflow/pkg/flow/config"
)

// Settings is the resolved service configuration.
type Settings struct {
	ListenAddr string

	GeminiAPIKey string
	GeminiModel  string

	SerpAPIKey string

	AmadeusClientID     string
	AmadeusClientSecret string

	SMTPHost     string
	SMTPPort     int
	SenderEmail  string
	SMTPPassword string

	// JournalPath enables SQLite run journaling when set.
	JournalPath string
}

// Defaults applied before file and environment values.
const (
	defaultListenAddr  = ":8000"
	defaultGeminiModel = "gemini-2.0-flash"
)

// Load reads settings from the YAML file at path (skipped when path is
// empty or the file does not exist) and applies environment overrides.
func Load(path string) (Settings, error) {
	s := Settings{
		ListenAddr:  defaultListenAddr,
		GeminiModel: defaultGeminiModel,
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			cfg, err := config.FromFile(path)
			if err != nil {
				return Settings{}, fmt.Errorf("load settings file: %w", err)
			}
			s.applyConfig(cfg)
		}
	}

	s.applyEnv()
	return s, nil
}

// applyConfig copies values from a parsed config file.
func (s *Settings) applyConfig(cfg config.Config) {
	serverCfg := cfg.Section("server")
	s.ListenAddr = serverCfg.String("listen_addr", s.ListenAddr)

	geminiCfg := cfg.Section("gemini")
	s.GeminiAPIKey = geminiCfg.String("api_key", s.GeminiAPIKey)
	s.GeminiModel = geminiCfg.String("model", s.GeminiModel)

	searchCfg := cfg.Section("search")
	s.SerpAPIKey = searchCfg.String("api_key", s.SerpAPIKey)

	amadeusCfg := cfg.Section("amadeus")
	s.AmadeusClientID = amadeusCfg.String("client_id", s.AmadeusClientID)
	s.AmadeusClientSecret = amadeusCfg.String("client_secret", s.AmadeusClientSecret)

	emailCfg := cfg.Section("email")
	s.SMTPHost = emailCfg.String("smtp_host", s.SMTPHost)
	s.SMTPPort = emailCfg.Int("smtp_port", s.SMTPPort)
	s.SenderEmail = emailCfg.String("sender", s.SenderEmail)
	s.SMTPPassword = emailCfg.String("password", s.SMTPPassword)

	journalCfg := cfg.Section("journal")
	s.JournalPath = journalCfg.String("path", s.JournalPath)
}

// applyEnv overrides settings from TRIPFLOW_* environment variables.
func (s *Settings) applyEnv() {
	envString(&s.ListenAddr, "TRIPFLOW_LISTEN_ADDR")
	envString(&s.GeminiAPIKey, "TRIPFLOW_GEMINI_API_KEY")
	envString(&s.GeminiModel, "TRIPFLOW_GEMINI_MODEL")
	envString(&s.SerpAPIKey, "TRIPFLOW_SERP_API_KEY")
	envString(&s.AmadeusClientID, "TRIPFLOW_AMADEUS_CLIENT_ID")
	envString(&s.AmadeusClientSecret, "TRIPFLOW_AMADEUS_CLIENT_SECRET")
	envString(&s.SMTPHost, "TRIPFLOW_SMTP_HOST")
	envString(&s.SenderEmail, "TRIPFLOW_SENDER_EMAIL")
	envString(&s.SMTPPassword, "TRIPFLOW_SMTP_PASSWORD")
	envString(&s.JournalPath, "TRIPFLOW_JOURNAL_PATH")

	if v := os.Getenv("TRIPFLOW_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			s.SMTPPort = port
		}
	}
}

// envString overrides dst when the environment variable is set.
func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the mandatory collaborator keys. Optional collaborators
// (Amadeus, SMTP) are allowed to be absent; the tools degrade gracefully.
func (s Settings) Validate() error {
	if s.GeminiAPIKey == "" {
		return fmt.Errorf("gemini api key is not set: the application cannot function without it")
	}
	if s.SerpAPIKey == "" {
		return fmt.Errorf("serpapi key is not set: search tools will fail")
	}
	return nil
}

// AmadeusConfigured reports whether flight and hotel search can reach the
// real provider.
func (s Settings) AmadeusConfigured() bool {
	return s.AmadeusClientID != "" && s.AmadeusClientSecret != ""
}

// EmailConfigured reports whether the email tool has sender credentials.
func (s Settings) EmailConfigured() bool {
	return s.SenderEmail != "" && s.SMTPPassword != ""
}
