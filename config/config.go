package config

import (
	"encoding/json"
	"log"
	"os"
)

// DraftSettings controla a persistência e a limpeza de rascunhos.
// Ausência de chave no config.json cai nos defaults de applyDefaults.
type DraftSettings struct {
	AutoSaveIntervalSeconds int    `json:"auto_save_interval_seconds"`
	MaxAutoSavedPerUser     int    `json:"max_auto_saved_per_user"`
	AutoSaveRetentionDays   int    `json:"auto_save_retention_days"`
	ManualRetentionDays     int    `json:"manual_draft_retention_days"`
	EnableAutoCleanup       *bool  `json:"enable_auto_cleanup"`
	CleanupSchedule         string `json:"cleanup_schedule"` // daily | weekly | monthly
	CleanupTime             string `json:"cleanup_time"`     // "HH:MM" (hora local do processo)
	CleanupOnStartup        bool   `json:"cleanup_on_startup"`
	CleanupOnLogin          bool   `json:"cleanup_on_login"`
}

// AutoCleanupEnabled trata ausência da chave como habilitado (default true).
func (d DraftSettings) AutoCleanupEnabled() bool {
	return d.EnableAutoCleanup == nil || *d.EnableAutoCleanup
}

type Configuration struct {
	ApiPort string `json:"api_port"`
	LogPath string `json:"log_path"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	Security struct {
		JwtSecret           string `json:"jwt_secret"`
		RefreshCodeLen      int    `json:"refresh_code_len"`
		RefreshCodeMaxValid int    `json:"refresh_code_max_valid_days"`
	} `json:"security"`

	Drafts DraftSettings `json:"drafts"`
}

// Defaults returns a Configuration with every default applied.
// Get() uses the same path; tests use this directly.
func Defaults() Configuration {
	var c Configuration
	applyDefaults(&c)
	return c
}

func Get(path string) Configuration {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		log.Fatal(err)
	}

	applyDefaults(&c)
	return c
}

// defaults (pra evitar nil/zero chato)
func applyDefaults(c *Configuration) {
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Security.RefreshCodeLen <= 0 {
		c.Security.RefreshCodeLen = 32
	}
	if c.Security.RefreshCodeMaxValid <= 0 {
		c.Security.RefreshCodeMaxValid = 30
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}

	if c.Drafts.AutoSaveIntervalSeconds <= 0 {
		c.Drafts.AutoSaveIntervalSeconds = 30
	}
	if c.Drafts.MaxAutoSavedPerUser <= 0 {
		c.Drafts.MaxAutoSavedPerUser = 10
	}
	if c.Drafts.AutoSaveRetentionDays <= 0 {
		c.Drafts.AutoSaveRetentionDays = 7
	}
	if c.Drafts.ManualRetentionDays <= 0 {
		c.Drafts.ManualRetentionDays = 30
	}
	if c.Drafts.CleanupSchedule == "" {
		c.Drafts.CleanupSchedule = "daily"
	}
	if c.Drafts.CleanupTime == "" {
		c.Drafts.CleanupTime = "02:00"
	}
}
