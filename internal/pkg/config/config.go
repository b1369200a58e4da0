// Package config loads the crawler configuration from an ini-style file.
// One [GENERAL] section carries run-wide defaults; every other section
// enables one bank and may override timeout and user agent.
package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

const (
	DefaultMaxParallel = 3
	DefaultTimeout     = 120 * time.Second
	DefaultOutputFile  = "output/Deposit_Rate_Data.xlsx"
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// BankConfig is one active bank section with GENERAL defaults applied.
type BankConfig struct {
	Name      string
	Timeout   time.Duration
	UserAgent string
}

type Config struct {
	MaxParallel int
	OutputFile  string
	DatabaseURL string
	Banks       []BankConfig
}

// Load reads the config file at path. Sections whose "active" key is not a
// truthy string (1/true/yes/on) are skipped entirely.
func Load(path string) (Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg := Config{
		MaxParallel: DefaultMaxParallel,
		OutputFile:  DefaultOutputFile,
	}

	general := file.Section("GENERAL")
	if v, err := general.Key("max_thread").Int(); err == nil && v > 0 {
		cfg.MaxParallel = v
	}
	if v := general.Key("output_file").String(); v != "" {
		cfg.OutputFile = v
	}
	cfg.DatabaseURL = general.Key("database_url").String()

	defaultTimeout := timeoutOrDefault(general.Key("timeout").String(), DefaultTimeout)
	defaultUA := general.Key("user_agent").String()
	if defaultUA == "" {
		defaultUA = DefaultUserAgent
	}

	for _, section := range file.Sections() {
		name := section.Name()
		if name == "GENERAL" || name == ini.DefaultSection {
			continue
		}
		if !truthy(section.Key("active").String()) {
			continue
		}

		bank := BankConfig{
			Name:      name,
			Timeout:   timeoutOrDefault(section.Key("timeout").String(), defaultTimeout),
			UserAgent: defaultUA,
		}
		if ua := section.Key("user_agent").String(); ua != "" {
			bank.UserAgent = ua
		}
		cfg.Banks = append(cfg.Banks, bank)
	}

	return cfg, nil
}

// truthy mirrors the accepted boolean-like strings of the config format.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// timeoutOrDefault parses a whole-seconds timeout value.
func timeoutOrDefault(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	var secs int
	if _, err := fmt.Sscanf(s, "%d", &secs); err != nil || secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}
