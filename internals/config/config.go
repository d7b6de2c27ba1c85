// Package config bootstraps credentials from the environment: the bot token
// and an optional cookies file reconstructed from a base64 blob so deploys
// without a writable config volume can still authenticate the extractor.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
)

const DefaultCookieFile = "cookies.txt"

type Config struct {
	BotToken   string
	CookieFile string
}

// Load reads BOT_TOKEN and, when COOKIES_B64 is set, materializes the cookie
// file next to the binary.
func Load() (Config, error) {
	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		return Config{}, errors.New("BOT_TOKEN not set")
	}

	cfg := Config{BotToken: token, CookieFile: DefaultCookieFile}
	if blob := os.Getenv("COOKIES_B64"); blob != "" {
		if err := WriteCookies(cfg.CookieFile, blob); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// WriteCookies decodes a base64 cookie blob to path.
func WriteCookies(path, blob string) error {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return fmt.Errorf("decode COOKIES_B64: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// HasCookies reports whether a usable cookie file is present on disk.
func (c Config) HasCookies() bool {
	stat, err := os.Stat(c.CookieFile)
	return err == nil && stat.Size() > 0
}

// CookiePath returns the cookie file path when usable, "" otherwise. The
// empty string tells the extractor layers to skip cookie authentication.
func (c Config) CookiePath() string {
	if c.HasCookies() {
		return c.CookieFile
	}
	return ""
}
