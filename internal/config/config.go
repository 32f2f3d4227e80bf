package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/clogkeeper/internal/cryptox"
	"github.com/dmitrijs2005/clogkeeper/internal/filex"
	"github.com/dmitrijs2005/clogkeeper/internal/logging"
)

// Config holds runtime settings for the clog CLI.
type Config struct {
	DataDir  string
	Editor   string
	LogLevel string
	Cipher   string

	KDFTime      uint32
	KDFMemoryKiB uint32
	KDFThreads   uint8
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	dir, err := filex.DefaultDataDir()
	if err != nil {
		dir = "."
	}
	p := cryptox.DefaultKDFParams()

	c.DataDir = dir
	c.Editor = ""
	c.LogLevel = "warn"
	c.Cipher = cryptox.CipherAES256GCM.String()
	c.KDFTime = p.Time
	c.KDFMemoryKiB = p.MemoryKiB
	c.KDFThreads = p.Threads
}

// KDFParams returns the derivation params for new containers.
func (c *Config) KDFParams() cryptox.KDFParams {
	p := cryptox.DefaultKDFParams()
	p.Time = c.KDFTime
	p.MemoryKiB = c.KDFMemoryKiB
	p.Threads = c.KDFThreads
	return p
}

// Validate checks the values that are parsed later by other packages.
func (c *Config) Validate() error {
	if _, err := cryptox.ParseCipherSuite(c.Cipher); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if err := c.KDFParams().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// CipherSuite returns the configured suite.
func (c *Config) CipherSuite() cryptox.CipherSuite {
	s, err := cryptox.ParseCipherSuite(c.Cipher)
	if err != nil {
		return cryptox.CipherAES256GCM
	}
	return s
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	l, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return l
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
