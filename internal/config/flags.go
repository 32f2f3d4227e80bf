package config

import (
	"flag"

	"github.com/dmitrijs2005/clogkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// Flags that belong to other components are filtered out first with
// flagx.FilterArgs. It panics on malformed flags.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-d", "-e", "-l", "-cipher"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "directory holding the containers")
	fs.StringVar(&cfg.Editor, "e", cfg.Editor, "external editor command")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Cipher, "cipher", cfg.Cipher, "cipher suite for new containers")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
