package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/clogkeeper/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointers
// tell an absent key apart from a zero value.
type JsonConfig struct {
	DataDir      *string `json:"data_dir"`
	Editor       *string `json:"editor"`
	LogLevel     *string `json:"log_level"`
	Cipher       *string `json:"cipher"`
	KDFTime      *uint32 `json:"kdf_time"`
	KDFMemoryKiB *uint32 `json:"kdf_memory_kib"`
	KDFThreads   *uint8  `json:"kdf_threads"`
}

// parseJson overlays cfg with the JSON file named by -c or -config in args.
// Without either flag it does nothing. It panics on read or unmarshal
// errors.
func parseJson(cfg *Config, args []string) {
	path := flagx.JSONConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	set(&cfg.DataDir, jc.DataDir)
	set(&cfg.Editor, jc.Editor)
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.Cipher, jc.Cipher)
	set(&cfg.KDFTime, jc.KDFTime)
	set(&cfg.KDFMemoryKiB, jc.KDFMemoryKiB)
	set(&cfg.KDFThreads, jc.KDFThreads)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
