// Package config loads runtime configuration for the clog CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string        directory holding the <user>.clog containers
//	-e string        external editor command
//	-l string        log level: debug, info, warn, error
//	-cipher string   cipher suite for new containers: aes-256-gcm, chacha20-poly1305
//
// # JSON schema
//
// Every key is optional; absent keys keep the default.
//
//	{
//	  "data_dir": "/home/alice/.local/share/clog",
//	  "editor": "nvim",
//	  "log_level": "warn",
//	  "cipher": "aes-256-gcm",
//	  "kdf_time": 1,
//	  "kdf_memory_kib": 65536,
//	  "kdf_threads": 4
//	}
//
// The KDF settings apply to containers created or re-keyed afterwards.
// Existing containers carry their own parameters in their header.
package config
