package main

import (
	"github.com/BurntSushi/toml"

	"github.com/go8bit/tinybasic/core"
)

// config holds the handful of knobs a hosted port needs: program buffer
// size and optional persistence file paths backing EEPROM/serial. Loaded
// from an optional TOML file per --config, with flags taking precedence
// over whatever the file sets.
type config struct {
	configPath string

	BufSize      int    `toml:"buf_size"`
	EEPROMPath   string `toml:"eeprom_path"`
	SerialPath   string `toml:"serial_path"`
	RunAfterLoad bool   `toml:"run_after_load"`
}

func defaultConfig() *config {
	return &config{BufSize: core.DefaultBufSize}
}

// loadConfig merges cfg.configPath's TOML contents into cfg, if a path
// was given. cobra has already parsed the flags when this runs; the root
// command's PersistentPreRunE re-applies the ones set explicitly on the
// command line afterwards, so they always win.
func loadConfig(cfg *config) error {
	if cfg.configPath == "" {
		return nil
	}
	_, err := toml.DecodeFile(cfg.configPath, cfg)
	return err
}
