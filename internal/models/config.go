package models

import (
	"encoding/json"
	"fmt"
)

// MaxPayees caps how many payees a config may hold.
const MaxPayees = 5

// Payee represents one recipient of a slice of the monthly total.
type Payee struct {
	// Name is the display label. Blank names are defaulted on save.
	Name string `json:"name"`

	// Share is a percentage (0-100). Only authoritative when the
	// config has UseManualShares set; otherwise shares come from the
	// preset table for the payee count.
	Share float64 `json:"share"`
}

// Config holds how the monthly total is divided among payees.
// There is exactly one Config per user/installation.
type Config struct {
	// Payees in payout order. Insertion order is display order.
	Payees []Payee `json:"payees"`

	// UseManualShares switches between preset-driven shares (false)
	// and the manually entered Share values (true).
	UseManualShares bool `json:"useManualShares"`

	// Preset selects a row of the preset table for the current payee
	// count. Out-of-range values fall back to the default row.
	Preset int `json:"preset"`
}

// legacyConfig is the pre-payee-list shape: two named payees and the
// first one's percentage. Kept only for decoding old stored configs.
type legacyConfig struct {
	FirstPayee  string   `json:"firstPayee"`
	SecondPayee string   `json:"secondPayee"`
	FirstShare  *float64 `json:"firstShare"`
}

// DefaultConfig returns the configuration used before the user has
// saved one: two payees on the 60/40 preset.
func DefaultConfig() Config {
	return Config{
		Payees: []Payee{
			{Name: "Profesor 1", Share: 60},
			{Name: "Profesor 2", Share: 40},
		},
		UseManualShares: false,
		Preset:          1, // 60/40 row of the two-payee table
	}
}

// DecodeConfig parses a stored configuration, accepting both the
// current payee-list shape and the legacy two-name shape. Legacy
// configs are upgraded in place: the two names are preserved and the
// single percentage splits 100 between them. The caller persists the
// result, so the legacy shape disappears on the next save.
func DecodeConfig(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if len(cfg.Payees) > 0 {
		return cfg, nil
	}

	var legacy legacyConfig
	if err := json.Unmarshal(data, &legacy); err != nil {
		return Config{}, fmt.Errorf("failed to decode legacy config: %w", err)
	}
	if legacy.FirstPayee == "" && legacy.SecondPayee == "" && legacy.FirstShare == nil {
		// Neither shape matched; treat as never-saved.
		return DefaultConfig(), nil
	}
	return upgradeLegacy(legacy), nil
}

func upgradeLegacy(legacy legacyConfig) Config {
	first := legacy.FirstPayee
	if first == "" {
		first = "Profesor 1"
	}
	second := legacy.SecondPayee
	if second == "" {
		second = "Profesor 2"
	}
	share := 60.0
	if legacy.FirstShare != nil && *legacy.FirstShare >= 0 && *legacy.FirstShare <= 100 {
		share = *legacy.FirstShare
	}
	return Config{
		Payees: []Payee{
			{Name: first, Share: share},
			{Name: second, Share: 100 - share},
		},
		UseManualShares: false,
		Preset:          1,
	}
}
