// Package calculator derives financial totals from roster state.
// All functions are pure; nothing here is cached, so results always
// reflect the state passed in.
package calculator

import (
	"fmt"
	"math"

	"github.com/jortega/cuaderno/internal/models"
)

// ShareTolerance is how far the manual share sum may drift from 100
// before a save is rejected (floating point slack).
const ShareTolerance = 0.01

// PayeeAmount is one payee's resolved slice of the monthly total.
type PayeeAmount struct {
	Name   string
	Share  float64 // resolved percentage, manual or preset
	Amount float64
}

// Totals is the derived financial view consumed by the presentation
// layer: the monthly total and each payee's cut.
type Totals struct {
	Total    float64
	PerPayee []PayeeAmount
}

// presetTable maps payee count to the selectable share distributions.
// Row order is stable because stored configs reference rows by index.
var presetTable = map[int][][]float64{
	1: {{100}},
	2: {{50, 50}, {60, 40}, {70, 30}, {80, 20}},
	3: {{34, 33, 33}, {40, 30, 30}, {50, 30, 20}, {60, 20, 20}},
	4: {{25, 25, 25, 25}, {40, 20, 20, 20}, {55, 15, 15, 15}},
	5: {{20, 20, 20, 20, 20}, {40, 15, 15, 15, 15}},
}

// defaultPreset is the fallback row per payee count when the stored
// preset index is out of range. Two payees default to 60/40, the
// historical split.
var defaultPreset = map[int]int{2: 1}

// PresetShares returns the share distribution for the given payee count
// and preset row. Out-of-range presets fall back to the default row for
// that count.
func PresetShares(count, preset int) []float64 {
	rows, ok := presetTable[count]
	if !ok {
		return nil
	}
	if preset < 0 || preset >= len(rows) {
		preset = defaultPreset[count]
	}
	out := make([]float64, count)
	copy(out, rows[preset])
	return out
}

// EffectiveAmount returns what a student actually contributes this
// month: zero when inactive, otherwise the nominal amount scaled by the
// attendance mode. Days mode charges amount/30 per attended day, with
// an unset day count contributing zero.
func EffectiveAmount(s models.Student) float64 {
	if !s.Active {
		return 0
	}
	switch s.Attendance {
	case models.AttendanceHalf:
		return s.Amount / 2
	case models.AttendanceDays:
		return s.Amount / 30 * float64(s.Days)
	default:
		return s.Amount
	}
}

// ValidateShares enforces the manual-mode invariant: payee shares must
// sum to exactly 100 within ShareTolerance.
func ValidateShares(payees []models.Payee) error {
	var sum float64
	for _, p := range payees {
		sum += p.Share
	}
	if math.Abs(sum-100) > ShareTolerance {
		return fmt.Errorf("payee shares must sum to 100, got %.2f", sum)
	}
	return nil
}

// Compute derives the monthly total and each payee's cut. Shares come
// from the config's manual values or from the preset table, depending
// on UseManualShares.
func Compute(students []models.Student, cfg models.Config) Totals {
	var total float64
	for _, s := range students {
		total += EffectiveAmount(s)
	}

	shares := make([]float64, len(cfg.Payees))
	if cfg.UseManualShares {
		for i, p := range cfg.Payees {
			shares[i] = p.Share
		}
	} else {
		copy(shares, PresetShares(len(cfg.Payees), cfg.Preset))
	}

	perPayee := make([]PayeeAmount, len(cfg.Payees))
	for i, p := range cfg.Payees {
		perPayee[i] = PayeeAmount{
			Name:   p.Name,
			Share:  shares[i],
			Amount: total * shares[i] / 100,
		}
	}

	return Totals{Total: total, PerPayee: perPayee}
}
