// Package synth wraps one or more go-meltysynth engines behind a single
// mutex-protected handle, presenting the per-channel program model the
// Conn facade and exporter expect. Grounded on
// original_source/audio/src/synthesizer.rs (SoundFontBanks, the
// HashMap<PathBuf, SoundFontBanks> registry) and
// zurustar-son-et/pkg/engine/midi_player.go for the concrete
// go-meltysynth call sequence.
package synth

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

// BankScanLow and BankScanHigh bound the bank numbers probed when
// enumerating the presets a SoundFont exposes. The inclusive range
// matches the newer of the two copies of this scan in the prototype
// (audio/src/conn.rs: SoundFontBanks::new uses 0..129); the older copy in
// synthesizer.rs stops at 128 and silently drops bank 128, which this
// engine does not reproduce.
const (
	BankScanLow  = 0
	BankScanHigh = 128
)

// Preset identifies one (bank, patch) pair a SoundFont can play on a
// MIDI program-change.
type Preset struct {
	Bank  int32
	Patch int32
	Name  string
}

// SoundFontBanks is the set of presets available in one loaded SoundFont,
// grouped by bank for the UI's bank/preset pickers.
type SoundFontBanks struct {
	Path  string
	Banks map[int32][]Preset
}

// scanBanks enumerates font's presets into banks in the range
// [BankScanLow, BankScanHigh].
func scanBanks(font *meltysynth.SoundFont) map[int32][]Preset {
	banks := make(map[int32][]Preset)
	for _, p := range font.Presets {
		if p.BankNumber < BankScanLow || p.BankNumber > BankScanHigh {
			continue
		}
		banks[p.BankNumber] = append(banks[p.BankNumber], Preset{
			Bank:  p.BankNumber,
			Patch: p.PatchNumber,
			Name:  p.Name,
		})
	}
	for b := range banks {
		presets := banks[b]
		sort.Slice(presets, func(i, j int) bool { return presets[i].Patch < presets[j].Patch })
		banks[b] = presets
	}
	return banks
}

// loadSoundFont reads and parses the SoundFont file at path.
func loadSoundFont(path string) (*meltysynth.SoundFont, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read soundfont %s: %w", path, err)
	}
	font, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse soundfont %s: %w", path, err)
	}
	return font, nil
}
