package synth

// Program is the SoundFont/bank/preset assignment of one MIDI channel.
// Grounded on original_source/common/src/state.rs: Program.
type Program struct {
	SoundFontPath string
	Bank          int32
	Preset        int32
	Name          string
}
