package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleSendClampsToRange(t *testing.T) {
	assert.Equal(t, int32(0), scaleSend(-10))
	assert.Equal(t, int32(127), scaleSend(2000))
	assert.Equal(t, int32(63), scaleSend(500))
}

func TestScalePanClampsAndCenters(t *testing.T) {
	assert.Equal(t, int32(64), scalePan(0))
	assert.Equal(t, int32(1), scalePan(-500))
	assert.Equal(t, int32(127), scalePan(500))
	assert.Equal(t, int32(1), scalePan(-900))
	assert.Equal(t, int32(127), scalePan(900))
}

func TestStateCloneIsIndependent(t *testing.T) {
	s := NewState()
	s.Programs[0] = Program{SoundFontPath: "a.sf2", Bank: 0, Preset: 1}
	s.SoundFonts["a.sf2"] = SoundFontBanks{Path: "a.sf2", Banks: map[int32][]Preset{0: {{Bank: 0, Patch: 1}}}}

	clone := s.Clone()
	clone.Programs[0] = Program{SoundFontPath: "b.sf2"}
	clone.SoundFonts["a.sf2"].Banks[0][0] = Preset{Bank: 0, Patch: 9}

	assert.Equal(t, "a.sf2", s.Programs[0].SoundFontPath)
	assert.Equal(t, int32(1), s.SoundFonts["a.sf2"].Banks[0][0].Patch)
}

func TestHandleUnsetProgramOnUnassignedChannelIsNoop(t *testing.T) {
	h := NewHandle(44100)
	h.UnsetProgram(3)
	_, ok := h.State().Programs[3]
	assert.False(t, ok)
}

func TestHandleRenderWithNoEnginesProducesSilence(t *testing.T) {
	h := NewHandle(44100)
	left := make([]float32, 8)
	right := make([]float32, 8)
	for i := range left {
		left[i], right[i] = 1, 1
	}
	h.Render(left, right)
	for i := range left {
		assert.Equal(t, float32(0), left[i])
		assert.Equal(t, float32(0), right[i])
	}
}
