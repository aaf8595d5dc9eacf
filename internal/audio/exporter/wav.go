package exporter

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWav encodes left/right to a 16-bit stereo PCM WAV file. Grounded
// on original_source/audio/src/exporter.rs: Exporter::wav, adapted from
// hound's WavWriter to go-audio/wav's Encoder.
func writeWav(path string, left, right []float32, settings Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, int(settings.Framerate), 16, 2, 1)
	defer enc.Close()

	data := make([]int, len(left)*2)
	for i := range left {
		data[i*2] = int(toInt16(left[i]))
		data[i*2+1] = int(toInt16(right[i]))
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: int(settings.Framerate)},
		Data:   data,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}
