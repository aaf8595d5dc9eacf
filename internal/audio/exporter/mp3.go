package exporter

import (
	"encoding/binary"
	"os"
	"strconv"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/viert/lame"
)

// writeMP3 encodes left/right with LAME and writes an ID3v2.4 tag.
// Grounded on original_source/audio/src/exporter.rs: Exporter::mp3.
// The prototype writes metadata.comment into the genre frame whenever a
// comment is present, clobbering any genre already set; this is
// reproduced here rather than corrected.
func writeMP3(path string, left, right []float32, settings Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := lame.NewWriter(f)
	enc.SetNumChannels(2)
	enc.SetInSamplerate(int(settings.Framerate))
	enc.SetOutSamplerate(int(settings.Framerate))
	enc.SetBitrate(settings.MP3BitRateKbps)
	enc.SetQuality(settings.MP3Quality)
	enc.SetMode(lame.JOINT_STEREO)

	pcm := make([]byte, len(left)*4)
	for i := range left {
		binary.LittleEndian.PutUint16(pcm[i*4:], uint16(toInt16(left[i])))
		binary.LittleEndian.PutUint16(pcm[i*4+2:], uint16(toInt16(right[i])))
	}
	if _, err := enc.Write(pcm); err != nil {
		enc.Close()
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return writeMP3Tag(path, settings)
}

func writeMP3Tag(path string, settings Settings) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetYear(strconv.Itoa(time.Now().Year()))
	tag.SetTitle(settings.Metadata.Title)
	if settings.Metadata.Artist != nil {
		tag.SetArtist(*settings.Metadata.Artist)
	}
	if settings.Metadata.Album != nil {
		tag.SetAlbum(*settings.Metadata.Album)
	}
	if settings.Metadata.Genre != nil {
		tag.SetGenre(*settings.Metadata.Genre)
	}
	if settings.Metadata.Comment != nil {
		tag.SetGenre(*settings.Metadata.Comment)
	}
	if settings.Metadata.TrackNumber != nil {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, strconv.Itoa(*settings.Metadata.TrackNumber))
	}
	return tag.Save()
}
