package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MaxAudioBytes bounds an uploaded clip (about 2.5 minutes of 16 kHz mono PCM).
	MaxAudioBytes = 5 * 1024 * 1024

	SampleRateHertz = 16000
	wavHeaderSize   = 44
)

var ErrInvalidAudio = errors.New("invalid audio")

type waveHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataTag       [4]byte
	DataSize      uint32
}

// ValidateWAV checks that data is a canonical 16-bit PCM mono WAV sampled at
// 16 kHz, the format the recognizer is configured for.
func ValidateWAV(data []byte) error {
	if len(data) < wavHeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than a WAV header", ErrInvalidAudio, len(data))
	}
	if len(data) > MaxAudioBytes {
		return fmt.Errorf("%w: clip exceeds %d bytes", ErrInvalidAudio, MaxAudioBytes)
	}

	var h waveHeader
	if err := binary.Read(bytes.NewReader(data[:wavHeaderSize]), binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAudio, err)
	}

	switch {
	case string(h.RiffTag[:]) != "RIFF" || string(h.WaveTag[:]) != "WAVE":
		return fmt.Errorf("%w: not a RIFF/WAVE file", ErrInvalidAudio)
	case h.AudioFormat != 1:
		return fmt.Errorf("%w: audio format %d is not PCM", ErrInvalidAudio, h.AudioFormat)
	case h.NumChannels != 1:
		return fmt.Errorf("%w: %d channels, want mono", ErrInvalidAudio, h.NumChannels)
	case h.SampleRate != SampleRateHertz:
		return fmt.Errorf("%w: sample rate %d, want %d", ErrInvalidAudio, h.SampleRate, SampleRateHertz)
	case h.BitsPerSample != 16:
		return fmt.Errorf("%w: %d bits per sample, want 16", ErrInvalidAudio, h.BitsPerSample)
	}
	return nil
}
