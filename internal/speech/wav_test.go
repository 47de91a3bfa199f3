package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func makeWAV(t *testing.T, format, channels uint16, rate uint32, bits uint16, samples int) []byte {
	t.Helper()
	dataSize := uint32(samples * int(channels) * int(bits) / 8)
	h := waveHeader{
		FileSize:      36 + dataSize,
		FmtSize:       16,
		AudioFormat:   format,
		NumChannels:   channels,
		SampleRate:    rate,
		ByteRate:      rate * uint32(channels) * uint32(bits) / 8,
		BlockAlign:    channels * bits / 8,
		BitsPerSample: bits,
		DataSize:      dataSize,
	}
	copy(h.RiffTag[:], "RIFF")
	copy(h.WaveTag[:], "WAVE")
	copy(h.FmtTag[:], "fmt ")
	copy(h.DataTag[:], "data")

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

func TestValidateWAV(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"valid", makeWAV(t, 1, 1, 16000, 16, 1600), false},
		{"too short", []byte("RIFF"), true},
		{"not pcm", makeWAV(t, 3, 1, 16000, 16, 10), true},
		{"stereo", makeWAV(t, 1, 2, 16000, 16, 10), true},
		{"wrong rate", makeWAV(t, 1, 1, 44100, 16, 10), true},
		{"8 bit", makeWAV(t, 1, 1, 16000, 8, 10), true},
		{"too large", makeWAV(t, 1, 1, 16000, 16, MaxAudioBytes/2+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWAV(tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAudio) {
					t.Errorf("err = %v, want ErrInvalidAudio", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateWAVRejectsNonRIFF(t *testing.T) {
	data := makeWAV(t, 1, 1, 16000, 16, 10)
	copy(data, "JUNK")
	if err := ValidateWAV(data); !errors.Is(err, ErrInvalidAudio) {
		t.Errorf("err = %v, want ErrInvalidAudio", err)
	}
}
