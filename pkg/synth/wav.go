package synth

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavChannels      = 2
	wavBitsPerSample = 16
	wavBlockAlign    = wavChannels * wavBitsPerSample / 8
	wavFormatPCM     = 1
	wavHeaderSize    = 44
	wavChunkFrames   = 4096
)

// WriteWAV renders seconds of audio from src (16-bit stereo PCM at
// SampleRate, as produced by Stream) into a PCM WAV file. The header sizes
// are patched once all frames are written, so w must be seekable.
// It returns the number of frames written.
func WriteWAV(w io.WriteSeeker, src io.Reader, seconds float64) (int64, error) {
	if !(seconds > 0) {
		return 0, fmt.Errorf("invalid WAV duration: %v", seconds)
	}
	frames := int64(seconds * SampleRate)
	if frames == 0 || frames*wavBlockAlign > math.MaxUint32-wavHeaderSize {
		return 0, fmt.Errorf("invalid WAV duration: %v seconds", seconds)
	}

	enc := wav.NewEncoder(w, SampleRate, wavBitsPerSample, wavChannels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: wavChannels,
			SampleRate:  SampleRate,
		},
		Data:           make([]int, wavChunkFrames*wavChannels),
		SourceBitDepth: wavBitsPerSample,
	}
	raw := make([]byte, wavChunkFrames*wavBlockAlign)

	var written int64
	for written < frames {
		n := min(wavChunkFrames, frames-written)
		chunk := raw[:n*wavBlockAlign]
		if _, err := io.ReadFull(src, chunk); err != nil {
			return written, fmt.Errorf("failed to render audio: %w", err)
		}

		buf.Data = buf.Data[:n*wavChannels]
		for i := range buf.Data {
			buf.Data[i] = int(int16(binary.LittleEndian.Uint16(chunk[i*2:])))
		}
		if err := enc.Write(buf); err != nil {
			return written, fmt.Errorf("failed to write WAV data: %w", err)
		}
		written += n
	}

	if err := enc.Close(); err != nil {
		return written, fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return written, nil
}
