// Package audio connects a crystalizer session to files and audio devices:
// a WAV codec, block feeders for offline and streaming use, and an ebiten
// playback backend.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-crystalizer/dsp/buffer"
	"github.com/cwbudde/algo-crystalizer/dsp/dither"
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

var (
	ErrNotWAV            = errors.New("audio: not a RIFF/WAVE stream")
	ErrUnsupportedFormat = errors.New("audio: unsupported WAV format")
	ErrMissingChunk      = errors.New("audio: missing fmt or data chunk")
)

// Clip is interleaved stereo float32 audio held in memory.
type Clip struct {
	SampleRate int
	Samples    []float32
}

// Frames returns the number of stereo frames.
func (c *Clip) Frames() int { return len(c.Samples) / 2 }

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

type wavFormat struct {
	format     uint16
	channels   int
	sampleRate int
	bits       int
}

// ReadWAV decodes a PCM (8, 16, 24 or 32 bit) or IEEE float (32 or 64 bit)
// WAV stream. Mono input is duplicated to both channels.
func ReadWAV(r io.Reader) (*Clip, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWAV, err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		format *wavFormat
		data   []byte
	)
	for data == nil {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, err
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("audio: read fmt chunk: %w", err)
			}
			f, err := parseFormat(body)
			if err != nil {
				return nil, err
			}
			format = f
		case "data":
			var buf bytes.Buffer
			n, err := io.CopyN(&buf, r, size)
			if err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("audio: read data chunk: %w", err)
			}
			// Truncated files keep the samples that are present.
			data = buf.Bytes()[:n]
		default:
			if _, err := io.CopyN(io.Discard, r, size); err != nil {
				return nil, fmt.Errorf("audio: skip %q chunk: %w", id, err)
			}
		}

		if size%2 == 1 && data == nil {
			if _, err := io.CopyN(io.Discard, r, 1); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
		}
	}

	if format == nil || data == nil {
		return nil, ErrMissingChunk
	}
	return decodeSamples(format, data)
}

func parseFormat(body []byte) (*wavFormat, error) {
	if len(body) < 16 {
		return nil, fmt.Errorf("%w: fmt chunk of %d bytes", ErrUnsupportedFormat, len(body))
	}
	f := &wavFormat{
		format:     binary.LittleEndian.Uint16(body[0:2]),
		channels:   int(binary.LittleEndian.Uint16(body[2:4])),
		sampleRate: int(binary.LittleEndian.Uint32(body[4:8])),
		bits:       int(binary.LittleEndian.Uint16(body[14:16])),
	}
	if f.format == formatExtensible {
		if len(body) < 26 {
			return nil, fmt.Errorf("%w: short extensible fmt chunk", ErrUnsupportedFormat)
		}
		// The sub-format GUID starts with the plain format tag.
		f.format = binary.LittleEndian.Uint16(body[24:26])
	}

	if f.channels < 1 || f.channels > 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.channels)
	}
	if f.sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, f.sampleRate)
	}
	switch {
	case f.format == formatPCM && (f.bits == 8 || f.bits == 16 || f.bits == 24 || f.bits == 32):
	case f.format == formatFloat && (f.bits == 32 || f.bits == 64):
	default:
		return nil, fmt.Errorf("%w: format %d with %d bits", ErrUnsupportedFormat, f.format, f.bits)
	}
	return f, nil
}

func decodeSamples(f *wavFormat, data []byte) (*Clip, error) {
	width := f.bits / 8
	frameBytes := width * f.channels
	frames := len(data) / frameBytes

	clip := &Clip{SampleRate: f.sampleRate, Samples: make([]float32, 2*frames)}
	for i := range frames {
		for ch := range 2 {
			src := min(ch, f.channels-1)
			off := i*frameBytes + src*width
			clip.Samples[2*i+ch] = decodeSample(f, data[off:off+width])
		}
	}
	return clip, nil
}

func decodeSample(f *wavFormat, b []byte) float32 {
	if f.format == formatFloat {
		if f.bits == 64 {
			return float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	}

	switch f.bits {
	case 8:
		return float32(int(b[0])-128) / 128
	case 16:
		return float32(int16(binary.LittleEndian.Uint16(b))) / 32768
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		v = v << 8 >> 8 // sign-extend
		return float32(v) / 8388608
	default:
		return float32(float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648)
	}
}

// writeHeader fills the 44-byte canonical header of a stereo WAV stream.
func writeHeader(out []byte, format uint16, sampleRate, bits, dataSize int) {
	const channels = 2
	blockAlign := channels * bits / 8

	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], format)
	binary.LittleEndian.PutUint16(out[22:], channels)
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], uint16(bits))
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
}

// WriteWAVFloat32 encodes clip as a stereo 32-bit IEEE float WAV stream.
func WriteWAVFloat32(w io.Writer, clip *Clip) error {
	dataSize := 4 * len(clip.Samples)

	out := make([]byte, 44+dataSize)
	writeHeader(out, formatFloat, clip.SampleRate, 32, dataSize)
	buffer.EncodeFloat32LE(out[44:], clip.Samples)

	_, err := w.Write(out)
	return err
}

// WriteWAVPCM encodes clip as stereo integer PCM at the quantizer's bit
// depth, which must be 16 or 24.
func WriteWAVPCM(w io.Writer, clip *Clip, q *dither.Quantizer) error {
	bits := q.BitDepth()
	if bits != 16 && bits != 24 {
		return fmt.Errorf("%w: writing %d-bit PCM", ErrUnsupportedFormat, bits)
	}
	if q.Channels() != 2 {
		return fmt.Errorf("%w: quantizer for %d channels", ErrUnsupportedFormat, q.Channels())
	}

	width := bits / 8
	dataSize := width * len(clip.Samples)
	out := make([]byte, 44+dataSize)
	writeHeader(out, formatPCM, clip.SampleRate, bits, dataSize)

	ints := make([]int32, len(clip.Samples))
	q.Quantize(ints, clip.Samples)

	data := out[44:]
	for i, v := range ints {
		b := data[i*width:]
		switch width {
		case 2:
			binary.LittleEndian.PutUint16(b, uint16(int16(v)))
		default:
			b[0] = byte(v)
			b[1] = byte(v >> 8)
			b[2] = byte(v >> 16)
		}
	}

	_, err := w.Write(out)
	return err
}
