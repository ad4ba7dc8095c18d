package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrInvalidWAV     = errors.New("invalid wav data")
	ErrUnsupportedWAV = errors.New("unsupported wav format")
)

// EncodeWAV wraps 16-bit mono PCM samples in a RIFF/WAVE container.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	dataSize := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	_ = binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// DecodeWAV extracts 16-bit mono PCM samples and the sample rate.
func DecodeWAV(data []byte) ([]int16, int, error) {
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, ErrInvalidWAV
	}

	var (
		sampleRate int
		hasFmt     bool
		pos        = 12
	)

	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		// streamed responses may carry 0 or 0xFFFFFFFF as the data size
		if id == "data" && (size == 0 || body+size > len(data)) {
			size = len(data) - body
		}
		if body+size > len(data) {
			return nil, 0, fmt.Errorf("%w: chunk %q overruns buffer", ErrInvalidWAV, id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			channels := binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if format != 1 || channels != 1 || bits != 16 {
				return nil, 0, fmt.Errorf("%w: format=%d channels=%d bits=%d", ErrUnsupportedWAV, format, channels, bits)
			}
			hasFmt = true

		case "data":
			if !hasFmt {
				return nil, 0, fmt.Errorf("%w: data before fmt", ErrInvalidWAV)
			}
			samples := make([]int16, size/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(data[body+i*2:]))
			}
			return samples, sampleRate, nil
		}

		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	return nil, 0, fmt.Errorf("%w: no data chunk", ErrInvalidWAV)
}
