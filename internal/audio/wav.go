package audio

import (
	"bytes"
	"encoding/binary"
	"math"
)

// encodeFloatWAV writes buf as a minimal IEEE-float WAV container in
// memory, used to hand ffmpeg a self-describing stdin stream instead of a
// temp file.
func encodeFloatWAV(buf Buffer) ([]byte, error) {
	channels := 1
	if buf.ChannelLayout == Stereo {
		channels = 2
	}
	const bitsPerSample = 32
	byteRate := buf.SampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := len(buf.Samples) * 4

	var b bytes.Buffer
	b.WriteString("RIFF")
	writeUint32(&b, uint32(36+dataSize))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	writeUint32(&b, 16)
	writeUint16(&b, 3) // WAVE_FORMAT_IEEE_FLOAT
	writeUint16(&b, uint16(channels))
	writeUint32(&b, uint32(buf.SampleRate))
	writeUint32(&b, uint32(byteRate))
	writeUint16(&b, uint16(blockAlign))
	writeUint16(&b, bitsPerSample)

	b.WriteString("data")
	writeUint32(&b, uint32(dataSize))
	for _, s := range buf.Samples {
		writeUint32(&b, math.Float32bits(s))
	}

	return b.Bytes(), nil
}

func writeUint32(b *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.Write(tmp[:])
}

func writeUint16(b *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.Write(tmp[:])
}
