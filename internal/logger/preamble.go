package logger

import (
	"encoding/binary"
	"fmt"
)

// Channel tags carried in the preamble.
const (
	ChannelInteraction uint8 = 1
	ChannelObservation uint8 = 2
	ChannelEpisode     uint8 = 3
)

// Codec ids carried in the preamble.
const (
	CodecIdentity uint8 = 0
	CodecZstd     uint8 = 1
)

// preambleSize is the fixed layout: version, channel tag, codec id,
// reserved, then the payload length.
const preambleSize = 8

// Preamble is the fixed-layout header prefixing every framed batch.
type Preamble struct {
	Version    uint8
	Channel    uint8
	Codec      uint8
	PayloadLen uint32
}

// Frame prepends a preamble to payload.
func Frame(p Preamble, payload []byte) []byte {
	out := make([]byte, preambleSize+len(payload))
	out[0] = p.Version
	out[1] = p.Channel
	out[2] = p.Codec
	binary.BigEndian.PutUint32(out[4:8], uint32(len(payload)))
	copy(out[preambleSize:], payload)
	return out
}

// ParseFrame splits one framed batch off the front of data, returning
// the preamble, the payload, and any trailing bytes.
func ParseFrame(data []byte) (Preamble, []byte, []byte, error) {
	if len(data) < preambleSize {
		return Preamble{}, nil, nil, fmt.Errorf("frame shorter than preamble: %d bytes", len(data))
	}
	p := Preamble{
		Version:    data[0],
		Channel:    data[1],
		Codec:      data[2],
		PayloadLen: binary.BigEndian.Uint32(data[4:8]),
	}
	end := preambleSize + int(p.PayloadLen)
	if len(data) < end {
		return Preamble{}, nil, nil, fmt.Errorf("frame truncated: want %d bytes, have %d", end, len(data))
	}
	return p, data[preambleSize:end], data[end:], nil
}
