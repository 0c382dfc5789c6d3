package logger

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// compressPayload compresses a whole batch payload with zstd.
func compressPayload(payload []byte) []byte {
	return zstdEncoder.EncodeAll(payload, make([]byte, 0, len(payload)/2))
}

// decompressPayload reverses compressPayload.
func decompressPayload(payload []byte) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress batch: %w", err)
	}
	return out, nil
}
