package session

import (
	"encoding/binary"
	"fmt"
)

// Record layout, version 1:
//
//	[0]      version
//	[1]      flags (bit 0: revoked)
//	[2:10]   issued at, unix ms, big endian
//	[10:18]  expires at, unix ms, big endian
//	[18]     user id length
//	[19:]    user id
//
// The Redis revoke script reads the flags and expiry at these offsets.
const (
	recordFormatV1 = 1

	flagRevoked byte = 1 << 0

	recordHeaderSize = 19
	maxUserIDLen     = 255
)

// Encode serializes rec. The key is not part of the payload.
func Encode(rec *Record) ([]byte, error) {
	if len(rec.UserID) == 0 || len(rec.UserID) > maxUserIDLen {
		return nil, ErrInvalidUserID
	}

	buf := make([]byte, 0, recordHeaderSize+len(rec.UserID))
	buf = append(buf, recordFormatV1)

	var flags byte
	if rec.Revoked {
		flags |= flagRevoked
	}
	buf = append(buf, flags)

	buf = binary.BigEndian.AppendUint64(buf, uint64(rec.IssuedAt))
	buf = binary.BigEndian.AppendUint64(buf, uint64(rec.ExpiresAt))

	buf = append(buf, byte(len(rec.UserID)))
	buf = append(buf, rec.UserID...)

	return buf, nil
}

// Decode parses a payload produced by Encode. Any deviation from the layout
// is reported as ErrCorrupt.
func Decode(data []byte) (*Record, error) {
	if len(data) < recordHeaderSize {
		return nil, fmt.Errorf("%w: short payload (%d bytes)", ErrCorrupt, len(data))
	}
	if data[0] != recordFormatV1 {
		return nil, fmt.Errorf("%w: unsupported record version %d", ErrCorrupt, data[0])
	}

	flags := data[1]
	if flags&^flagRevoked != 0 {
		return nil, fmt.Errorf("%w: unknown flags %#x", ErrCorrupt, flags)
	}

	userLen := int(data[18])
	if userLen == 0 || len(data) != recordHeaderSize+userLen {
		return nil, fmt.Errorf("%w: bad user id length", ErrCorrupt)
	}

	return &Record{
		UserID:    string(data[recordHeaderSize:]),
		IssuedAt:  int64(binary.BigEndian.Uint64(data[2:10])),
		ExpiresAt: int64(binary.BigEndian.Uint64(data[10:18])),
		Revoked:   flags&flagRevoked != 0,
	}, nil
}
