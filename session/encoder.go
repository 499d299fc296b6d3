package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/MrEthical07/goGallery/identity"
)

const (
	sessionFormatVersionCurrent = 1

	// MaxRecordSize caps the encoded user record.
	MaxRecordSize = 1 << 20
)

var (
	// ErrInvalidEncoding is returned by Decode for malformed session blobs.
	ErrInvalidEncoding = errors.New("invalid session encoding")
	errRecordTooLarge  = errors.New("user record too large")
)

// Encode serializes s as:
//
//	version (1) | generation (u64 BE) | fetchedAt (i64 BE) | recordLen (u32 BE) | record
//
// SessionID is not encoded; it is the storage key.
func Encode(s *UserSession) ([]byte, error) {
	raw := s.User.Bytes()
	if err := checkRecordSize(s.User); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(1 + 8 + 8 + 4 + len(raw))

	buf.WriteByte(sessionFormatVersionCurrent)

	if err := binary.Write(&buf, binary.BigEndian, s.Generation); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.FetchedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(raw))); err != nil {
		return nil, err
	}
	buf.Write(raw)

	return buf.Bytes(), nil
}

// checkRecordSize rejects records larger than MaxRecordSize on every backend.
func checkRecordSize(user identity.UserRecord) error {
	if len(user.Bytes()) > MaxRecordSize {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, errRecordTooLarge)
	}
	return nil
}

// Decode parses a blob produced by Encode. Trailing bytes are rejected.
func Decode(data []byte) (*UserSession, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	if version != sessionFormatVersionCurrent {
		return nil, ErrInvalidEncoding
	}

	s := &UserSession{}

	if err := binary.Read(reader, binary.BigEndian, &s.Generation); err != nil {
		return nil, ErrInvalidEncoding
	}
	if err := binary.Read(reader, binary.BigEndian, &s.FetchedAt); err != nil {
		return nil, ErrInvalidEncoding
	}

	var recordLen uint32
	if err := binary.Read(reader, binary.BigEndian, &recordLen); err != nil {
		return nil, ErrInvalidEncoding
	}
	if recordLen > MaxRecordSize || int64(recordLen) > int64(reader.Len()) {
		return nil, ErrInvalidEncoding
	}

	if recordLen > 0 {
		raw := make([]byte, recordLen)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, ErrInvalidEncoding
		}
		rec, err := identity.ParseUserRecord(raw)
		if err != nil {
			return nil, ErrInvalidEncoding
		}
		s.User = rec
	}

	if reader.Len() != 0 {
		return nil, ErrInvalidEncoding
	}

	return s, nil
}
