package identity

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

var errRecordNotObject = errors.New("user payload is not a JSON object")

// UserRecord is the opaque user payload returned by the identity service.
//
// The bytes are kept exactly as received (minus surrounding whitespace). A
// UserRecord is immutable: accessors never expose the backing array.
type UserRecord struct {
	raw []byte
}

// ParseUserRecord validates data as a JSON object and wraps a private copy.
func ParseUserRecord(data []byte) (UserRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' || !gjson.ValidBytes(trimmed) {
		return UserRecord{}, errRecordNotObject
	}
	raw := make([]byte, len(trimmed))
	copy(raw, trimmed)
	return UserRecord{raw: raw}, nil
}

// MustParseUserRecord is ParseUserRecord for literals in tests and seeds.
func MustParseUserRecord(data string) UserRecord {
	rec, err := ParseUserRecord([]byte(data))
	if err != nil {
		panic(err)
	}
	return rec
}

// IsZero reports whether r holds no record ("absent user").
func (r UserRecord) IsZero() bool {
	return len(r.raw) == 0
}

// Bytes returns a copy of the raw JSON.
func (r UserRecord) Bytes() []byte {
	if r.IsZero() {
		return nil
	}
	out := make([]byte, len(r.raw))
	copy(out, r.raw)
	return out
}

func (r UserRecord) String() string {
	return string(r.raw)
}

// Equal compares records byte-for-byte.
func (r UserRecord) Equal(other UserRecord) bool {
	return bytes.Equal(r.raw, other.raw)
}

// Get looks up a gjson path, e.g. "name" or "roles.0".
func (r UserRecord) Get(path string) gjson.Result {
	if r.IsZero() {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.raw, path)
}

// ID returns the "id" field rendered as a string, or "" if the record has none.
// Numeric ids are rendered without exponent or fraction when integral, so
// 1, 1.0 and 1e0 all yield "1". Integer literals are kept digit for digit;
// other numbers keep their JSON form.
func (r UserRecord) ID() string {
	v := r.Get("id")
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return numericID(v)
	default:
		return ""
	}
}

const maxExactFloatInt = 1 << 53

func numericID(v gjson.Result) string {
	if isIntegerLiteral(v.Raw) {
		return v.Raw
	}
	if v.Num == math.Trunc(v.Num) && math.Abs(v.Num) <= maxExactFloatInt {
		return strconv.FormatInt(int64(v.Num), 10)
	}
	return v.Raw
}

func isIntegerLiteral(raw string) bool {
	if len(raw) > 0 && raw[0] == '-' {
		raw = raw[1:]
	}
	if raw == "" {
		return false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return false
		}
	}
	return true
}

// Decode unmarshals the record into v.
func (r UserRecord) Decode(v any) error {
	if r.IsZero() {
		return errRecordNotObject
	}
	return json.Unmarshal(r.raw, v)
}

// MarshalJSON embeds the record verbatim; an absent record encodes as null.
func (r UserRecord) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	return r.Bytes(), nil
}
