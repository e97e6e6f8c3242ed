package ride

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is an opaque identifier carried through the pipeline unchanged.
// Numeric identifiers are kept as their JSON literal so they are echoed as numbers.
type ID string

var ErrInvalidID = errors.New("identifier must be a JSON number or string")

// IsZero reports whether the identifier is absent.
func (id ID) IsZero() bool { return id == "" }

func (id ID) String() string { return string(id) }

// MarshalJSON writes numeric ids as numbers, everything else as strings, and
// the empty id as null.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if isJSONNumber(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a number, a string or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidID, err)
		}
		*id = ID(s)
		return nil
	case isJSONNumber(string(b)):
		*id = ID(b)
		return nil
	default:
		return ErrInvalidID
	}
}

// IDFromValue converts a database value into an ID.
func IDFromValue(v any) (ID, error) {
	switch val := v.(type) {
	case nil:
		return "", ErrInvalidID
	case ID:
		return nonEmptyID(string(val))
	case string:
		return nonEmptyID(val)
	case []byte:
		return nonEmptyID(string(val))
	case int:
		return ID(strconv.FormatInt(int64(val), 10)), nil
	case int8:
		return ID(strconv.FormatInt(int64(val), 10)), nil
	case int16:
		return ID(strconv.FormatInt(int64(val), 10)), nil
	case int32:
		return ID(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return ID(strconv.FormatInt(val, 10)), nil
	case uint:
		return ID(strconv.FormatUint(uint64(val), 10)), nil
	case uint8:
		return ID(strconv.FormatUint(uint64(val), 10)), nil
	case uint16:
		return ID(strconv.FormatUint(uint64(val), 10)), nil
	case uint32:
		return ID(strconv.FormatUint(uint64(val), 10)), nil
	case uint64:
		return ID(strconv.FormatUint(val, 10)), nil
	case [16]byte:
		// pgx decodes uuid columns to [16]byte
		return ID(fmt.Sprintf("%x-%x-%x-%x-%x", val[0:4], val[4:6], val[6:8], val[8:10], val[10:16])), nil
	case time.Time:
		return "", ErrInvalidID
	case fmt.Stringer:
		return ID(val.String()), nil
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidID, v)
	}
}

// nonEmptyID rejects blank ids: a blank id would be published as null.
func nonEmptyID(s string) (ID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidID)
	}
	return ID(s), nil
}

func isJSONNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}
