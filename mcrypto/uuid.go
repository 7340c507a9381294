// Package mcrypto provides a short, sortable, universally unique identifier
// used by the debug server to label anonymous symbols (those with no
// human-assigned name) in its introspection output.
package mcrypto

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const uuidV0 = "v0"

var errMalformedUUID = errors.New("malformed UUID string")

// UUID is a universally unique identifier which embeds within it a
// timestamp.
//
// Only Unmarshal methods should be called on the zero UUID value.
//
// Comparing the equality of two UUIDs should always be done using the Equal
// method, or by comparing their string forms.
//
// The string form of UUIDs (returned by String or MarshalText) is
// lexicographically orderable by its embedded timestamp.
type UUID struct {
	str string
}

// NewUUID populates and returns a new UUID instance which embeds the given
// time.
func NewUUID(t time.Time) UUID {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[:8], uint64(t.UnixNano()))
	if _, err := rand.Read(b[8:]); err != nil {
		panic(err)
	}
	return UUID{
		str: uuidV0 + hex.EncodeToString(b),
	}
}

func (u UUID) String() string {
	return u.str
}

// Equal returns whether the two UUIDs are the same value.
func (u UUID) Equal(u2 UUID) bool {
	return u.str == u2.str
}

// Time unpacks and returns the timestamp embedded in the UUID.
func (u UUID) Time() time.Time {
	b, err := hex.DecodeString(u.str[len(uuidV0):])
	if err != nil {
		panic(fmt.Sprintf("malformed UUID: %q", u.str))
	}
	unixNano := int64(binary.BigEndian.Uint64(b[:8]))
	return time.Unix(0, unixNano).Local()
}

// MarshalText implements the method for the encoding.TextMarshaler
// interface.
func (u UUID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements the method for the encoding.TextUnmarshaler
// interface.
func (u *UUID) UnmarshalText(b []byte) error {
	if !bytes.HasPrefix(b, []byte(uuidV0)) || len(b) != len(uuidV0)+32 {
		return errMalformedUUID
	}
	u.str = string(b)
	return nil
}

// MarshalJSON implements the method for the json.Marshaler interface.
func (u UUID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON implements the method for the json.Unmarshaler interface.
func (u *UUID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return u.UnmarshalText([]byte(s))
}
