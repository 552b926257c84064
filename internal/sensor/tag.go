package sensor

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// TagReader reads the UID of a tag held against the reader.
type TagReader interface {
	ReadUID(timeout time.Duration) ([]byte, error)
	Close() error
}

// ParseUID decodes a hex UID such as "a35939f734" or "A3:59:39:F7:34".
// An empty string yields a nil UID, which matches nothing.
func ParseUID(s string) ([]byte, error) {
	s = strings.NewReplacer(":", "", " ", "", "-", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return nil, nil
	}
	uid, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse uid: %w", err)
	}
	return uid, nil
}

// Identity decides whether the tag currently presented is the trusted one.
type Identity struct {
	reader  TagReader
	trusted []byte
	timeout time.Duration
}

// NewIdentity creates an Identity. A nil reader or empty trusted UID makes
// every check fail closed.
func NewIdentity(reader TagReader, trusted []byte, timeout time.Duration) *Identity {
	return &Identity{reader: reader, trusted: trusted, timeout: timeout}
}

// Privileged polls the reader once. Any error counts as not privileged.
func (id *Identity) Privileged() (bool, error) {
	if id == nil || id.reader == nil || len(id.trusted) == 0 {
		return false, nil
	}
	uid, err := id.reader.ReadUID(id.timeout)
	if err != nil {
		return false, err
	}
	return bytes.Equal(uid, id.trusted), nil
}
