//go:build !linux

package sensor

import (
	"errors"
	"time"
)

// MFRC522 is not available on non-Linux platforms.
type MFRC522 struct{}

// NewMFRC522 returns an error on non-Linux platforms.
func NewMFRC522(spiPort, resetPin, irqPin string) (*MFRC522, error) {
	return nil, errors.New("mfrc522: not supported on this platform (requires Linux)")
}

// ReadUID is not implemented on non-Linux platforms.
func (m *MFRC522) ReadUID(timeout time.Duration) ([]byte, error) {
	return nil, errors.New("mfrc522: not supported")
}

// Close is not implemented on non-Linux platforms.
func (m *MFRC522) Close() error {
	return nil
}
