//go:build linux

package sensor

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/mfrc522"
	"periph.io/x/host/v3"
)

// MFRC522 is a TagReader backed by an MFRC522 on SPI.
type MFRC522 struct {
	port spi.PortCloser
	dev  *mfrc522.Dev
}

// NewMFRC522 opens the reader. spiPort is a periph port name ("" for the
// first one), resetPin a GPIO name such as "GPIO25". Without irqPin the
// device runs synchronously.
func NewMFRC522(spiPort, resetPin, irqPin string) (*MFRC522, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	port, err := spireg.Open(spiPort)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", spiPort, err)
	}
	rst := gpioreg.ByName(resetPin)
	if rst == nil {
		port.Close()
		return nil, fmt.Errorf("reset pin %q not found", resetPin)
	}

	var irq gpio.PinIn
	var dev *mfrc522.Dev
	if irqPin != "" {
		p := gpioreg.ByName(irqPin)
		if p == nil {
			port.Close()
			return nil, fmt.Errorf("irq pin %q not found", irqPin)
		}
		irq = p
		dev, err = mfrc522.NewSPI(port, rst, irq)
	} else {
		dev, err = mfrc522.NewSPI(port, rst, nil, mfrc522.WithSync())
	}
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("init mfrc522: %w", err)
	}
	return &MFRC522{port: port, dev: dev}, nil
}

// ReadUID waits up to timeout for a tag.
func (m *MFRC522) ReadUID(timeout time.Duration) ([]byte, error) {
	return m.dev.ReadUID(timeout)
}

// Close halts the device and releases the SPI port.
func (m *MFRC522) Close() error {
	return errors.Join(m.dev.Halt(), m.port.Close())
}
