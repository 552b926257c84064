package sensor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/fridge-controller/internal/logger"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return t0 }

func TestAcquirerComplete(t *testing.T) {
	a := NewAcquirer(
		&FakeProbe{Values: []float64{4.5}},
		&FakeProbe{Values: []float64{-12}},
		NewHumidityFilter(&FakeHumidity{Values: []float64{70}}),
		NewIdentity(&FakeTagReader{UID: []byte{9}}, []byte{9}, time.Millisecond),
		logger.Nop(), fixedNow,
	)

	rd := a.Read()
	require.True(t, rd.SensorsOK())
	assert.Equal(t, 4.5, *rd.Temperature)
	assert.Equal(t, -12.0, *rd.Evaporator)
	assert.Equal(t, 70.0, rd.Humidity)
	assert.True(t, rd.Privileged)
	assert.Equal(t, t0, rd.Time)
}

func TestAcquirerProbeFailureIsAbsent(t *testing.T) {
	a := NewAcquirer(
		&FakeProbe{Values: []float64{4.5}},
		&FakeProbe{Errs: []error{ErrNotReady}},
		nil, nil, logger.Nop(), fixedNow,
	)

	rd := a.Read()
	assert.False(t, rd.SensorsOK())
	assert.NotNil(t, rd.Temperature)
	assert.Nil(t, rd.Evaporator)
	assert.Zero(t, rd.Humidity)
	assert.False(t, rd.Privileged)
}

func TestAcquirerMissingProbe(t *testing.T) {
	a := NewAcquirer(&FakeProbe{Values: []float64{1}}, nil, nil, nil, logger.Nop(), nil)
	rd := a.Read()
	assert.Nil(t, rd.Evaporator)
	assert.False(t, rd.Time.IsZero())
}

func TestAcquirerTagErrorNotPrivileged(t *testing.T) {
	a := NewAcquirer(nil, nil, nil,
		NewIdentity(&FakeTagReader{Err: errors.New("timeout")}, []byte{9}, time.Millisecond),
		logger.Nop(), fixedNow,
	)
	assert.False(t, a.Read().Privileged)
}

func TestAcquirerHumidityDegrades(t *testing.T) {
	errDHT := errors.New("dht")
	a := NewAcquirer(nil, nil,
		NewHumidityFilter(&FakeHumidity{
			Values: []float64{50, 0, 0, 0},
			Errs:   []error{nil, errDHT, errDHT, errDHT},
		}),
		nil, logger.Nop(), fixedNow,
	)

	got := []float64{a.Read().Humidity, a.Read().Humidity, a.Read().Humidity, a.Read().Humidity}
	assert.Equal(t, []float64{50, 50, 50, 0}, got)
}
