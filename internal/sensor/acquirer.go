package sensor

import (
	"time"

	"github.com/sweeney/fridge-controller/internal/logger"
	"github.com/sweeney/fridge-controller/internal/logic"
)

// TemperatureProbe produces one temperature reading in degrees Celsius.
type TemperatureProbe interface {
	Read() (float64, error)
}

// Acquirer gathers one Reading per call. Probe and identity failures never
// propagate: they turn into absent values or a non-privileged reading.
type Acquirer struct {
	primary    TemperatureProbe
	evaporator TemperatureProbe
	humidity   *HumidityFilter
	identity   *Identity
	log        *logger.Logger
	now        func() time.Time
}

// NewAcquirer wires the sensors. Nil probes always read as absent; a nil
// humidity filter reads 0; a nil identity is never privileged.
func NewAcquirer(primary, evaporator TemperatureProbe, humidity *HumidityFilter, identity *Identity, log *logger.Logger, now func() time.Time) *Acquirer {
	if now == nil {
		now = time.Now
	}
	return &Acquirer{
		primary:    primary,
		evaporator: evaporator,
		humidity:   humidity,
		identity:   identity,
		log:        log,
		now:        now,
	}
}

// Read performs one acquisition cycle.
func (a *Acquirer) Read() logic.Reading {
	rd := logic.Reading{Time: a.now()}
	rd.Temperature = a.readProbe("temperature", a.primary)
	rd.Evaporator = a.readProbe("evaporator", a.evaporator)

	if a.humidity != nil {
		h, err := a.humidity.Read()
		if err != nil {
			a.log.Warnw("humidity read failed", "failures", a.humidity.Failures(), "reported", h, "error", err)
		}
		rd.Humidity = h
	}

	priv, err := a.identity.Privileged()
	if err != nil {
		a.log.Debugw("tag read failed", "error", err)
	}
	rd.Privileged = priv
	return rd
}

func (a *Acquirer) readProbe(name string, p TemperatureProbe) *float64 {
	if p == nil {
		return nil
	}
	v, err := p.Read()
	if err != nil {
		a.log.Warnw("probe read failed", "probe", name, "error", err)
		return nil
	}
	return &v
}
