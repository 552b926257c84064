package logic

import "time"

// RegulatorConfig holds hysteresis margins and dwell times.
type RegulatorConfig struct {
	CompressorMargin float64       // start cooling this far above target
	DefrostMargin    float64       // end defrost this far above the defrost threshold
	MinOn            time.Duration // minimum time ON before switching OFF
	MinOff           time.Duration // minimum time OFF before switching ON
}

// DefaultRegulatorConfig matches the unit's factory tuning.
func DefaultRegulatorConfig() RegulatorConfig {
	return RegulatorConfig{
		CompressorMargin: 3,
		DefrostMargin:    2,
		MinOn:            1 * time.Second,
		MinOff:           9 * time.Second,
	}
}

// Outcome is what one AUTO-mode evaluation wants applied.
type Outcome struct {
	Relays  RelayStates // partial; only actuators that should change
	Defrost Decision    // TurnOn = defrost started, TurnOff = defrost ended
}

// Regulator runs the defrost and compressor controllers in AUTO mode.
// While a defrost is active the compressor controller is not consulted and
// the compressor and ventilation are held off.
type Regulator struct {
	cfg        RegulatorConfig
	compressor *Hysteresis
	defrost    *Hysteresis
	forbidden  bool
}

// NewRegulator creates a Regulator with both controllers OFF.
func NewRegulator(cfg RegulatorConfig) *Regulator {
	return &Regulator{
		cfg:        cfg,
		compressor: NewHysteresis(cfg.MinOn, cfg.MinOff),
		defrost:    NewHysteresis(cfg.MinOn, cfg.MinOff),
	}
}

// Evaluate runs one AUTO-mode control step and updates st.Status.
// Readings must be complete; callers route faulty cycles to the Supervisor.
func (r *Regulator) Evaluate(st *OperatingState, rd Reading, now time.Time) Outcome {
	out := Outcome{Relays: RelayStates{}}
	if !rd.SensorsOK() {
		return out
	}

	start := st.DefrostThreshold
	out.Defrost = r.defrost.Defrost(*rd.Evaporator, start, start+r.cfg.DefrostMargin, now)
	switch out.Defrost {
	case TurnOn:
		r.forbidden = true
	case TurnOff:
		r.forbidden = false
		out.Relays[Heater] = false
	}

	// Defrost outputs are commanded on every cycle while forbidden.
	if r.forbidden {
		st.Status = StatusDefrost
		out.Relays[Compressor] = false
		out.Relays[Ventilation] = false
		out.Relays[Heater] = st.DefrostType == DefrostHeater
		return out
	}

	stop := st.TargetTemperature
	compressorOn := st.Relays[Compressor]
	switch r.compressor.Cooling(*rd.Temperature, stop+r.cfg.CompressorMargin, stop, now) {
	case TurnOn:
		out.Relays[Compressor] = true
		compressorOn = true
	case TurnOff:
		out.Relays[Compressor] = false
		compressorOn = false
	}
	st.Status = StatusFromCompressor(compressorOn)
	return out
}

// Observe feeds a committed relay change back into the controller that owns
// the actuator, so dwell times also count from changes made elsewhere.
func (r *Regulator) Observe(a Actuator, on bool, now time.Time) {
	if a == Compressor {
		r.compressor.Force(on, now)
	}
}

// Abort ends any defrost in progress; used when every output is forced off.
func (r *Regulator) Abort(now time.Time) {
	r.defrost.Force(false, now)
	r.forbidden = false
}

// Defrosting reports whether a defrost cycle is active.
func (r *Regulator) Defrosting() bool {
	return r.forbidden
}

// Compressor exposes the compressor controller (read-only use).
func (r *Regulator) Compressor() *Hysteresis {
	return r.compressor
}

// DefrostController exposes the defrost controller (read-only use).
func (r *Regulator) DefrostController() *Hysteresis {
	return r.defrost
}

// StatusFromCompressor derives the display status outside of defrost.
func StatusFromCompressor(on bool) Status {
	if on {
		return StatusOn
	}
	return StatusOff
}
