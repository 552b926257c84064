// Package coordinator is the remote authority the refrigeration unit syncs
// with: it records the latest upload, answers with setpoints and manual
// relay overrides, and exposes the operator API.
package coordinator

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sweeney/fridge-controller/internal/logic"
	"github.com/sweeney/fridge-controller/internal/uplink"
)

var (
	// ErrPrivilegeMismatch rejects a relay write whose claimed privilege
	// differs from the one last reported by the device.
	ErrPrivilegeMismatch = errors.New("privilege mismatch")
	// ErrInvalidMode rejects modes other than auto and manual.
	ErrInvalidMode = errors.New("invalid mode")
)

// Mode names used by the operator API.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// Relays are the manual overrides handed to the device in MANUAL mode.
type Relays struct {
	CompressorOn  bool `json:"compressor_on"`
	VentilationOn bool `json:"ventilation_on"`
	HeaterOn      bool `json:"heater_on"`
}

// Setpoints are the configuration fields pushed to the device.
type Setpoints struct {
	TargetTemperature float64 `json:"target_temperature" example:"4"`
	DefrostThreshold  float64 `json:"defrost_threshold_temperature" example:"-10"`
	DefrostType       string  `json:"defrost_type" example:"AUTO"`
}

// DefaultSetpoints matches the device's factory defaults.
func DefaultSetpoints() Setpoints {
	return Setpoints{
		TargetTemperature: 4,
		DefrostThreshold:  -10,
		DefrostType:       string(logic.DefrostAuto),
	}
}

// Sensors is the latest reading reported by the device.
type Sensors struct {
	Temperature *float64 `json:"temperature"`
	Evaporator  *float64 `json:"evaporator_temperature"`
	Humidity    float64  `json:"humidity"`
}

// State is everything the authority knows.
type State struct {
	DeviceID  string    `json:"id,omitempty"`
	AutoMode  bool      `json:"auto_mode"`
	IsAdmin   bool      `json:"is_admin"`
	Status    string    `json:"status"`
	Problem   bool      `json:"problem"`
	Setpoints Setpoints `json:"setpoints"`
	Relays    Relays    `json:"relay_states"`
	Sensors   Sensors   `json:"sensors"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store holds the authority state in memory.
type Store struct {
	mu    sync.RWMutex
	state State
	now   func() time.Time
}

// NewStore creates a Store in AUTO mode with the given setpoints.
func NewStore(sp Setpoints, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		state: State{AutoMode: true, Status: string(logic.StatusOff), Setpoints: sp},
		now:   now,
	}
}

// Report records a device upload and returns the reply to send back.
func (s *Store) Report(u uplink.Upload) uplink.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.DeviceID = u.ID
	s.state.IsAdmin = u.IsAdmin
	s.state.Status = u.Status
	s.state.Problem = u.Problem
	s.state.Sensors = Sensors{
		Temperature: u.Temperature,
		Evaporator:  u.Evaporator,
		Humidity:    u.Humidity,
	}
	s.state.UpdatedAt = s.now()

	st := s.state
	return uplink.Reply{
		AutoMode:         &st.AutoMode,
		TargetTemp:       &st.Setpoints.TargetTemperature,
		DefrostThreshold: &st.Setpoints.DefrostThreshold,
		DefrostType:      &st.Setpoints.DefrostType,
		CompressorOn:     &st.Relays.CompressorOn,
		VentilationOn:    &st.Relays.VentilationOn,
		HeaterOn:         &st.Relays.HeaterOn,
	}
}

// Relays returns the current manual overrides.
func (s *Store) Relays() Relays {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Relays
}

// WriteRelays replaces the manual overrides when claimedAdmin matches the
// privilege last reported by the device.
func (s *Store) WriteRelays(claimedAdmin bool, r Relays) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if claimedAdmin != s.state.IsAdmin {
		return ErrPrivilegeMismatch
	}
	s.state.Relays = r
	return nil
}

// Mode returns "auto" or "manual".
func (s *Store) Mode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.AutoMode {
		return ModeAuto
	}
	return ModeManual
}

// SetMode switches between auto and manual.
func (s *Store) SetMode(mode string) error {
	var auto bool
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeAuto:
		auto = true
	case ModeManual:
	default:
		return ErrInvalidMode
	}

	s.mu.Lock()
	s.state.AutoMode = auto
	s.mu.Unlock()
	return nil
}

// Setpoints returns the configured setpoints.
func (s *Store) Setpoints() Setpoints {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Setpoints
}

// SetpointsUpdate is a partial setpoint change; nil fields are left alone.
type SetpointsUpdate struct {
	TargetTemperature *float64 `json:"target_temperature,omitempty" example:"3.5"`
	DefrostThreshold  *float64 `json:"defrost_threshold_temperature,omitempty" example:"-12"`
	DefrostType       *string  `json:"defrost_type,omitempty" example:"MANUAL_HEATER"`
}

// UpdateSetpoints applies u and returns the result. An unknown defrost type
// rejects the whole update.
func (s *Store) UpdateSetpoints(u SetpointsUpdate) (Setpoints, error) {
	var dt logic.DefrostType
	if u.DefrostType != nil {
		var err error
		if dt, err = logic.ParseDefrostType(*u.DefrostType); err != nil {
			return Setpoints{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u.TargetTemperature != nil {
		s.state.Setpoints.TargetTemperature = *u.TargetTemperature
	}
	if u.DefrostThreshold != nil {
		s.state.Setpoints.DefrostThreshold = *u.DefrostThreshold
	}
	if u.DefrostType != nil {
		s.state.Setpoints.DefrostType = string(dt)
	}
	return s.state.Setpoints, nil
}

// Admin reports the privilege last reported by the device.
func (s *Store) Admin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAdmin
}

// Sensors returns the latest reported reading.
func (s *Store) Sensors() Sensors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Sensors
}

// Snapshot returns a copy of the full state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
