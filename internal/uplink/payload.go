// Package uplink exchanges state with the remote coordination service.
package uplink

import (
	"fmt"

	"github.com/sweeney/fridge-controller/internal/logic"
)

// Upload is the body the device posts every upload interval.
// Absent temperatures are sent as JSON null.
type Upload struct {
	ID               string   `json:"id,omitempty"`
	Temperature      *float64 `json:"temperature"`
	Humidity         float64  `json:"humidity"`
	Evaporator       *float64 `json:"evaporator_temperature"`
	TargetTemp       float64  `json:"target_temperature"`
	DefrostThreshold float64  `json:"defrost_threshold_temperature"`
	DefrostType      string   `json:"defrost_type"`
	CompressorOn     bool     `json:"compressor_on"`
	VentilationOn    bool     `json:"ventilation_on"`
	HeaterOn         bool     `json:"heater_on"`
	AutoMode         bool     `json:"auto_mode"`
	Status           string   `json:"status"`
	Problem          bool     `json:"problem"`
	IsAdmin          bool     `json:"is_admin"`
}

// Reply is the authority's answer. Nil fields were not sent.
type Reply struct {
	AutoMode         *bool    `json:"auto_mode,omitempty"`
	TargetTemp       *float64 `json:"target_temperature,omitempty"`
	DefrostThreshold *float64 `json:"defrost_threshold_temperature,omitempty"`
	DefrostType      *string  `json:"defrost_type,omitempty"`
	CompressorOn     *bool    `json:"compressor_on,omitempty"`
	VentilationOn    *bool    `json:"ventilation_on,omitempty"`
	HeaterOn         *bool    `json:"heater_on,omitempty"`
}

// BuildUpload assembles the upload body from the current reading and state.
func BuildUpload(deviceID string, rd logic.Reading, st logic.OperatingState) Upload {
	return Upload{
		ID:               deviceID,
		Temperature:      rd.Temperature,
		Humidity:         rd.Humidity,
		Evaporator:       rd.Evaporator,
		TargetTemp:       st.TargetTemperature,
		DefrostThreshold: st.DefrostThreshold,
		DefrostType:      string(st.DefrostType),
		CompressorOn:     st.Relays[logic.Compressor],
		VentilationOn:    st.Relays[logic.Ventilation],
		HeaterOn:         st.Relays[logic.Heater],
		AutoMode:         st.Mode == logic.ModeAuto,
		Status:           string(st.Status),
		Problem:          st.Fault,
		IsAdmin:          st.Privileged,
	}
}

// ApplyReply merges the reply into st. Configuration fields overwrite local
// values when present. Relay hints are stored in st.Hints only when the
// resulting mode is MANUAL; a missing hint means off. st.Relays is left to
// the relay driver, which commits the hints on the next control cycle.
// An unknown defrost type is left unapplied and reported as an error.
func ApplyReply(st *logic.OperatingState, r Reply) error {
	var err error
	if r.AutoMode != nil {
		if *r.AutoMode {
			st.Mode = logic.ModeAuto
		} else {
			st.Mode = logic.ModeManual
		}
	}
	if r.TargetTemp != nil {
		st.TargetTemperature = *r.TargetTemp
	}
	if r.DefrostThreshold != nil {
		st.DefrostThreshold = *r.DefrostThreshold
	}
	if r.DefrostType != nil {
		dt, perr := logic.ParseDefrostType(*r.DefrostType)
		if perr != nil {
			err = fmt.Errorf("reply defrost_type %q: %w", *r.DefrostType, perr)
		} else {
			st.DefrostType = dt
		}
	}

	if st.Mode == logic.ModeManual {
		st.Hints = logic.RelayStates{
			logic.Compressor:  isTrue(r.CompressorOn),
			logic.Ventilation: isTrue(r.VentilationOn),
			logic.Heater:      isTrue(r.HeaterOn),
		}
	} else {
		st.Hints = nil
	}
	return err
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
