package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/fridge-controller/internal/logic"
	"github.com/sweeney/fridge-controller/internal/uplink"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func newTestStore() *Store {
	return NewStore(DefaultSetpoints(), func() time.Time { return t0 })
}

func TestReportRecordsAndReplies(t *testing.T) {
	s := newTestStore()

	reply := s.Report(uplink.Upload{
		ID:          "fridge-1",
		Temperature: f(6),
		Humidity:    58,
		Status:      "ON",
		IsAdmin:     true,
	})

	require.NotNil(t, reply.AutoMode)
	assert.True(t, *reply.AutoMode)
	assert.Equal(t, 4.0, *reply.TargetTemp)
	assert.Equal(t, -10.0, *reply.DefrostThreshold)
	assert.Equal(t, "AUTO", *reply.DefrostType)
	assert.False(t, *reply.CompressorOn)

	snap := s.Snapshot()
	assert.Equal(t, "fridge-1", snap.DeviceID)
	assert.True(t, snap.IsAdmin)
	assert.Equal(t, "ON", snap.Status)
	assert.Equal(t, t0, snap.UpdatedAt)
	assert.Nil(t, s.Sensors().Evaporator)
	assert.Equal(t, 6.0, *s.Sensors().Temperature)
}

func TestReplyCarriesOverridesAndMode(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.SetMode("manual"))
	require.NoError(t, s.WriteRelays(false, Relays{CompressorOn: true, HeaterOn: true}))

	reply := s.Report(uplink.Upload{})

	// The reply must round-trip through the device's merge rules.
	st := logic.NewOperatingState(4, -10, logic.DefrostAuto)
	require.NoError(t, uplink.ApplyReply(&st, reply))
	assert.Equal(t, logic.ModeManual, st.Mode)
	assert.True(t, st.Hints[logic.Compressor])
	assert.False(t, st.Hints[logic.Ventilation])
	assert.True(t, st.Hints[logic.Heater])
}

func TestWriteRelaysPrivilegeMatch(t *testing.T) {
	s := newTestStore()

	err := s.WriteRelays(true, Relays{CompressorOn: true})
	assert.ErrorIs(t, err, ErrPrivilegeMismatch)
	assert.False(t, s.Relays().CompressorOn)

	s.Report(uplink.Upload{IsAdmin: true})
	require.NoError(t, s.WriteRelays(true, Relays{CompressorOn: true}))
	assert.True(t, s.Relays().CompressorOn)

	assert.ErrorIs(t, s.WriteRelays(false, Relays{}), ErrPrivilegeMismatch)
	assert.True(t, s.Relays().CompressorOn, "rejected write must not change overrides")
}

func TestSetMode(t *testing.T) {
	s := newTestStore()
	assert.Equal(t, ModeAuto, s.Mode())

	require.NoError(t, s.SetMode("manual"))
	assert.Equal(t, ModeManual, s.Mode())
	require.NoError(t, s.SetMode(" AUTO "))
	assert.Equal(t, ModeAuto, s.Mode())

	assert.ErrorIs(t, s.SetMode("eco"), ErrInvalidMode)
	assert.Equal(t, ModeAuto, s.Mode())
}

func TestUpdateSetpoints(t *testing.T) {
	s := newTestStore()

	target := 2.5
	sp, err := s.UpdateSetpoints(SetpointsUpdate{TargetTemperature: &target})
	require.NoError(t, err)
	assert.Equal(t, 2.5, sp.TargetTemperature)
	assert.Equal(t, -10.0, sp.DefrostThreshold, "missing fields keep their value")

	dt := "manual_heater"
	sp, err = s.UpdateSetpoints(SetpointsUpdate{DefrostType: &dt})
	require.NoError(t, err)
	assert.Equal(t, "MANUAL_HEATER", sp.DefrostType)

	bad := "STEAM"
	threshold := -20.0
	_, err = s.UpdateSetpoints(SetpointsUpdate{DefrostType: &bad, DefrostThreshold: &threshold})
	assert.ErrorIs(t, err, logic.ErrUnknownDefrostType)
	assert.Equal(t, -10.0, s.Setpoints().DefrostThreshold, "a rejected update changes nothing")
}

func TestAdmin(t *testing.T) {
	s := newTestStore()
	assert.False(t, s.Admin())
	s.Report(uplink.Upload{IsAdmin: true})
	assert.True(t, s.Admin())
}
