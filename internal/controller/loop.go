// Package controller runs the single-threaded control loop that sequences
// sensor acquisition, fail-safe supervision, hysteresis control, relay
// output, uplink sync and persistence.
package controller

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/fridge-controller/internal/logger"
	"github.com/sweeney/fridge-controller/internal/logic"
	"github.com/sweeney/fridge-controller/internal/metrics"
	"github.com/sweeney/fridge-controller/internal/mqtt"
	"github.com/sweeney/fridge-controller/internal/relay"
	"github.com/sweeney/fridge-controller/internal/status"
	"github.com/sweeney/fridge-controller/internal/uplink"
)

// Emergency stop and defrost abort reasons.
const (
	ReasonSensorFault = "SENSOR_FAULT"
	ReasonUplinkLost  = "UPLINK_LOST"
	ReasonModeChange  = "MODE_CHANGE"
)

// Sensors produces one reading per call.
type Sensors interface {
	Read() logic.Reading
}

// Syncer exchanges state with the coordination service.
type Syncer interface {
	Sync(rd logic.Reading, st *logic.OperatingState) uplink.Outcome
}

// Store persists the operating state.
type Store interface {
	Save(st logic.OperatingState) error
}

// Deps are the collaborators the loop drives. Sensors, Relays, Uplink and
// Store are required; the rest default to no-ops.
type Deps struct {
	Sensors    Sensors
	Relays     *relay.Driver
	Uplink     Syncer
	Store      Store
	Publisher  mqtt.Publisher
	MQTTStatus mqtt.ConnectionStatus
	Tracker    *status.Tracker
	Metrics    *metrics.Recorder
	Network    func() *status.NetworkInfo
	Log        *logger.Logger
}

// Config holds loop intervals and controller tuning.
type Config struct {
	Sensors      time.Duration
	Upload       time.Duration
	Save         time.Duration
	Heartbeat    time.Duration // 0 disables
	Regulator    logic.RegulatorConfig
	StableCycles int
}

// DefaultConfig returns the unit's factory schedule.
func DefaultConfig() Config {
	return Config{
		Sensors:      4 * time.Second,
		Upload:       5 * time.Second,
		Save:         120 * time.Second,
		Heartbeat:    15 * time.Minute,
		Regulator:    logic.DefaultRegulatorConfig(),
		StableCycles: logic.DefaultStableCycles,
	}
}

// Loop owns the OperatingState. It is not safe for concurrent use; outer
// surfaces read the status.Tracker instead.
type Loop struct {
	cfg  Config
	deps Deps
	log  *logger.Logger
	now  func() time.Time

	st         logic.OperatingState
	reading    logic.Reading
	regulator  *logic.Regulator
	supervisor *logic.Supervisor
	link       logic.LinkMonitor
	counts     logic.EventCounts

	lastRead      time.Time
	lastUpload    time.Time
	lastSave      time.Time
	lastHeartbeat time.Time
	shutdown      bool
}

// New creates a Loop starting from st. Upload, save and heartbeat schedules
// count from now; the first tick always reads the sensors.
func New(st logic.OperatingState, deps Deps, cfg Config, now func() time.Time) *Loop {
	if now == nil {
		now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Publisher == nil {
		deps.Publisher = mqtt.NopPublisher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	start := now()
	if deps.Tracker == nil {
		deps.Tracker = status.NewTracker(start, status.Config{})
	}
	if st.Relays == nil {
		st.Relays = logic.AllOff()
	}
	st.Fault = false

	return &Loop{
		cfg:           cfg,
		deps:          deps,
		log:           deps.Log,
		now:           now,
		st:            st,
		regulator:     logic.NewRegulator(cfg.Regulator),
		supervisor:    logic.NewSupervisor(cfg.StableCycles),
		lastUpload:    start,
		lastSave:      start,
		lastHeartbeat: start,
	}
}

// State returns a copy of the current operating state.
func (l *Loop) State() logic.OperatingState {
	return l.st.Clone()
}

// Counts returns the event counters.
func (l *Loop) Counts() logic.EventCounts {
	return l.counts
}

// Reachable reports whether the last uplink sync succeeded.
func (l *Loop) Reachable() bool {
	return l.link.Reachable()
}

// Start publishes the retained STARTUP lifecycle event.
func (l *Loop) Start() {
	l.report()
	l.publishSystem(mqtt.EventStartup, "", true)
	l.log.Infow("control loop started",
		"mode", l.st.Mode,
		"target", l.st.TargetTemperature,
		"defrost_threshold", l.st.DefrostThreshold,
		"defrost_type", l.st.DefrostType,
	)
}

// Run drives Tick from tick until a signal arrives. The shutdown path runs
// on every exit, including a panic inside Tick, which is returned as an error.
func (l *Loop) Run(tick <-chan time.Time, sig <-chan os.Signal) (err error) {
	reason := "EXIT"
	defer func() {
		if r := recover(); r != nil {
			reason = "PANIC"
			err = fmt.Errorf("control loop panic: %v", r)
		}
		l.Shutdown(reason)
	}()

	l.Start()
	for {
		select {
		case s := <-sig:
			reason = signalName(s)
			l.log.Infow("received signal, shutting down", "signal", reason)
			return nil
		case <-tick:
			l.Tick(l.now())
		}
	}
}

// Tick runs one loop iteration.
func (l *Loop) Tick(now time.Time) {
	fresh := false
	if l.lastRead.IsZero() || now.Sub(l.lastRead) >= l.cfg.Sensors {
		l.reading = l.deps.Sensors.Read()
		l.lastRead = now
		l.st.Privileged = l.reading.Privileged
		fresh = true
	}

	verdict, entered := l.supervisor.Check(l.reading.SensorsOK(), fresh)
	switch verdict {
	case logic.VerdictFault:
		l.st.Fault = true
		if entered {
			l.log.Warnw("sensor fault, all outputs off",
				"temperature_ok", l.reading.Temperature != nil,
				"evaporator_ok", l.reading.Evaporator != nil,
			)
			l.emit(now, logic.EventFault, "")
		}
		l.emergencyStop(now, ReasonSensorFault, entered)
	case logic.VerdictRecovering:
		if fresh {
			l.log.Debugw("sensor recovery", "stable", l.supervisor.Stable(), "required", l.cfg.StableCycles)
		}
	case logic.VerdictRecovered:
		l.st.Fault = false
		l.log.Infow("sensors stable, leaving fault")
		l.emit(now, logic.EventRecovered, "")
	default:
		l.control(now)
	}

	if now.Sub(l.lastUpload) >= l.cfg.Upload {
		l.sync(now)
	}
	if now.Sub(l.lastSave) >= l.cfg.Save {
		l.save(now)
	}
	if l.cfg.Heartbeat > 0 && now.Sub(l.lastHeartbeat) >= l.cfg.Heartbeat {
		l.lastHeartbeat = now
		l.heartbeat()
	}
	l.report()
}

func (l *Loop) control(now time.Time) {
	if l.st.Mode == logic.ModeManual {
		desired := l.st.Hints
		if desired == nil {
			// No reply since entering MANUAL: hold the committed outputs.
			desired = l.st.Relays
		}
		l.apply(now, desired.Clone())
		l.st.Status = logic.StatusFromCompressor(l.st.Relays[logic.Compressor])
		return
	}

	out := l.regulator.Evaluate(&l.st, l.reading, now)
	l.apply(now, out.Relays)
	if on, ok := out.Relays[logic.Compressor]; ok && l.st.Relays[logic.Compressor] != on {
		// Write failed: resync the controller with the real output.
		l.regulator.Observe(logic.Compressor, l.st.Relays[logic.Compressor], now)
	}

	switch out.Defrost {
	case logic.TurnOn:
		l.log.Infow("defrost started", "evaporator", *l.reading.Evaporator, "type", l.st.DefrostType)
		l.emit(now, logic.EventDefrostStart, "")
	case logic.TurnOff:
		l.log.Infow("defrost ended", "evaporator", *l.reading.Evaporator)
		l.emit(now, logic.EventDefrostEnd, "")
	}

	if l.regulator.Defrosting() {
		l.st.Status = logic.StatusDefrost
	} else {
		l.st.Status = logic.StatusFromCompressor(l.st.Relays[logic.Compressor])
	}
}

// apply commits desired and feeds every flip back to the regulator.
func (l *Loop) apply(now time.Time, desired logic.RelayStates) {
	for _, c := range l.deps.Relays.Apply(&l.st, desired, now) {
		l.regulator.Observe(c.Actuator, c.On, c.At)
		if c.Actuator != logic.Compressor {
			continue
		}
		if c.On {
			l.emit(now, logic.EventCompressorOn, "")
		} else {
			l.emit(now, logic.EventCompressorOff, "")
		}
	}
}

// emergencyStop forces every output off and aborts any defrost.
func (l *Loop) emergencyStop(now time.Time, reason string, announce bool) {
	wasDefrosting := l.regulator.Defrosting()
	l.apply(now, logic.AllOff())
	l.regulator.Abort(now)
	l.st.Status = logic.StatusOff

	if wasDefrosting {
		l.emit(now, logic.EventDefrostEnd, reason)
	}
	if announce {
		l.log.Warnw("emergency stop", "reason", reason)
		l.emit(now, logic.EventEmergencyStop, reason)
	}
}

func (l *Loop) sync(now time.Time) {
	l.lastUpload = now
	prevMode := l.st.Mode

	start := time.Now()
	ok := l.deps.Uplink.Sync(l.reading, &l.st) == uplink.OK
	l.deps.Metrics.Sync(start, ok)
	l.deps.Tracker.SetUplink(ok, now)
	if !ok {
		l.deps.Metrics.Error("uplink")
	}

	stop, lost, restored := l.link.Observe(ok)
	switch {
	case lost:
		l.log.Warnw("uplink lost")
		l.emit(now, logic.EventUplinkLost, "")
	case restored:
		l.log.Infow("uplink restored")
		l.emit(now, logic.EventUplinkRestored, "")
	}
	if stop {
		l.emergencyStop(now, ReasonUplinkLost, true)
	}

	if l.st.Mode != prevMode {
		l.log.Infow("mode changed", "from", prevMode, "to", l.st.Mode)
		if l.regulator.Defrosting() {
			l.regulator.Abort(now)
			l.log.Infow("defrost aborted by mode change")
			l.emit(now, logic.EventDefrostEnd, ReasonModeChange)
		}
		if l.st.Mode == logic.ModeManual {
			l.emit(now, logic.EventModeManual, "")
		} else {
			l.emit(now, logic.EventModeAuto, "")
		}
	}
}

func (l *Loop) save(now time.Time) {
	l.lastSave = now
	if err := l.deps.Store.Save(l.st); err != nil {
		l.log.Errorw("state save failed", "error", err)
		l.deps.Metrics.Error("persist")
		return
	}
	l.st.LastSavedAt = now
}

func (l *Loop) heartbeat() {
	if l.deps.Network != nil {
		if net := l.deps.Network(); net != nil {
			l.deps.Tracker.SetNetwork(net)
		}
	}
	l.report()
	c := l.counts
	l.log.Infow("heartbeat",
		"status", l.st.Status,
		"mode", l.st.Mode,
		"fault", l.st.Fault,
		"compressor_starts", c.CompressorStarts,
		"defrosts", c.Defrosts,
		"faults", c.Faults,
	)
	l.publishSystem(mqtt.EventHeartbeat, "", false)
}

// Shutdown drives every output off, sets status OFF and makes a best-effort
// final upload and snapshot. It runs at most once.
func (l *Loop) Shutdown(reason string) {
	if l.shutdown {
		return
	}
	l.shutdown = true

	now := l.now()
	l.apply(now, logic.AllOff())
	l.regulator.Abort(now)
	l.st.Status = logic.StatusOff

	if l.deps.Uplink.Sync(l.reading, &l.st) != uplink.OK {
		l.log.Warnw("final upload failed")
	}
	// A late reply may carry manual hints; outputs stay off.
	l.st.Hints = nil
	l.save(now)

	l.report()
	l.publishSystem(mqtt.EventShutdown, reason, true)
	l.log.Infow("control loop stopped", "reason", reason)
}

func (l *Loop) emit(now time.Time, t logic.EventType, reason string) {
	l.counts.Count(t)
	l.deps.Metrics.Event(t)

	e := logic.Event{
		Timestamp: now,
		Type:      t,
		Status:    l.st.Status,
		Mode:      l.st.Mode,
		Fault:     l.st.Fault,
		Relays:    l.st.Relays.Clone(),
		Reason:    reason,
	}
	l.log.Debugw("event", "type", t, "status", e.Status, "reason", reason)
	if err := l.deps.Publisher.Publish(e); err != nil {
		l.log.Warnw("publish failed", "event", t, "error", err)
		l.deps.Metrics.Error("publish")
	}
}

func (l *Loop) publishSystem(event, reason string, retained bool) {
	snap := l.deps.Tracker.Snapshot()
	e := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := l.deps.Publisher.PublishSystem(e); err != nil {
		l.log.Warnw("failed to publish system event", "event", event, "error", err)
		l.deps.Metrics.Error("publish")
	}
}

// report refreshes the tracker and gauges for outer surfaces.
func (l *Loop) report() {
	l.deps.Tracker.Update(l.st, l.reading, l.supervisor.Stable(), l.counts)
	if l.deps.MQTTStatus != nil {
		l.deps.Tracker.SetMQTTConnected(l.deps.MQTTStatus.IsConnected())
	}
	l.deps.Metrics.Observe(l.st, l.reading)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
