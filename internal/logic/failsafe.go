package logic

// Verdict is the Supervisor's classification of one loop iteration.
type Verdict int

const (
	VerdictNormal     Verdict = iota // run normal control
	VerdictFault                     // sensors missing: force everything off
	VerdictRecovering                // sensors back, waiting for stability
	VerdictRecovered                 // stability reached this cycle
)

func (v Verdict) String() string {
	switch v {
	case VerdictFault:
		return "fault"
	case VerdictRecovering:
		return "recovering"
	case VerdictRecovered:
		return "recovered"
	default:
		return "normal"
	}
}

// DefaultStableCycles is how many consecutive good acquisitions end a fault.
const DefaultStableCycles = 10

// Supervisor is the sensor fail-safe state machine (NORMAL / FAULT).
type Supervisor struct {
	required int
	stable   int
	fault    bool
}

// NewSupervisor creates a Supervisor in NORMAL that needs required good
// acquisitions to leave FAULT.
func NewSupervisor(required int) *Supervisor {
	if required < 1 {
		required = 1
	}
	return &Supervisor{required: required}
}

// Check classifies an iteration. sensorsOK is whether the current reading is
// complete; fresh is whether it was acquired during this iteration. Only fresh
// readings advance the stability counter.
// entered is true on the NORMAL -> FAULT edge only.
func (s *Supervisor) Check(sensorsOK, fresh bool) (v Verdict, entered bool) {
	if !sensorsOK {
		entered = !s.fault
		s.fault = true
		s.stable = 0
		return VerdictFault, entered
	}
	if !s.fault {
		return VerdictNormal, false
	}
	if fresh {
		s.stable++
	}
	if s.stable >= s.required {
		s.fault = false
		s.stable = 0
		return VerdictRecovered, false
	}
	return VerdictRecovering, false
}

// Fault reports whether the supervisor is in FAULT.
func (s *Supervisor) Fault() bool {
	return s.fault
}

// Stable returns the current stability counter.
func (s *Supervisor) Stable() int {
	return s.stable
}

// LinkMonitor tracks uplink reachability and decides when a lost uplink
// warrants an emergency stop: once per failure onset, and never before the
// first successful exchange.
type LinkMonitor struct {
	everConnected bool
	triggered     bool
	reachable     bool
}

// Observe records one sync outcome. stop is true when the caller should
// force all outputs off; lost/restored mark reachability edges.
func (m *LinkMonitor) Observe(ok bool) (stop, lost, restored bool) {
	if ok {
		restored = m.everConnected && !m.reachable
		m.everConnected = true
		m.triggered = false
		m.reachable = true
		return false, false, restored
	}
	lost = m.reachable
	m.reachable = false
	if m.everConnected && !m.triggered {
		m.triggered = true
		return true, lost, false
	}
	return false, lost, false
}

// Reachable reports whether the last sync succeeded.
func (m *LinkMonitor) Reachable() bool {
	return m.reachable
}

// EverConnected reports whether any sync has succeeded.
func (m *LinkMonitor) EverConnected() bool {
	return m.everConnected
}
