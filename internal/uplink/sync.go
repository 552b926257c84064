package uplink

import (
	"github.com/sweeney/fridge-controller/internal/logger"
	"github.com/sweeney/fridge-controller/internal/logic"
)

// Outcome is the result of one sync.
type Outcome int

const (
	OK Outcome = iota
	Unreachable
)

func (o Outcome) String() string {
	if o == OK {
		return "ok"
	}
	return "unreachable"
}

// Synchronizer uploads the current state and merges the reply.
// Privilege enforcement for relay writes lives in the authority.
type Synchronizer struct {
	client   Client
	deviceID string
	log      *logger.Logger
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(client Client, deviceID string, log *logger.Logger) *Synchronizer {
	return &Synchronizer{client: client, deviceID: deviceID, log: log}
}

// Sync performs one exchange. On success the reply is merged into st.
func (s *Synchronizer) Sync(rd logic.Reading, st *logic.OperatingState) Outcome {
	reply, err := s.client.Exchange(BuildUpload(s.deviceID, rd, *st))
	if err != nil {
		s.log.Warnw("upload failed", "error", err)
		return Unreachable
	}
	if err := ApplyReply(st, reply); err != nil {
		s.log.Warnw("reply partly rejected", "error", err)
	}
	return OK
}
