package monitorstream

import (
	"encoding/json"

	"github.com/google/uuid"

	"plcsim/internal/broadcast"
)

// Frame is one cycle's worth of simulation state, serialized to every
// connected viewer (spec §6 "Monitor event" plus the cycle-stack log and
// status machine, all folded into one payload per cycle so a viewer
// never has to reconstruct ordering across separate messages).
type Frame struct {
	RunID     string                   `json:"run_id"`
	Cycle     int64                    `json:"cycle"`
	Status    string                   `json:"status"`
	Monitors  []broadcast.MonitorEvent `json:"monitors,omitempty"`
	Warnings  []string                 `json:"warnings,omitempty"`
	Log       []string                 `json:"log,omitempty"`
	UnitTests broadcast.UnitTestReport `json:"unit_tests"`
}

// PublishCycle builds a Frame from bc's current per-cycle state and
// fans it out to every connected viewer. Intended to be called once per
// completed cycle by whatever drives the engine (spec §4.8 step 5, "end
// of cycle").
func (s *Server) PublishCycle(bc *broadcast.Broadcast, runID uuid.UUID, cycle int64) error {
	f := Frame{
		RunID:     runID.String(),
		Cycle:     cycle,
		Status:    bc.StatusNow().String(),
		Monitors:  bc.Monitors(),
		Warnings:  bc.Warnings(),
		Log:       bc.RenderLog(),
		UnitTests: bc.UnitTests(),
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}
	s.Publish(payload)
	return nil
}
