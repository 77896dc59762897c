package statusserver

import (
	"time"

	"github.com/bft-labs/lumux/pkg/lumux"
)

type statusMessage struct {
	Type       string              `json:"type"`
	Status     string              `json:"status"`
	ZoneColors map[string][3]uint8 `json:"zone_colors,omitempty"`
	Error      string              `json:"error,omitempty"`
	Time       time.Time           `json:"time"`
}

func newStatusMessage(s lumux.Status) statusMessage {
	msg := statusMessage{
		Type:   "status",
		Status: string(s.Kind),
		Error:  s.Error,
		Time:   s.Time,
	}
	if len(s.ZoneColors) > 0 {
		msg.ZoneColors = make(map[string][3]uint8, len(s.ZoneColors))
		for id, c := range s.ZoneColors {
			msg.ZoneColors[id] = c.Bytes()
		}
	}
	return msg
}

type stateMessage struct {
	Type     string `json:"type"`
	Previous string `json:"previous,omitempty"`
	Current  string `json:"current"`
	Reason   string `json:"reason,omitempty"`
}

// Stage durations are reported in milliseconds.
type stagesMessage struct {
	Capture float64 `json:"capture_ms"`
	Zones   float64 `json:"zones_ms"`
	Analyze float64 `json:"analyze_ms"`
	Smooth  float64 `json:"smooth_ms"`
	Update  float64 `json:"update_ms"`
	Total   float64 `json:"total_ms"`
}

type cropMessage struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

type statsMessage struct {
	State         string           `json:"state"`
	FPS           float64          `json:"fps"`
	TargetFPS     int              `json:"target_fps"`
	FrameCount    uint64           `json:"frame_count"`
	Errors        uint64           `json:"errors"`
	Skipped       uint64           `json:"skipped"`
	Drops         uint64           `json:"drops"`
	Sequence      uint8            `json:"sequence"`
	Stages        stagesMessage    `json:"last_stage_times"`
	Crop          cropMessage      `json:"crop"`
	LastError     string           `json:"last_error,omitempty"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	Clients       int              `json:"ws_clients"`
	EventsDropped uint64           `json:"events_dropped"`
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func newStatsMessage(state lumux.State, s lumux.Stats) statsMessage {
	msg := statsMessage{
		State:      state.String(),
		FPS:        s.FPS,
		TargetFPS:  s.TargetFPS,
		FrameCount: s.FrameCount,
		Errors:     s.Errors,
		Skipped:    s.Skipped,
		Drops:      s.Drops,
		Sequence:   s.Sequence,
		Stages: stagesMessage{
			Capture: ms(s.Stages.Capture),
			Zones:   ms(s.Stages.Zones),
			Analyze: ms(s.Stages.Analyze),
			Smooth:  ms(s.Stages.Smooth),
			Update:  ms(s.Stages.Update),
			Total:   ms(s.Stages.Total),
		},
		Crop:      cropMessage{Top: s.Crop.Top, Bottom: s.Crop.Bottom, Left: s.Crop.Left, Right: s.Crop.Right},
		LastError: s.LastError,
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		msg.StartedAt = &t
	}
	return msg
}
