package timetracking

import (
	"fmt"
	"time"
)

// 打刻イベント種別（閉じた集合。caseを増やす時はreconstruct.goのscanも更新すること）
type EventType string

const (
	EventClockIn    EventType = "clock_in"
	EventClockOut   EventType = "clock_out"
	EventBreakStart EventType = "break_start"
	EventBreakEnd   EventType = "break_end"
)

func (t EventType) Valid() bool {
	switch t {
	case EventClockIn, EventClockOut, EventBreakStart, EventBreakEnd:
		return true
	}
	return false
}

// Location: 打刻時の位置情報（任意）
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   *string `json:"address,omitempty"`
}

// ClockEvent: 技術者の打刻1件。appendされた後は不変。
type ClockEvent struct {
	EventULID      string
	TechnicianULID string
	Type           EventType
	Timestamp      time.Time
	Location       *Location
	Notes          *string
}

// MalformedEventError: 形が壊れたイベント（timestamp欠落など）。
// 再構築はこのイベントをスキップして続行する。過去のログは修正できない。
type MalformedEventError struct {
	EventULID string
	Reason    string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed clock event %q: %s", e.EventULID, e.Reason)
}

// ValidateShape: イベントの形だけ検証する。意味（順序の整合性）はstatemachine.goが担当。
func (ev ClockEvent) ValidateShape() error {
	if ev.TechnicianULID == "" {
		return &MalformedEventError{EventULID: ev.EventULID, Reason: "technician id is empty"}
	}
	if !ev.Type.Valid() {
		return &MalformedEventError{EventULID: ev.EventULID, Reason: fmt.Sprintf("unknown event type %q", ev.Type)}
	}
	if ev.Timestamp.IsZero() {
		return &MalformedEventError{EventULID: ev.EventULID, Reason: "timestamp is zero"}
	}
	return nil
}
