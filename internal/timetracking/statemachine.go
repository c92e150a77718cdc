package timetracking

import "fmt"

// 打刻の状態機械。append前の検証レイヤ。
// reconstruct.go は不正な並びも許容するが、新規打刻はここで弾いてログを綺麗に保つ。
type ClockState string

const (
	StateOut     ClockState = "out"      // 未出勤
	StateIn      ClockState = "in"       // 勤務中
	StateOnBreak ClockState = "on_break" // 休憩中
)

type InvalidTransitionError struct {
	State  ClockState
	Action EventType
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("action %q is not allowed in state %q", e.Action, e.State)
}

// NextState: 現在の状態に対して action が合法なら遷移先を返す。
// ON_BREAK --clock_out--> OUT は合法（開いた休憩はclock_out時刻で閉じる。reconstruct.go参照）。
func NextState(state ClockState, action EventType) (ClockState, error) {
	switch state {
	case StateOut:
		if action == EventClockIn {
			return StateIn, nil
		}
	case StateIn:
		switch action {
		case EventClockOut:
			return StateOut, nil
		case EventBreakStart:
			return StateOnBreak, nil
		}
	case StateOnBreak:
		switch action {
		case EventBreakEnd:
			return StateIn, nil
		case EventClockOut:
			return StateOut, nil
		}
	}
	return state, &InvalidTransitionError{State: state, Action: action}
}

// LegalActions: UI側で押せるボタンを出すための補助。
func LegalActions(state ClockState) []EventType {
	switch state {
	case StateOut:
		return []EventType{EventClockIn}
	case StateIn:
		return []EventType{EventClockOut, EventBreakStart}
	case StateOnBreak:
		return []EventType{EventBreakEnd, EventClockOut}
	}
	return nil
}
