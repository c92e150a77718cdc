package timetracking

import (
	"errors"
	"testing"
)

func TestNextState(t *testing.T) {
	tests := []struct {
		name    string
		state   ClockState
		action  EventType
		want    ClockState
		wantErr bool
	}{
		{"out + clock_in", StateOut, EventClockIn, StateIn, false},
		{"in + clock_out", StateIn, EventClockOut, StateOut, false},
		{"in + break_start", StateIn, EventBreakStart, StateOnBreak, false},
		{"on_break + break_end", StateOnBreak, EventBreakEnd, StateIn, false},
		{"on_break + clock_out closes break implicitly", StateOnBreak, EventClockOut, StateOut, false},

		{"out + clock_out", StateOut, EventClockOut, StateOut, true},
		{"out + break_start", StateOut, EventBreakStart, StateOut, true},
		{"out + break_end", StateOut, EventBreakEnd, StateOut, true},
		{"in + clock_in", StateIn, EventClockIn, StateIn, true},
		{"in + break_end", StateIn, EventBreakEnd, StateIn, true},
		{"on_break + clock_in", StateOnBreak, EventClockIn, StateOnBreak, true},
		{"on_break + break_start", StateOnBreak, EventBreakStart, StateOnBreak, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextState(tt.state, tt.action)
			if tt.wantErr {
				var ite *InvalidTransitionError
				if !errors.As(err, &ite) {
					t.Fatalf("err = %v, want InvalidTransitionError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NextState = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLegalActions(t *testing.T) {
	// NextStateの遷移表と食い違わないこと
	states := []ClockState{StateOut, StateIn, StateOnBreak}
	all := []EventType{EventClockIn, EventClockOut, EventBreakStart, EventBreakEnd}

	for _, st := range states {
		legal := map[EventType]bool{}
		for _, a := range LegalActions(st) {
			legal[a] = true
		}
		for _, a := range all {
			_, err := NextState(st, a)
			if legal[a] && err != nil {
				t.Errorf("state %q: %q listed as legal but NextState rejects it", st, a)
			}
			if !legal[a] && err == nil {
				t.Errorf("state %q: %q allowed by NextState but not listed", st, a)
			}
		}
	}
}
