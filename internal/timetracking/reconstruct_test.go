package timetracking

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"
)

const testTech = "01JTECH00000000000000000000"

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", "2026-03-02 "+hhmm+":00")
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func ev(id string, typ EventType, ts time.Time) ClockEvent {
	return ClockEvent{EventULID: id, TechnicianULID: testTech, Type: typ, Timestamp: ts}
}

func TestReconstructScenarios(t *testing.T) {
	now := at("18:00")

	tests := []struct {
		name   string
		events []ClockEvent
		now    time.Time
		want   []WorkSession
	}{
		{
			name: "plain shift",
			events: []ClockEvent{
				ev("e1", EventClockIn, at("09:00")),
				ev("e2", EventClockOut, at("17:00")),
			},
			now: now,
			want: []WorkSession{{
				SessionID: "session-e1", WorkedMinutes: 480, BreakMinutes: 0,
				Status: StatusCompleted, Date: "2026-03-02",
			}},
		},
		{
			name: "shift with lunch break",
			events: []ClockEvent{
				ev("e1", EventClockIn, at("09:00")),
				ev("e2", EventBreakStart, at("12:00")),
				ev("e3", EventBreakEnd, at("12:30")),
				ev("e4", EventClockOut, at("17:00")),
			},
			now: now,
			want: []WorkSession{{
				SessionID: "session-e1", WorkedMinutes: 450, BreakMinutes: 30,
				Status: StatusCompleted, Date: "2026-03-02",
			}},
		},
		{
			name: "break never ended is closed at clock out",
			events: []ClockEvent{
				ev("e1", EventClockIn, at("09:00")),
				ev("e2", EventBreakStart, at("12:00")),
				ev("e3", EventClockOut, at("17:00")),
			},
			now: now,
			want: []WorkSession{{
				SessionID: "session-e1", WorkedMinutes: 180, BreakMinutes: 300,
				Status: StatusCompleted, Date: "2026-03-02",
			}},
		},
		{
			name:   "open session still working",
			events: []ClockEvent{ev("e1", EventClockIn, at("09:00"))},
			now:    at("09:30"),
			want: []WorkSession{{
				SessionID: "session-e1", WorkedMinutes: 30, BreakMinutes: 0,
				Status: StatusActive, Date: "2026-03-02",
			}},
		},
		{
			name: "open session on break",
			events: []ClockEvent{
				ev("e1", EventClockIn, at("09:00")),
				ev("e2", EventBreakStart, at("10:00")),
			},
			now: at("10:15"),
			want: []WorkSession{{
				SessionID: "session-e1", WorkedMinutes: 60, BreakMinutes: 15,
				Status: StatusOnBreak, Date: "2026-03-02",
			}},
		},
		{
			name: "double clock in closes stale session defensively",
			events: []ClockEvent{
				ev("e1", EventClockIn, at("09:00")),
				ev("e2", EventClockIn, at("11:00")),
				ev("e3", EventClockOut, at("17:00")),
			},
			now: now,
			want: []WorkSession{
				{
					SessionID: "session-e1", WorkedMinutes: 0, BreakMinutes: 0,
					Status: StatusCompleted, Date: "2026-03-02", IncompleteData: true,
				},
				{
					SessionID: "session-e2", WorkedMinutes: 360, BreakMinutes: 0,
					Status: StatusCompleted, Date: "2026-03-02",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Reconstruct(tt.events, tt.now, time.UTC)
			if len(res.Sessions) != len(tt.want) {
				t.Fatalf("got %d sessions, want %d", len(res.Sessions), len(tt.want))
			}
			for i, want := range tt.want {
				got := res.Sessions[i]
				if got.SessionID != want.SessionID {
					t.Errorf("session %d: id = %q, want %q", i, got.SessionID, want.SessionID)
				}
				if got.WorkedMinutes != want.WorkedMinutes {
					t.Errorf("session %d: worked = %d, want %d", i, got.WorkedMinutes, want.WorkedMinutes)
				}
				if got.BreakMinutes != want.BreakMinutes {
					t.Errorf("session %d: break = %d, want %d", i, got.BreakMinutes, want.BreakMinutes)
				}
				if got.Status != want.Status {
					t.Errorf("session %d: status = %q, want %q", i, got.Status, want.Status)
				}
				if got.Date != want.Date {
					t.Errorf("session %d: date = %q, want %q", i, got.Date, want.Date)
				}
				if got.IncompleteData != want.IncompleteData {
					t.Errorf("session %d: incompleteData = %v, want %v", i, got.IncompleteData, want.IncompleteData)
				}
			}
		})
	}
}

// 並び替え不変: 同じイベント集合ならどの到着順でも同じ結果になる。
func TestReconstructOrderIndependence(t *testing.T) {
	events := []ClockEvent{
		ev("e1", EventClockIn, at("08:00")),
		ev("e2", EventBreakStart, at("10:00")),
		ev("e3", EventBreakEnd, at("10:20")),
		ev("e4", EventClockOut, at("12:00")),
		ev("e5", EventClockIn, at("13:00")),
		ev("e6", EventClockOut, at("17:30")),
	}
	now := at("18:00")
	want := Reconstruct(events, now, time.UTC)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		shuffled := make([]ClockEvent, len(events))
		copy(shuffled, events)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Reconstruct(shuffled, now, time.UTC)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("shuffle %d changed the result:\ngot  %+v\nwant %+v", i, got, want)
		}
	}
}

func TestReconstructOrphansDropped(t *testing.T) {
	tests := []struct {
		name        string
		events      []ClockEvent
		wantDropped int
		wantCount   int
	}{
		{
			name:        "clock out with no clock in",
			events:      []ClockEvent{ev("e1", EventClockOut, at("17:00"))},
			wantDropped: 1,
		},
		{
			name:        "break start before any clock in",
			events:      []ClockEvent{ev("e1", EventBreakStart, at("09:00"))},
			wantDropped: 1,
		},
		{
			name: "break end with no open break",
			events: []ClockEvent{
				ev("e1", EventClockIn, at("09:00")),
				ev("e2", EventBreakEnd, at("10:00")),
				ev("e3", EventClockOut, at("17:00")),
			},
			wantDropped: 1,
			wantCount:   1,
		},
		{
			name: "double break start drops the unmatched one",
			events: []ClockEvent{
				ev("e1", EventClockIn, at("09:00")),
				ev("e2", EventBreakStart, at("10:00")),
				ev("e3", EventBreakStart, at("11:00")),
				ev("e4", EventBreakEnd, at("11:30")),
				ev("e5", EventClockOut, at("17:00")),
			},
			wantDropped: 1,
			wantCount:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Reconstruct(tt.events, at("18:00"), time.UTC)
			if res.Dropped != tt.wantDropped {
				t.Errorf("dropped = %d, want %d", res.Dropped, tt.wantDropped)
			}
			if len(res.Sessions) != tt.wantCount {
				t.Errorf("sessions = %d, want %d", len(res.Sessions), tt.wantCount)
			}
		})
	}
}

func TestReconstructDoubleBreakStartMinutes(t *testing.T) {
	// 対を成したbreakだけが休憩時間に入る（11:00-11:30の30分のみ）
	events := []ClockEvent{
		ev("e1", EventClockIn, at("09:00")),
		ev("e2", EventBreakStart, at("10:00")),
		ev("e3", EventBreakStart, at("11:00")),
		ev("e4", EventBreakEnd, at("11:30")),
		ev("e5", EventClockOut, at("17:00")),
	}
	res := Reconstruct(events, at("18:00"), time.UTC)
	if len(res.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(res.Sessions))
	}
	s := res.Sessions[0]
	if s.BreakMinutes != 30 {
		t.Errorf("break = %d, want 30", s.BreakMinutes)
	}
	if s.WorkedMinutes != 450 {
		t.Errorf("worked = %d, want 450", s.WorkedMinutes)
	}
	if len(s.BreakEvents) != 2 {
		t.Errorf("break events = %d, want 2 (unmatched break_start removed)", len(s.BreakEvents))
	}
}

func TestReconstructMalformedSkipped(t *testing.T) {
	events := []ClockEvent{
		ev("e1", EventClockIn, at("09:00")),
		{EventULID: "bad1", TechnicianULID: testTech, Type: "nap", Timestamp: at("10:00")},
		{EventULID: "bad2", TechnicianULID: testTech, Type: EventClockOut}, // zero timestamp
		ev("e2", EventClockOut, at("17:00")),
	}
	res := Reconstruct(events, at("18:00"), time.UTC)
	if len(res.Malformed) != 2 {
		t.Fatalf("malformed = %d, want 2", len(res.Malformed))
	}
	if len(res.Sessions) != 1 || res.Sessions[0].WorkedMinutes != 480 {
		t.Fatalf("malformed events must not disturb the session: %+v", res.Sessions)
	}
}

// 保存則: completedセッションは worked + break == 全区間の分数。
func TestReconstructConservation(t *testing.T) {
	events := []ClockEvent{
		ev("e1", EventClockIn, at("08:17")),
		ev("e2", EventBreakStart, at("10:03")),
		ev("e3", EventBreakEnd, at("10:44")),
		ev("e4", EventBreakStart, at("13:00")),
		ev("e5", EventBreakEnd, at("13:29")),
		ev("e6", EventClockOut, at("16:51")),
	}
	res := Reconstruct(events, at("18:00"), time.UTC)
	if len(res.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(res.Sessions))
	}
	s := res.Sessions[0]
	total := minutesBetween(at("08:17"), at("16:51"))
	if s.WorkedMinutes+s.BreakMinutes != total {
		t.Errorf("worked(%d) + break(%d) != total(%d)", s.WorkedMinutes, s.BreakMinutes, total)
	}
	if s.WorkedMinutes < 0 || s.BreakMinutes < 0 {
		t.Errorf("negative durations: %+v", s)
	}
}

// openセッションは高々1つ。
func TestReconstructAtMostOneOpenSession(t *testing.T) {
	events := []ClockEvent{
		ev("e1", EventClockIn, at("06:00")),
		ev("e2", EventClockIn, at("09:00")), // 不正な二重clock_in
		ev("e3", EventBreakStart, at("10:00")),
	}
	res := Reconstruct(events, at("11:00"), time.UTC)

	open := 0
	for _, s := range res.Sessions {
		if s.Status == StatusActive || s.Status == StatusOnBreak {
			open++
		}
	}
	if open != 1 {
		t.Fatalf("open sessions = %d, want 1", open)
	}
	if got := StateOf(res); got != StateOnBreak {
		t.Errorf("StateOf = %q, want %q", got, StateOnBreak)
	}
}

// N組の綺麗なログはN個のcompletedセッションになる。
func TestReconstructCleanLogRoundTrip(t *testing.T) {
	base := at("06:00")
	var events []ClockEvent
	const n = 5
	for i := 0; i < n; i++ {
		day := base.AddDate(0, 0, i)
		events = append(events,
			ev(fmt.Sprintf("in%d", i), EventClockIn, day),
			ev(fmt.Sprintf("bs%d", i), EventBreakStart, day.Add(2*time.Hour)),
			ev(fmt.Sprintf("be%d", i), EventBreakEnd, day.Add(2*time.Hour+20*time.Minute)),
			ev(fmt.Sprintf("out%d", i), EventClockOut, day.Add(8*time.Hour)),
		)
	}
	res := Reconstruct(events, base.AddDate(0, 0, n), time.UTC)
	if len(res.Sessions) != n {
		t.Fatalf("sessions = %d, want %d", len(res.Sessions), n)
	}
	for i, s := range res.Sessions {
		if s.Status != StatusCompleted {
			t.Errorf("session %d: status = %q, want completed", i, s.Status)
		}
		if s.WorkedMinutes != 460 || s.BreakMinutes != 20 {
			t.Errorf("session %d: worked=%d break=%d, want 460/20", i, s.WorkedMinutes, s.BreakMinutes)
		}
	}
}

func TestReconstructDateUsesLocalZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 2026-03-02 23:30 UTC = 2026-03-03 08:30 JST
	events := []ClockEvent{ev("e1", EventClockIn, at("23:30"))}
	res := Reconstruct(events, at("23:45"), tokyo)
	if got := res.Sessions[0].Date; got != "2026-03-03" {
		t.Errorf("date = %q, want 2026-03-03", got)
	}
}

func TestMinutesBetweenRounding(t *testing.T) {
	tests := []struct {
		name string
		dur  time.Duration
		want int
	}{
		{"exact", 30 * time.Minute, 30},
		{"29s rounds down", 29 * time.Second, 0},
		{"30s tie rounds down", 30 * time.Second, 0},
		{"31s rounds up", 31 * time.Second, 1},
		{"90s tie rounds down", 90 * time.Second, 1},
		{"negative interval", -5 * time.Minute, -5},
	}
	from := at("09:00")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := minutesBetween(from, from.Add(tt.dur)); got != tt.want {
				t.Errorf("minutesBetween(+%v) = %d, want %d", tt.dur, got, tt.want)
			}
		})
	}
}

// 負のworkedは外に出ない。区間ごとの丸めで break合計 > raw になり得る:
// 31秒休憩が2回（各1分に切り上げ）で合計2分、raw 80秒は1分に切り捨て。
func TestReconstructNegativeWorkedClamped(t *testing.T) {
	base := at("09:00")
	events := []ClockEvent{
		ev("e1", EventClockIn, base),
		ev("e2", EventBreakStart, base),
		ev("e3", EventBreakEnd, base.Add(31*time.Second)),
		ev("e4", EventBreakStart, base.Add(40*time.Second)),
		ev("e5", EventBreakEnd, base.Add(71*time.Second)),
		ev("e6", EventClockOut, base.Add(80*time.Second)),
	}
	res := Reconstruct(events, at("10:00"), time.UTC)
	if len(res.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(res.Sessions))
	}
	s := res.Sessions[0]
	if s.BreakMinutes != 2 {
		t.Errorf("break = %d, want 2 (per-interval rounding)", s.BreakMinutes)
	}
	if s.WorkedMinutes != 0 {
		t.Errorf("worked = %d, want 0 (clamped, raw 1 - break 2)", s.WorkedMinutes)
	}
}

// 30秒ちょうどの休憩は0分。2回あっても合算して1分にはならない。
func TestReconstructShortBreaksRoundToZero(t *testing.T) {
	events := []ClockEvent{
		ev("e1", EventClockIn, at("09:00")),
		ev("e2", EventBreakStart, at("10:00")),
		ev("e3", EventBreakEnd, at("10:00").Add(30*time.Second)),
		ev("e4", EventBreakStart, at("11:00")),
		ev("e5", EventBreakEnd, at("11:00").Add(30*time.Second)),
		ev("e6", EventClockOut, at("17:00")),
	}
	res := Reconstruct(events, at("18:00"), time.UTC)
	if len(res.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(res.Sessions))
	}
	s := res.Sessions[0]
	if s.BreakMinutes != 0 {
		t.Errorf("break = %d, want 0", s.BreakMinutes)
	}
	if s.WorkedMinutes != 480 {
		t.Errorf("worked = %d, want 480", s.WorkedMinutes)
	}
}
