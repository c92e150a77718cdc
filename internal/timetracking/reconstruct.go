package timetracking

import (
	"sort"
	"time"
)

type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusOnBreak   SessionStatus = "on_break"
	StatusCompleted SessionStatus = "completed"
)

// WorkSession: 再構築で導出されるエンティティ。永続化しない（毎回計算し直す）。
type WorkSession struct {
	SessionID      string // "session-" + clock_inのULID。再構築しても安定。
	TechnicianULID string
	ClockIn        ClockEvent
	ClockOut       *ClockEvent // openの間はnil
	BreakEvents    []ClockEvent
	WorkedMinutes  int
	BreakMinutes   int
	Status         SessionStatus
	Date           string // clock_in日（ローカル日付, YYYY-MM-DD）
	// clock_outが無いままclock_inが来た復旧セッション。UI側は「データ不完全」と表示する。
	IncompleteData bool
}

// Result: セッション列 + 観測用のカウンタ。
// 再構築は不正なログでも失敗しない。落としたイベントは数だけ返す。
type Result struct {
	Sessions  []WorkSession
	Dropped   int                    // 迷子イベント（対になる打刻が無い）
	Malformed []*MalformedEventError // 形が壊れていてスキップしたもの
}

// Reconstruct: 1技術者分の打刻ログからセッション列を導出する純関数。
// 到着順は信用しない（sort してから単一走査）。now は呼び出し側が注入する。
// 同一入力に対して決定的: timestampの同値はソート前の並び（=格納順）を保持する。
func Reconstruct(events []ClockEvent, now time.Time, loc *time.Location) Result {
	if loc == nil {
		loc = time.UTC
	}

	var res Result

	sorted := make([]ClockEvent, 0, len(events))
	for i := range events {
		if err := events[i].ValidateShape(); err != nil {
			res.Malformed = append(res.Malformed, err.(*MalformedEventError))
			continue
		}
		sorted = append(sorted, events[i])
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	st := newScanState(loc)
	for i := range sorted {
		if s := st.apply(sorted[i], &res.Dropped); s != nil {
			res.Sessions = append(res.Sessions, *s)
		}
	}
	if s := st.finishOpen(now); s != nil {
		res.Sessions = append(res.Sessions, *s)
	}
	return res
}

// ===== scan state =====

// scanState: 走査中のアキュムレータ。イベント種別ごとの遷移を個別にテストできる形にしてある。
type scanState struct {
	loc          *time.Location
	openClockIn  *ClockEvent
	openBreak    *ClockEvent
	breakEvents  []ClockEvent
	breakMinutes int
}

func newScanState(loc *time.Location) *scanState {
	return &scanState{loc: loc}
}

func (st *scanState) reset() {
	st.openClockIn = nil
	st.openBreak = nil
	st.breakEvents = nil
	st.breakMinutes = 0
}

// apply: イベント1件を処理する。セッションが確定したらそれを返す。
// dropped は迷子イベントを落とした時に加算する。
func (st *scanState) apply(ev ClockEvent, dropped *int) *WorkSession {
	switch ev.Type {
	case EventClockIn:
		return st.applyClockIn(ev)
	case EventBreakStart:
		st.applyBreakStart(ev, dropped)
	case EventBreakEnd:
		st.applyBreakEnd(ev, dropped)
	case EventClockOut:
		return st.applyClockOut(ev, dropped)
	}
	return nil
}

// applyClockIn: clock_outの無いままの二重clock_inは前のセッションを防御的に閉じる。
// 勤務時間は知りようがないので0分（新しいclock_inの時刻を流用して推測はしない）。
func (st *scanState) applyClockIn(ev ClockEvent) *WorkSession {
	var stale *WorkSession
	if st.openClockIn != nil {
		s := st.buildSession(nil, 0, StatusCompleted)
		s.IncompleteData = true
		stale = &s
	}
	st.reset()
	st.openClockIn = &ev
	return stale
}

func (st *scanState) applyBreakStart(ev ClockEvent, dropped *int) {
	if st.openClockIn == nil {
		*dropped++ // どのセッションにも属せない
		return
	}
	if st.openBreak != nil {
		// break_endの無い二重break_start。前のは閉じようがないので落とす。
		*dropped++
		st.removeLastBreakEvent()
	}
	st.openBreak = &ev
	st.breakEvents = append(st.breakEvents, ev)
}

func (st *scanState) applyBreakEnd(ev ClockEvent, dropped *int) {
	if st.openClockIn == nil || st.openBreak == nil {
		*dropped++
		return
	}
	st.breakEvents = append(st.breakEvents, ev)
	st.breakMinutes += minutesBetween(st.openBreak.Timestamp, ev.Timestamp)
	st.openBreak = nil
}

func (st *scanState) applyClockOut(ev ClockEvent, dropped *int) *WorkSession {
	if st.openClockIn == nil {
		*dropped++
		return nil
	}
	if st.openBreak != nil {
		// 明示的に終わらなかった休憩はclock_out時刻で閉じたとみなす
		st.breakMinutes += minutesBetween(st.openBreak.Timestamp, ev.Timestamp)
		st.openBreak = nil
	}
	raw := minutesBetween(st.openClockIn.Timestamp, ev.Timestamp)
	s := st.buildSession(&ev, clampMinutes(raw-st.breakMinutes), StatusCompleted)
	st.reset()
	return &s
}

// finishOpen: 走査後にclock_inが開いたままなら「現在進行中」のセッションを1つ出す。
func (st *scanState) finishOpen(now time.Time) *WorkSession {
	if st.openClockIn == nil {
		return nil
	}
	status := StatusActive
	if st.openBreak != nil {
		status = StatusOnBreak
		st.breakMinutes += minutesBetween(st.openBreak.Timestamp, now)
	}
	raw := minutesBetween(st.openClockIn.Timestamp, now)
	s := st.buildSession(nil, clampMinutes(raw-st.breakMinutes), status)
	return &s
}

func (st *scanState) buildSession(clockOut *ClockEvent, worked int, status SessionStatus) WorkSession {
	return WorkSession{
		SessionID:      "session-" + st.openClockIn.EventULID,
		TechnicianULID: st.openClockIn.TechnicianULID,
		ClockIn:        *st.openClockIn,
		ClockOut:       clockOut,
		BreakEvents:    st.breakEvents,
		WorkedMinutes:  worked,
		BreakMinutes:   st.breakMinutes,
		Status:         status,
		Date:           st.openClockIn.Timestamp.In(st.loc).Format(DateLayout),
	}
}

func (st *scanState) removeLastBreakEvent() {
	if n := len(st.breakEvents); n > 0 {
		st.breakEvents = st.breakEvents[:n-1]
	}
}

// ===== duration helpers =====

// minutesBetween: 区間確定のタイミングで分単位に丸める。端数がちょうど30秒なら
// 切り捨てる。秒の端数をセッション全体で合算しない方式なので、30秒の休憩2回は
// 合計0分になる。
func minutesBetween(from, to time.Time) int {
	d := to.Sub(from)
	m := d / time.Minute
	if d-m*time.Minute > 30*time.Second {
		m++
	}
	return int(m)
}

// clampMinutes: 入力が壊れていても負の勤務時間は外に出さない。
func clampMinutes(m int) int {
	if m < 0 {
		return 0
	}
	return m
}

// ===== derived reads =====

// CurrentSession: 再構築結果から進行中セッションを取り出す（高々1つ）。
func CurrentSession(res Result) *WorkSession {
	for i := range res.Sessions {
		if res.Sessions[i].Status == StatusActive || res.Sessions[i].Status == StatusOnBreak {
			return &res.Sessions[i]
		}
	}
	return nil
}

// StateOf: 再構築結果から状態機械の現在状態を導出する。
func StateOf(res Result) ClockState {
	cur := CurrentSession(res)
	if cur == nil {
		return StateOut
	}
	if cur.Status == StatusOnBreak {
		return StateOnBreak
	}
	return StateIn
}
