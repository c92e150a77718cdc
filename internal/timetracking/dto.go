package timetracking

import "time"

const (
	DateLayout = "2006-01-02"
	DefaultTZ  = "UTC"
)

type LocationDTO struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	Address   *string `json:"address,omitempty"`
}

type ClockActionRequest struct {
	TechnicianULID string       `json:"technician_id" binding:"required"`
	Type           EventType    `json:"type" binding:"required"`
	Location       *LocationDTO `json:"location,omitempty"`
	Notes          *string      `json:"notes,omitempty"`
}

type ClockEventResponse struct {
	EventULID      string       `json:"event_id"`
	TechnicianULID string       `json:"technician_id"`
	Type           EventType    `json:"type"`
	Timestamp      time.Time    `json:"timestamp"`
	Location       *LocationDTO `json:"location,omitempty"`
	Notes          *string      `json:"notes,omitempty"`
}

type StatusResponse struct {
	TechnicianULID string      `json:"technician_id"`
	State          ClockState  `json:"state"`
	LegalActions   []EventType `json:"legal_actions"`
	AsOf           time.Time   `json:"as_of"`
}

type SessionResponse struct {
	SessionID      string               `json:"session_id"`
	TechnicianULID string               `json:"technician_id"`
	ClockIn        ClockEventResponse   `json:"clock_in"`
	ClockOut       *ClockEventResponse  `json:"clock_out,omitempty"`
	BreakEvents    []ClockEventResponse `json:"break_events"`
	WorkedMinutes  int                  `json:"worked_minutes"`
	BreakMinutes   int                  `json:"break_minutes"`
	Status         SessionStatus        `json:"status"`
	Date           string               `json:"date"`
	IncompleteData bool                 `json:"incomplete_data,omitempty"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	AsOf     time.Time         `json:"as_of"`
}

type ListSessionsQuery struct {
	From   *string // YYYY-MM-DD（completedのみ対象）
	To     *string
	Status *SessionStatus
}

type StatsRequest struct {
	From string // YYYY-MM-DD
	To   string // YYYY-MM-DD
}

type StatsRow struct {
	TechnicianULID string `json:"technician_id"`
	Sessions       int    `json:"sessions"`
	WorkedMinutes  int    `json:"worked_minutes"`
	BreakMinutes   int    `json:"break_minutes"`
	DroppedEvents  int    `json:"dropped_events"`
	IncompleteData int    `json:"incomplete_data_sessions"`
}

// ===== mapping =====

func (ev ClockEvent) toDTO() ClockEventResponse {
	out := ClockEventResponse{
		EventULID:      ev.EventULID,
		TechnicianULID: ev.TechnicianULID,
		Type:           ev.Type,
		Timestamp:      ev.Timestamp,
		Notes:          ev.Notes,
	}
	if ev.Location != nil {
		out.Location = &LocationDTO{
			Latitude:  ev.Location.Latitude,
			Longitude: ev.Location.Longitude,
			Address:   ev.Location.Address,
		}
	}
	return out
}

func (ws WorkSession) toDTO() SessionResponse {
	breaks := make([]ClockEventResponse, 0, len(ws.BreakEvents))
	for i := range ws.BreakEvents {
		breaks = append(breaks, ws.BreakEvents[i].toDTO())
	}
	out := SessionResponse{
		SessionID:      ws.SessionID,
		TechnicianULID: ws.TechnicianULID,
		ClockIn:        ws.ClockIn.toDTO(),
		BreakEvents:    breaks,
		WorkedMinutes:  ws.WorkedMinutes,
		BreakMinutes:   ws.BreakMinutes,
		Status:         ws.Status,
		Date:           ws.Date,
		IncompleteData: ws.IncompleteData,
	}
	if ws.ClockOut != nil {
		dto := ws.ClockOut.toDTO()
		out.ClockOut = &dto
	}
	return out
}
