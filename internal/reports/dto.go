package reports

import "time"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
	DateLayout       = "2006-01-02"

	StatusDraft     = "draft"
	StatusSubmitted = "submitted"

	ResultOK         = "ok"
	ResultDefect     = "defect"
	ResultNotChecked = "not_checked"
)

// 点検チェックリストの標準項目（帳票の並び順もこの順）
var ChecklistItems = []ChecklistItemDef{
	{Key: "cabin_lighting", Label: "Cabin lighting"},
	{Key: "door_mechanism", Label: "Door mechanism"},
	{Key: "emergency_alarm", Label: "Emergency alarm / intercom"},
	{Key: "traction_ropes", Label: "Traction ropes"},
	{Key: "brake_system", Label: "Brake system"},
	{Key: "leveling_accuracy", Label: "Leveling accuracy"},
	{Key: "shaft_pit", Label: "Shaft and pit condition"},
	{Key: "machine_room", Label: "Machine room"},
	{Key: "safety_circuit", Label: "Safety circuit"},
}

type ChecklistItemDef struct {
	Key   string
	Label string
}

// ===== Requests =====

type ChecklistEntry struct {
	Key    string  `json:"key" binding:"required"`
	Result string  `json:"result" binding:"required"` // ok / defect / not_checked
	Remark *string `json:"remark,omitempty"`
}

type CreateReportRequest struct {
	ClientULID     string           `json:"client_id" binding:"required"`
	TechnicianULID string           `json:"technician_id" binding:"required"`
	ElevatorID     string           `json:"elevator_id" binding:"required"` // 設置番号など
	ReportDate     string           `json:"report_date" binding:"required"` // YYYY-MM-DD
	Checklist      []ChecklistEntry `json:"checklist" binding:"required"`
	Remarks        *string          `json:"remarks,omitempty"`
}

type ListQuery struct {
	ClientULID     *string
	TechnicianULID *string
	From           *string // report_date >=
	To             *string // report_date <=
	Status         *string
	Limit          int
	Offset         int
}

// ===== Responses =====

type ChecklistEntryResponse struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Result string  `json:"result"`
	Remark *string `json:"remark,omitempty"`
}

type ReportResponse struct {
	ReportULID     string                   `json:"report_id"`
	ClientULID     string                   `json:"client_id"`
	TechnicianULID string                   `json:"technician_id"`
	ElevatorID     string                   `json:"elevator_id"`
	ReportDate     string                   `json:"report_date"`
	Checklist      []ChecklistEntryResponse `json:"checklist"`
	Remarks        *string                  `json:"remarks,omitempty"`
	Status         string                   `json:"status"`
	CreatedAt      time.Time                `json:"created_at"`
	SubmittedAt    *time.Time               `json:"submitted_at,omitempty"`
}

type ReportListResponse struct {
	Reports []ReportResponse `json:"reports"`
	Total   int64            `json:"total"`
}

func labelFor(key string) string {
	for _, def := range ChecklistItems {
		if def.Key == key {
			return def.Label
		}
	}
	return key
}

func validResult(r string) bool {
	switch r {
	case ResultOK, ResultDefect, ResultNotChecked:
		return true
	}
	return false
}
