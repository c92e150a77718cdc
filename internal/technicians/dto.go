package technicians

import "time"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// ===== Requests =====

type CreateTechnicianRequest struct {
	AccountID string  `json:"account_id" binding:"required"` // auth側のログインID
	Name      string  `json:"name" binding:"required"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
}

type UpdateTechnicianRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

type ListQuery struct {
	Search     *string // name部分一致
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ===== Responses =====

type TechnicianResponse struct {
	TechnicianULID string    `json:"technician_id"`
	AccountID      string    `json:"account_id"`
	Name           string    `json:"name"`
	Phone          *string   `json:"phone,omitempty"`
	Email          *string   `json:"email,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type TechnicianListResponse struct {
	Technicians []TechnicianResponse `json:"technicians"`
	Total       int64                `json:"total"`
}
