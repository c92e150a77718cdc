package clients

import "time"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// ===== Requests =====

type CreateClientRequest struct {
	Name          string  `json:"name" binding:"required"`
	ContactPerson *string `json:"contact_person,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`
	Address       string  `json:"address" binding:"required"`
	ElevatorCount uint    `json:"elevator_count"`
	Notes         *string `json:"notes,omitempty"`
}

type UpdateClientRequest struct {
	Name          *string `json:"name,omitempty"`
	ContactPerson *string `json:"contact_person,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`
	Address       *string `json:"address,omitempty"`
	ElevatorCount *uint   `json:"elevator_count,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

type ListQuery struct {
	Search *string // name/address 部分一致
	Limit  int
	Offset int
}

// ===== Responses =====

type ClientResponse struct {
	ClientULID    string    `json:"client_id"`
	Name          string    `json:"name"`
	ContactPerson *string   `json:"contact_person,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Address       string    `json:"address"`
	ElevatorCount uint      `json:"elevator_count"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ClientListResponse struct {
	Clients []ClientResponse `json:"clients"`
	Total   int64            `json:"total"`
}
