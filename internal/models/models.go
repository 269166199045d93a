package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type ShiftHours struct {
	ID        int    `json:"id"`
	Name      string `json:"name" validate:"required,oneof=DAY NIGHT"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// StoppageReason is one entry of the stoppage reason list offered on
// the report form.
type StoppageReason struct {
	ID     int    `json:"id"`
	Reason string `json:"reason" validate:"required"`
}

// Mould is the master record used to fill a run's static parameters.
type Mould struct {
	ID          int       `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Cavity      int       `json:"cavity" validate:"gte=0"`
	TargetCycle float64   `json:"target_cycle" validate:"gte=0"`
	PartWeight  float64   `json:"part_weight" validate:"gte=0"`
	Machine     string    `json:"machine,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
