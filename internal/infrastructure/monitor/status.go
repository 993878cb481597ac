package monitor

import "time"

type Status struct {
	PostgreSQL   bool      `json:"postgresql"`
	Redis        bool      `json:"redis"`
	PendingViews bool      `json:"pending_views"`
	PendingSize  int       `json:"pending_size"`
	LastCheck    time.Time `json:"last_check"`
}
