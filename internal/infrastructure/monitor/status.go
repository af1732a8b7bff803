package monitor

import "time"

// Status is the last observed health of the client's dependencies.
type Status struct {
	API       bool      `json:"api"`
	APIAddr   string    `json:"api_addr"`
	Store     bool      `json:"store"`
	Breaker   string    `json:"breaker"`
	LastCheck time.Time `json:"last_check"`
}
