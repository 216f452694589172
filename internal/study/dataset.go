package study

import (
	"time"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
)

// Dataset records one file registered under a role.
type Dataset struct {
	ID          string       `json:"id"`
	Role        dataset.Role `json:"role"`
	Path        string       `json:"path"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Rows        int          `json:"rows"`
	Columns     []string     `json:"columns"`
	// Problems are schema mismatches found when the file was added.
	Problems    []string     `json:"problems,omitempty"`
	AddedAt     time.Time    `json:"added_at"`
}

// RunRecord summarises one evaluation of the study.
type RunRecord struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Alpha    float64   `json:"alpha"`
	Rejected []string  `json:"rejected"`
	Failed   []string  `json:"failed,omitempty"`
}
