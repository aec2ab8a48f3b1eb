package dispatch

import (
	"time"

	"github.com/dmitrymomot/bulkmail/internal/dispatchlog"
)

// StatusSent is the status of every completed batch, whatever its failure count.
const StatusSent = "✅ Emails sent successfully."

// Outcome is the result of one delivery attempt.
type Outcome = dispatchlog.Outcome

// Result summarizes a batch.
type Result struct {
	ID         string    `json:"id"`
	State      State     `json:"-"`
	Status     string    `json:"status"`
	LogID      string    `json:"log_id,omitempty"`
	LogURL     string    `json:"log_url,omitempty"`
	Total      int       `json:"total"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`

	Outcomes []Outcome `json:"-"`
}

// Duration returns the wall time of the batch.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
