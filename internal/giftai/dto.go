package giftai

import (
	"io"
	"time"

	"github.com/craftloom/craftloom-backend/internal/enrich"
)

// Job lifecycle states stored alongside the record in redis.
const (
	JobStatusPending   = "pending"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// BundleInput describes a gift bundle request from a buyer.
type BundleInput struct {
	Occasion  string
	Budget    float64
	Recipient string
	Notes     string
	ImageName string
	Image     io.Reader
}

// JobDTO is the stored state of an async bundle generation job. Result is
// present only on completed jobs.
type JobDTO struct {
	JobID       string         `json:"job_id"`
	BuyerID     string         `json:"buyer_id"`
	Status      string         `json:"status"`
	Occasion    string         `json:"occasion"`
	BundleID    string         `json:"bundle_id,omitempty"`
	Result      *enrich.Result `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}
