package domain

import (
	"time"

	"github.com/google/uuid"
)

type JobsiteStatus string

const (
	JobsiteActive    JobsiteStatus = "active"
	JobsiteDelayed   JobsiteStatus = "delayed"
	JobsiteCompleted JobsiteStatus = "completed"
)

// Jobsite is a construction site the crew is assigned to.
// Start and end dates are mutated by calendar updates; the status flips
// to delayed when a late command names the site.
type Jobsite struct {
	ID        uuid.UUID
	Name      string
	Status    JobsiteStatus
	StartDate time.Time
	EndDate   *time.Time
}
