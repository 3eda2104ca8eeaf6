package domain

import (
	"strings"
	"time"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProgress   JobStatus = "progress"
	JobCancel     JobStatus = "cancel"
	JobComplete   JobStatus = "complete"
	JobCheckedOut JobStatus = "checked_out"
)

// JobStatuses lists the five canonical states.
var JobStatuses = []JobStatus{JobPending, JobProgress, JobCancel, JobComplete, JobCheckedOut}

// IsValidJobStatus reports whether s is one of the canonical values.
// Explicit API input is validated with this; stored legacy values go
// through NormalizeStatus instead.
func IsValidJobStatus(s JobStatus) bool {
	for _, v := range JobStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// NormalizeStatus maps arbitrary or legacy status strings onto the
// canonical enum. Unknown and empty input falls open to pending, which is
// the safe initial state; this is deliberate and not an error path.
func NormalizeStatus(raw string) JobStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return JobPending
	case "progress", "in-progress":
		return JobProgress
	case "cancel", "cancelled":
		return JobCancel
	case "complete", "completed":
		return JobComplete
	case "checked_out", "checked-out", "picked-up":
		return JobCheckedOut
	default:
		return JobPending
	}
}

// Actor identifies who performed a status transition.
type Actor struct {
	ID    *int64
	Name  string
	Email string
}

// DisplayName resolves the audit-log name: name, else email, else "System".
func (a *Actor) DisplayName() string {
	if a == nil {
		return "System"
	}
	if a.Name != "" {
		return a.Name
	}
	if a.Email != "" {
		return a.Email
	}
	return "System"
}

// AppendTimeline records a status on the job's timeline. Empty status is a
// no-op.
func (j *Job) AppendTimeline(status JobStatus, now time.Time) {
	if status == "" {
		return
	}
	j.Timeline = append(j.Timeline, TimelineEntry{Status: status, UpdatedAt: now})
}

// AppendStatusLog records a full audit entry for a transition. Empty target
// and repeated identical transitions are no-ops, so retries produce no
// audit noise.
func (j *Job) AppendStatusLog(actor *Actor, from, to JobStatus, source string, now time.Time) {
	if to == "" || from == to {
		return
	}
	entry := StatusLogEntry{
		FromStatus:    from,
		ToStatus:      to,
		UpdatedAt:     now,
		UpdatedByName: actor.DisplayName(),
		Source:        source,
	}
	if actor != nil {
		entry.UpdatedBy = actor.ID
	}
	j.StatusLogs = append(j.StatusLogs, entry)
}

// SeedCreation forces a new job into the pending state with a seeded
// timeline and audit log, regardless of any caller-supplied status.
func (j *Job) SeedCreation(actor *Actor, now time.Time) {
	j.Status = JobPending
	j.Timeline = []TimelineEntry{{Status: JobPending, UpdatedAt: now}}
	j.StatusLogs = nil
	j.AppendStatusLog(actor, "", JobPending, "create", now)
}
