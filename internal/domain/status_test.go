package domain

import (
	"testing"
	"time"
)

func TestNormalizeStatusSynonyms(t *testing.T) {
	cases := map[string]JobStatus{
		"pending":      JobPending,
		"progress":     JobProgress,
		"in-progress":  JobProgress,
		"cancel":       JobCancel,
		"cancelled":    JobCancel,
		"complete":     JobComplete,
		"completed":    JobComplete,
		"checked_out":  JobCheckedOut,
		"checked-out":  JobCheckedOut,
		"picked-up":    JobCheckedOut,
		"  Completed ": JobComplete,
		"PENDING":      JobPending,
		"":             JobPending,
		"garbage":      JobPending,
	}
	for raw, want := range cases {
		if got := NormalizeStatus(raw); got != want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeStatusIdempotent(t *testing.T) {
	inputs := []string{"pending", "in-progress", "cancelled", "completed", "picked-up", "", "junk"}
	for _, raw := range inputs {
		once := NormalizeStatus(raw)
		twice := NormalizeStatus(string(once))
		if once != twice {
			t.Errorf("NormalizeStatus not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

func TestAppendTimeline(t *testing.T) {
	now := time.Now()
	var j Job

	j.AppendTimeline("", now)
	if len(j.Timeline) != 0 {
		t.Fatalf("empty status must be a no-op, got %d entries", len(j.Timeline))
	}

	j.AppendTimeline(JobProgress, now)
	if len(j.Timeline) != 1 || j.Timeline[0].Status != JobProgress {
		t.Fatalf("unexpected timeline: %+v", j.Timeline)
	}
}

func TestAppendStatusLog(t *testing.T) {
	now := time.Now()
	id := int64(7)
	actor := &Actor{ID: &id, Name: "Aung"}

	var j Job
	j.AppendStatusLog(actor, JobPending, JobPending, "update", now)
	if len(j.StatusLogs) != 0 {
		t.Fatalf("identical transition must be a no-op")
	}
	j.AppendStatusLog(actor, JobPending, "", "update", now)
	if len(j.StatusLogs) != 0 {
		t.Fatalf("empty target must be a no-op")
	}

	j.AppendStatusLog(actor, JobPending, JobProgress, "update", now)
	if len(j.StatusLogs) != 1 {
		t.Fatalf("expected one log entry, got %d", len(j.StatusLogs))
	}
	entry := j.StatusLogs[0]
	if entry.FromStatus != JobPending || entry.ToStatus != JobProgress {
		t.Errorf("unexpected transition %q -> %q", entry.FromStatus, entry.ToStatus)
	}
	if entry.UpdatedByName != "Aung" || entry.UpdatedBy == nil || *entry.UpdatedBy != 7 {
		t.Errorf("unexpected actor fields: %+v", entry)
	}
}

func TestActorDisplayName(t *testing.T) {
	if got := (*Actor)(nil).DisplayName(); got != "System" {
		t.Errorf("nil actor = %q, want System", got)
	}
	if got := (&Actor{Email: "owner@shop.mm"}).DisplayName(); got != "owner@shop.mm" {
		t.Errorf("email fallback = %q", got)
	}
	if got := (&Actor{Name: "Su", Email: "x@y.z"}).DisplayName(); got != "Su" {
		t.Errorf("name wins, got %q", got)
	}
}

func TestSeedCreation(t *testing.T) {
	now := time.Now()
	j := Job{Status: JobComplete, Timeline: []TimelineEntry{{Status: JobComplete, UpdatedAt: now}}}
	j.SeedCreation(nil, now)

	if j.Status != JobPending {
		t.Fatalf("creation must force pending, got %q", j.Status)
	}
	if len(j.Timeline) != 1 || j.Timeline[0].Status != JobPending {
		t.Fatalf("timeline must be reseeded with pending: %+v", j.Timeline)
	}
	if len(j.StatusLogs) != 1 || j.StatusLogs[0].ToStatus != JobPending || j.StatusLogs[0].Source != "create" {
		t.Fatalf("status log must record the create event: %+v", j.StatusLogs)
	}
	if j.StatusLogs[0].UpdatedByName != "System" {
		t.Errorf("actorless create must log System, got %q", j.StatusLogs[0].UpdatedByName)
	}
}
