package handler

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestPeriodQueryMonthYear(t *testing.T) {
	kind, ref, err := periodQuery(httptest.NewRequest("GET", "/shop/report?period=monthly&month=5&year=2023", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != "monthly" {
		t.Fatalf("kind = %q, want monthly", kind)
	}
	if ref.Year() != 2023 || ref.Month() != time.May || ref.Day() != 1 {
		t.Fatalf("ref = %v, want 2023-05-01", ref)
	}
}

func TestPeriodQueryYearOnly(t *testing.T) {
	_, ref, err := periodQuery(httptest.NewRequest("GET", "/shop/report?period=yearly&year=2024", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Year() != 2024 || ref.Month() != time.January {
		t.Fatalf("ref = %v, want 2024-01-01", ref)
	}
}

func TestPeriodQueryMonthOnlyKeepsCurrentYear(t *testing.T) {
	_, ref, err := periodQuery(httptest.NewRequest("GET", "/shop/report?period=monthly&month=2", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Year() != time.Now().Year() || ref.Month() != time.February {
		t.Fatalf("ref = %v, want February of the current year", ref)
	}
}

func TestPeriodQueryDateWinsOverMonthYear(t *testing.T) {
	_, ref, err := periodQuery(httptest.NewRequest("GET", "/shop/report?period=daily&date=2026-03-15&month=7&year=2020", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Year() != 2026 || ref.Month() != time.March || ref.Day() != 15 {
		t.Fatalf("ref = %v, want 2026-03-15", ref)
	}
}

func TestPeriodQueryRejectsBadSelectors(t *testing.T) {
	for _, query := range []string{
		"month=0", "month=13", "month=abc", "year=abc", "year=-5", "date=15-03-2026",
	} {
		if _, _, err := periodQuery(httptest.NewRequest("GET", "/shop/report?period=monthly&"+query, nil)); err == nil {
			t.Errorf("periodQuery(%q): expected error", query)
		}
	}
}

func TestPeriodQueryDefaultsToNow(t *testing.T) {
	kind, ref, err := periodQuery(httptest.NewRequest("GET", "/shop/report", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != "" {
		t.Fatalf("kind = %q, want empty", kind)
	}
	if time.Since(ref) > time.Minute {
		t.Fatalf("ref = %v, want about now", ref)
	}
}
