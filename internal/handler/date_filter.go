package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// periodQuery reads the report window selectors: period kind plus an
// optional reference point, given either as a full date or as
// month/year numbers. Missing selectors mean "now".
func periodQuery(r *http.Request) (kind string, ref time.Time, err error) {
	kind = r.URL.Query().Get("period")
	ref = time.Now()
	if at, perr := parseDateQuery(r, "date"); perr != nil {
		return kind, ref, perr
	} else if at != nil {
		return kind, *at, nil
	}

	monthRaw := r.URL.Query().Get("month")
	yearRaw := r.URL.Query().Get("year")
	if monthRaw == "" && yearRaw == "" {
		return kind, ref, nil
	}

	year, month := ref.Year(), int(ref.Month())
	if yearRaw != "" {
		year, err = strconv.Atoi(yearRaw)
		if err != nil || year < 1 {
			return kind, ref, fmt.Errorf("invalid year %q", yearRaw)
		}
	}
	if monthRaw != "" {
		month, err = strconv.Atoi(monthRaw)
		if err != nil || month < 1 || month > 12 {
			return kind, ref, fmt.Errorf("invalid month %q", monthRaw)
		}
	} else {
		// year alone selects the whole year
		month = 1
	}
	return kind, time.Date(year, time.Month(month), 1, 0, 0, 0, 0, ref.Location()), nil
}

func intQuery(r *http.Request, key, fallback string) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		value = fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func pageQuery(r *http.Request) (page, limit int) {
	return intQuery(r, "page", "1"), intQuery(r, "limit", "20")
}
