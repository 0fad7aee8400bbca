// SPDX-License-Identifier: MIT

// Package sched triggers merge runs on a daily cron schedule and funnels
// both scheduled and manual triggers through a bounded worker pool.
package sched

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed 5-field cron expression (minute, hour, day-of-month,
// month, day-of-week).
type Schedule struct {
	mins    map[int]bool
	hours   map[int]bool
	dom     map[int]bool
	mon     map[int]bool
	dow     map[int]bool
	domWild bool
	dowWild bool
	spec    string
}

// Parse validates and compiles a cron spec such as "0 18 * * *".
func Parse(spec string) (Schedule, error) {
	fields := strings.Fields(spec)
	if len(fields) != 5 {
		return Schedule{}, fmt.Errorf("cron requires 5 fields (M H DOM MON DOW): %s", spec)
	}

	var s Schedule
	var err error
	s.spec = spec
	if s.mins, err = parseField(fields[0], 0, 59); err != nil {
		return Schedule{}, fmt.Errorf("minute: %w", err)
	}
	if s.hours, err = parseField(fields[1], 0, 23); err != nil {
		return Schedule{}, fmt.Errorf("hour: %w", err)
	}
	if s.dom, s.domWild, err = parseFieldWild(fields[2], 1, 31); err != nil {
		return Schedule{}, fmt.Errorf("dom: %w", err)
	}
	if s.mon, err = parseField(fields[3], 1, 12); err != nil {
		return Schedule{}, fmt.Errorf("mon: %w", err)
	}
	if s.dow, s.dowWild, err = parseFieldWild(fields[4], 0, 6); err != nil {
		return Schedule{}, fmt.Errorf("dow: %w", err)
	}
	return s, nil
}

// String returns the original spec.
func (s Schedule) String() string { return s.spec }

// Next computes the first fire time strictly after now, in now's location.
func (s Schedule) Next(now time.Time) (time.Time, error) {
	t := now.Add(time.Minute).Truncate(time.Minute)
	limit := t.AddDate(1, 1, 0)
	for t.Before(limit) {
		if !s.mins[t.Minute()] {
			t = t.Add(time.Minute)
			continue
		}
		if !s.hours[t.Hour()] {
			t = t.Add(time.Hour).Truncate(time.Hour)
			continue
		}
		if !s.mon[int(t.Month())] {
			t = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
			continue
		}
		if s.dayMatches(t) {
			return t, nil
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}, fmt.Errorf("no matching time within search window for cron %q", s.spec)
}

// dayMatches implements the classic cron rule: when both day fields are
// restricted, either one matching fires the job.
func (s Schedule) dayMatches(t time.Time) bool {
	domMatch := s.dom[t.Day()]
	dowMatch := s.dow[int(t.Weekday())]
	switch {
	case s.domWild && s.dowWild:
		return true
	case s.domWild:
		return dowMatch
	case s.dowWild:
		return domMatch
	default:
		return domMatch || dowMatch
	}
}

func parseFieldWild(expr string, min, max int) (map[int]bool, bool, error) {
	if strings.TrimSpace(expr) == "*" {
		m := make(map[int]bool, max-min+1)
		for v := min; v <= max; v++ {
			m[v] = true
		}
		return m, true, nil
	}
	m, err := parseField(expr, min, max)
	return m, false, err
}

func parseField(expr string, min, max int) (map[int]bool, error) {
	m := make(map[int]bool, max-min+1)
	add := func(v int) error {
		if v < min || v > max {
			return fmt.Errorf("value %d out of range [%d,%d]", v, min, max)
		}
		m[v] = true
		return nil
	}

	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "*" {
			for v := min; v <= max; v++ {
				m[v] = true
			}
			continue
		}

		step := 1
		base := part
		if strings.Contains(part, "/") {
			ss := strings.SplitN(part, "/", 2)
			base = ss[0]
			s, err := strconv.Atoi(ss[1])
			if err != nil || s <= 0 {
				return nil, fmt.Errorf("invalid step %q", ss[1])
			}
			step = s
		}

		switch {
		case strings.Contains(base, "-"):
			rr := strings.SplitN(base, "-", 2)
			lo, err1 := strconv.Atoi(rr[0])
			hi, err2 := strconv.Atoi(rr[1])
			if err1 != nil || err2 != nil || lo > hi {
				return nil, fmt.Errorf("invalid range %q", base)
			}
			for v := lo; v <= hi; v += step {
				if err := add(v); err != nil {
					return nil, err
				}
			}
		case base == "" || base == "*":
			for v := min; v <= max; v += step {
				m[v] = true
			}
		default:
			iv, err := strconv.Atoi(base)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q", base)
			}
			if err := add(iv); err != nil {
				return nil, err
			}
		}
	}

	if len(m) == 0 {
		return nil, fmt.Errorf("empty field after parsing: %s", expr)
	}
	return m, nil
}
