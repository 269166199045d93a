package dpr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 1440

var ErrStoppageIndex = errors.New("stoppage index out of range")

// ParseClock converts "HH:MM" (or "HH:MM:SS") to minutes after midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	h, rest, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	m, _, _ := strings.Cut(rest, ":")
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	mins, err := strconv.Atoi(m)
	if err != nil || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return hours*60 + mins, nil
}

// StoppageDuration returns the minutes from start to end, wrapping past
// midnight. Equal times give 0.
func StoppageDuration(start, end string) (int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	d := e - s
	if d <= 0 {
		d += minutesPerDay
	}
	return d % minutesPerDay, nil
}

// TotalStoppage sums entries that have both endpoints. An entry missing
// one endpoint counts 0 whatever its stored duration.
func TotalStoppage(entries []StoppageEntry) int {
	total := 0
	for _, e := range entries {
		if strings.TrimSpace(e.StartTime) == "" || strings.TrimSpace(e.EndTime) == "" {
			continue
		}
		total += e.TotalTime
	}
	return total
}

// refreshDurations rederives each entry's duration from its clock
// times. Entries missing an endpoint, or with a clock that does not
// parse, keep their stored value; TotalStoppage and Validate deal with
// those.
func refreshDurations(entries []StoppageEntry) {
	for i := range entries {
		e := &entries[i]
		if strings.TrimSpace(e.StartTime) == "" || strings.TrimSpace(e.EndTime) == "" {
			continue
		}
		if d, err := StoppageDuration(e.StartTime, e.EndTime); err == nil {
			e.TotalTime = d
		}
	}
}

// AddStoppage appends an empty entry.
func AddStoppage(run *ProductionRun) {
	run.Stoppages = append(run.Stoppages, StoppageEntry{})
	run.StoppageTime = TotalStoppage(run.Stoppages)
}

// SetStoppage updates one entry. The duration is recomputed when both
// endpoints are present; otherwise the previous duration is left as is
// and simply not counted.
func SetStoppage(run *ProductionRun, idx int, reason, start, end, remark string) error {
	if idx < 0 || idx >= len(run.Stoppages) {
		return ErrStoppageIndex
	}
	e := &run.Stoppages[idx]
	e.Reason = reason
	e.StartTime = start
	e.EndTime = end
	e.Remark = remark
	if strings.TrimSpace(start) != "" && strings.TrimSpace(end) != "" {
		d, err := StoppageDuration(start, end)
		if err != nil {
			return err
		}
		e.TotalTime = d
	}
	run.StoppageTime = TotalStoppage(run.Stoppages)
	return nil
}

// RemoveStoppage deletes one entry from the given run of m. When the
// last Mold Change entry of the line goes away while a changeover
// product is selected, the changeover run's product and production
// inputs are cleared; its stoppages stay.
func RemoveStoppage(m *MachineData, kind RunKind, idx int) error {
	run := m.Run(kind)
	if run == nil || idx < 0 || idx >= len(run.Stoppages) {
		return ErrStoppageIndex
	}
	removed := run.Stoppages[idx]
	run.Stoppages = append(run.Stoppages[:idx], run.Stoppages[idx+1:]...)
	run.StoppageTime = TotalStoppage(run.Stoppages)

	if removed.Reason != ReasonMoldChange || moldChanges(m) > 0 {
		return nil
	}
	if m.Changeover != nil && m.Changeover.Product != "" {
		clearInputs(m.Changeover)
	}
	return nil
}

func moldChanges(m *MachineData) int {
	n := 0
	for _, run := range []*ProductionRun{&m.Current, m.Changeover} {
		if run == nil {
			continue
		}
		for _, e := range run.Stoppages {
			if e.Reason == ReasonMoldChange {
				n++
			}
		}
	}
	return n
}
