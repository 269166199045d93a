package dpr

import (
	"fmt"
	"math"
)

const (
	partWeightLimit = 3.0 // grams
	cycleTimeLimit  = 2.0 // seconds
)

// FieldError is a save-blocking problem with one input field.
type FieldError struct {
	LineID  string  `json:"line_id"`
	Run     RunKind `json:"run"`
	Field   string  `json:"field"`
	Message string  `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s/%s %s: %s", e.LineID, e.Run, e.Field, e.Message)
}

// Validate returns every field error of the report. Values are reported,
// never corrected.
func Validate(d *DPRData) []FieldError {
	var errs []FieldError
	for _, m := range d.Machines {
		errs = append(errs, validateRun(m.LineID, RunCurrent, &m.Current)...)
		if m.Changeover == nil {
			continue
		}
		errs = append(errs, validateRun(m.LineID, RunChangeover, m.Changeover)...)
		if sum := m.Current.TargetRunTime + m.Changeover.TargetRunTime; sum > ShiftMinutes {
			errs = append(errs, FieldError{
				LineID:  m.LineID,
				Run:     RunChangeover,
				Field:   "target_run_time",
				Message: fmt.Sprintf("current and changeover target run time total %.0f min, more than %d", sum, ShiftMinutes),
			})
		}
	}
	return errs
}

func validateRun(lineID string, kind RunKind, run *ProductionRun) []FieldError {
	var errs []FieldError
	fe := func(field, format string, args ...any) {
		errs = append(errs, FieldError{LineID: lineID, Run: kind, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if run.PartWeight != 0 && run.ActualPartWeight != 0 &&
		math.Abs(run.ActualPartWeight-run.PartWeight) > partWeightLimit {
		fe("actual_part_weight", "actual part weight %.2f g is more than %.0f g from target %.2f g",
			run.ActualPartWeight, partWeightLimit, run.PartWeight)
	}
	if run.TargetCycle != 0 && run.ActualCycle != 0 &&
		math.Abs(run.ActualCycle-run.TargetCycle) > cycleTimeLimit {
		fe("actual_cycle", "actual cycle %.2f s is more than %.0f s from target %.2f s",
			run.ActualCycle, cycleTimeLimit, run.TargetCycle)
	}
	if run.TargetRunTime < 0 || run.TargetRunTime > ShiftMinutes {
		fe("target_run_time", "target run time %.0f min outside 0-%d", run.TargetRunTime, ShiftMinutes)
	}
	for i, e := range run.Stoppages {
		if e.StartTime != "" {
			if _, err := ParseClock(e.StartTime); err != nil {
				fe(fmt.Sprintf("stoppages[%d].start_time", i), "%v", err)
			}
		}
		if e.EndTime != "" {
			if _, err := ParseClock(e.EndTime); err != nil {
				fe(fmt.Sprintf("stoppages[%d].end_time", i), "%v", err)
			}
		}
	}
	return errs
}
