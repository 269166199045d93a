package dpr

import (
	"errors"
	"fmt"
)

type EditOp string

const (
	OpSetField       EditOp = "set_field"
	OpSelectProduct  EditOp = "select_product"
	OpAddStoppage    EditOp = "add_stoppage"
	OpSetStoppage    EditOp = "set_stoppage"
	OpRemoveStoppage EditOp = "remove_stoppage"
)

var (
	ErrUnknownLine  = errors.New("unknown line")
	ErrUnknownField = errors.New("unknown field")
	ErrUnknownMould = errors.New("unknown mould")
	ErrNoChangeover = errors.New("line has no changeover run")
	ErrUnknownEdit  = errors.New("unknown edit op")
)

// Edit is one change to the form state of an open report.
type Edit struct {
	Op        EditOp  `json:"op" validate:"required,oneof=set_field select_product add_stoppage set_stoppage remove_stoppage"`
	LineID    string  `json:"line_id" validate:"required"`
	Run       RunKind `json:"run" validate:"required,oneof=current changeover"`
	Field     string  `json:"field,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Product   string  `json:"product,omitempty"`
	Index     int     `json:"index,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	StartTime string  `json:"start_time,omitempty"`
	EndTime   string  `json:"end_time,omitempty"`
	Remark    string  `json:"remark,omitempty"`
}

var inputFields = map[string]func(*ProductionRun, float64){
	"cavity":             func(r *ProductionRun, v float64) { r.Cavity = int(v) },
	"target_cycle":       func(r *ProductionRun, v float64) { r.TargetCycle = v },
	"target_run_time":    func(r *ProductionRun, v float64) { r.TargetRunTime = v },
	"part_weight":        func(r *ProductionRun, v float64) { r.PartWeight = v },
	"actual_part_weight": func(r *ProductionRun, v float64) { r.ActualPartWeight = v },
	"actual_cycle":       func(r *ProductionRun, v float64) { r.ActualCycle = v },
	"shots_start":        func(r *ProductionRun, v float64) { r.ShotsStart = int64(v) },
	"shots_end":          func(r *ProductionRun, v float64) { r.ShotsEnd = int64(v) },
	"ok_prod_qty":        func(r *ProductionRun, v float64) { r.OkProdQty = int64(v) },
	"lumps":              func(r *ProductionRun, v float64) { r.Lumps = v },
}

// Apply runs the edit against the report, evaluates the cross-run
// target run time link and rebuilds every derived value.
func (e Edit) Apply(d *DPRData, masters MasterLookup) error {
	if err := CanEdit(d); err != nil {
		return err
	}
	m, ok := d.Line(e.LineID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLine, e.LineID)
	}
	run := m.Run(e.Run)
	if run == nil {
		if e.Op == OpRemoveStoppage || e.Op == OpSetStoppage {
			return ErrNoChangeover
		}
		run = &ProductionRun{}
	}
	// A new changeover run joins the line only once the edit is accepted.
	attach := func() {
		if e.Run == RunChangeover && m.Changeover == nil {
			m.Changeover = run
		}
	}

	switch e.Op {
	case OpSetField:
		set, ok := inputFields[e.Field]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, e.Field)
		}
		attach()
		set(run, e.Value)
		if e.Field == "target_run_time" {
			Recalculate(run)
			LinkTargetRunTime(m, e.Run)
		}
	case OpSelectProduct:
		if e.Product == "" {
			attach()
			clearInputs(run)
			break
		}
		var mm MouldMaster
		ok := false
		if masters != nil {
			mm, ok = masters.LookupMould(e.Product)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownMould, e.Product)
		}
		attach()
		ApplyMaster(run, mm)
	case OpAddStoppage:
		attach()
		AddStoppage(run)
	case OpSetStoppage:
		if err := SetStoppage(run, e.Index, e.Reason, e.StartTime, e.EndTime, e.Remark); err != nil {
			return err
		}
	case OpRemoveStoppage:
		if err := RemoveStoppage(m, e.Run, e.Index); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownEdit, e.Op)
	}

	Rebuild(d)
	return nil
}
