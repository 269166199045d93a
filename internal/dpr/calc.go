package dpr

import "math"

// qualityTolerance is the allowed drift before a quality flag turns NOT OK.
const qualityTolerance = 0.5

// Recalculate derives every computed field of run from its inputs.
// Fields are derived in dependency order so later formulas see fresh
// values; calling it twice on unchanged inputs changes nothing.
func Recalculate(run *ProductionRun) {
	run.TargetQty = targetQty(run)
	run.ActualQty = actualQty(run)
	run.RunTime = runTime(run)
	run.OkProdKgs = okProdKgs(run)
	run.OkProdPercent = okProdPercent(run)
	run.RejKgs = float64(run.ActualQty-run.OkProdQty) * run.ActualPartWeight / 1000
	run.DownTime = run.TargetRunTime - run.RunTime
	run.PartWeightCheck = check(run.PartWeight, run.ActualPartWeight)
	run.CycleTimeCheck = check(run.TargetCycle, run.ActualCycle)
	refreshDurations(run.Stoppages)
	run.StoppageTime = TotalStoppage(run.Stoppages)
}

func targetQty(run *ProductionRun) int64 {
	if run.TargetCycle <= 0 || run.Cavity <= 0 {
		return 0
	}
	return int64(math.Round(run.TargetRunTime * 60 / run.TargetCycle * float64(run.Cavity)))
}

func actualQty(run *ProductionRun) int64 {
	if run.Cavity <= 0 {
		return 0
	}
	return (run.ShotsEnd - run.ShotsStart) * int64(run.Cavity)
}

func runTime(run *ProductionRun) float64 {
	if run.ActualCycle <= 0 {
		return 0
	}
	return float64(run.ShotsEnd-run.ShotsStart) * run.ActualCycle / 60
}

func okProdKgs(run *ProductionRun) float64 {
	if run.OkProdQty == 0 || run.PartWeight == 0 {
		return 0
	}
	return float64(run.OkProdQty) * run.PartWeight / 1000
}

// okProdPercent is a ratio in [0,1]; callers display it x100.
func okProdPercent(run *ProductionRun) float64 {
	if run.TargetQty <= 0 {
		return 0
	}
	return float64(run.OkProdQty) / float64(run.TargetQty)
}

func check(target, actual float64) QualityCheck {
	if target == 0 || actual == 0 {
		return CheckUnset
	}
	if math.Abs(target-actual) > qualityTolerance {
		return CheckNotOK
	}
	return CheckOK
}

// ApplyMaster copies the mould's static parameters onto run and
// recalculates it.
func ApplyMaster(run *ProductionRun, m MouldMaster) {
	run.Product = m.Name
	run.Cavity = m.Cavity
	run.TargetCycle = m.TargetCycle
	run.PartWeight = m.PartWeight
	Recalculate(run)
}

// clearInputs resets the production inputs of run, keeping stoppages
// and remarks.
func clearInputs(run *ProductionRun) {
	stoppages, remark := run.Stoppages, run.Remark
	*run = ProductionRun{Stoppages: stoppages, Remark: remark}
	Recalculate(run)
}

// LinkTargetRunTime fills the sibling run's target run time with the
// remainder of the shift after the edited run's target run time changed.
// The sibling is only filled while it is still empty; once both values
// are set the split is no longer enforced.
func LinkTargetRunTime(m *MachineData, edited RunKind) {
	if m.Changeover == nil {
		return
	}
	switch edited {
	case RunCurrent:
		if m.Changeover.TargetRunTime == 0 {
			m.Changeover.TargetRunTime = ShiftMinutes - m.Current.TargetRunTime
			Recalculate(m.Changeover)
		}
	case RunChangeover:
		if m.Current.TargetRunTime == 0 {
			m.Current.TargetRunTime = ShiftMinutes - m.Changeover.TargetRunTime
			Recalculate(&m.Current)
		}
	}
}

// HasRealChangeover reports whether the line swapped moulds: the
// changeover product differs from the current one and the changeover
// run recorded production or stoppages.
func HasRealChangeover(m MachineData) bool {
	co := m.Changeover
	if co == nil || co.Product == "" || co.Product == m.Current.Product {
		return false
	}
	return co.ShotsEnd != co.ShotsStart ||
		co.ActualQty != 0 ||
		co.OkProdQty != 0 ||
		co.Lumps != 0 ||
		TotalStoppage(co.Stoppages) != 0
}
