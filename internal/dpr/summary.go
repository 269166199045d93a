package dpr

// Summarize folds every line's current and changeover runs into shift
// totals. The OK percentage is mass based: OK kilograms over target
// kilograms, x100. It is not an average of the per-line ratios.
func Summarize(machines []MachineData) SummaryData {
	var s SummaryData
	for _, m := range machines {
		add(&s, &m.Current)
		if m.Changeover != nil {
			add(&s, m.Changeover)
		}
	}
	if s.TargetMassKgs != 0 {
		s.OkProdPercent = s.OkProdKgs / s.TargetMassKgs * 100
	}
	return s
}

func add(s *SummaryData, run *ProductionRun) {
	s.TargetQty += run.TargetQty
	s.ActualQty += run.ActualQty
	s.OkProdQty += run.OkProdQty
	s.OkProdKgs += run.OkProdKgs
	s.RejKgs += run.RejKgs
	s.Lumps += run.Lumps
	s.RunTime += run.RunTime
	s.DownTime += run.DownTime
	s.TargetMassKgs += float64(run.TargetQty) * run.PartWeight / 1000
}

// ShiftTotals extends the summary with total time (run time plus down
// time, not stoppage time), the recorded stoppage minutes and the number
// of lines that changed moulds.
func ShiftTotals(machines []MachineData) ShiftTotalData {
	t := ShiftTotalData{SummaryData: Summarize(machines)}
	t.TotalTime = t.RunTime + t.DownTime
	for _, m := range machines {
		t.StoppageTime += TotalStoppage(m.Current.Stoppages)
		if m.Changeover != nil {
			t.StoppageTime += TotalStoppage(m.Changeover.Stoppages)
		}
		if HasRealChangeover(m) {
			t.Changeovers++
		}
	}
	return t
}

// Rebuild recalculates every run of the report and both reductions.
func Rebuild(d *DPRData) {
	for i := range d.Machines {
		Recalculate(&d.Machines[i].Current)
		if co := d.Machines[i].Changeover; co != nil {
			Recalculate(co)
		}
	}
	d.Summary = Summarize(d.Machines)
	d.ShiftTotal = ShiftTotals(d.Machines)
}
