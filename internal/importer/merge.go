package importer

import "production_report/internal/dpr"

// Merge reconciles an imported report with the reference report already
// stored for the same date and shift. Lines are matched by id; imported
// production inputs replace the stored ones, while stored stoppages and
// remarks survive when the import has none. New lines are appended.
func Merge(existing, imported dpr.DPRData) dpr.DPRData {
	out := existing
	out.Machines = make([]dpr.MachineData, 0, len(existing.Machines)+len(imported.Machines))
	for _, m := range existing.Machines {
		out.Machines = append(out.Machines, cloneMachine(m))
	}
	if imported.ShiftIncharge != "" {
		out.ShiftIncharge = imported.ShiftIncharge
	}

	for _, im := range imported.Machines {
		m, ok := out.Line(im.LineID)
		if !ok {
			out.Machines = append(out.Machines, cloneMachine(im))
			continue
		}
		if im.Operator != "" {
			m.Operator = im.Operator
		}
		mergeRun(&m.Current, im.Current)
		if im.Changeover == nil {
			continue
		}
		if m.Changeover == nil {
			co := *im.Changeover
			m.Changeover = &co
			continue
		}
		mergeRun(m.Changeover, *im.Changeover)
	}

	out.IsReference = true
	out.Origin = dpr.OriginImport
	out.ImportBatch = imported.ImportBatch
	dpr.Rebuild(&out)
	return out
}

func mergeRun(dst *dpr.ProductionRun, src dpr.ProductionRun) {
	stoppages, remark, mouldChange := dst.Stoppages, dst.Remark, dst.MouldChange
	*dst = src
	if len(src.Stoppages) == 0 {
		dst.Stoppages = stoppages
	}
	if src.Remark == "" {
		dst.Remark = remark
	}
	if src.MouldChange == "" {
		dst.MouldChange = mouldChange
	}
}

func cloneMachine(m dpr.MachineData) dpr.MachineData {
	m.Current.Stoppages = append([]dpr.StoppageEntry(nil), m.Current.Stoppages...)
	if m.Changeover != nil {
		co := *m.Changeover
		co.Stoppages = append([]dpr.StoppageEntry(nil), co.Stoppages...)
		m.Changeover = &co
	}
	return m
}
