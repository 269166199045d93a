package dpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleMachines() []MachineData {
	m1 := MachineData{
		LineID: "M1",
		Current: ProductionRun{
			Product: "A", TargetRunTime: 60, TargetCycle: 10, Cavity: 4, PartWeight: 10,
			ActualPartWeight: 10, ShotsEnd: 300, ActualCycle: 10, OkProdQty: 1000, Lumps: 0.5,
		},
	}
	m2 := MachineData{
		LineID: "M2",
		Current: ProductionRun{
			Product: "B", TargetRunTime: 600, TargetCycle: 20, Cavity: 2, PartWeight: 50,
			ActualPartWeight: 50, ShotsEnd: 1500, ActualCycle: 22, OkProdQty: 2900,
			Stoppages: []StoppageEntry{{Reason: ReasonMoldChange, StartTime: "18:00", EndTime: "19:00", TotalTime: 60}},
		},
		Changeover: &ProductionRun{
			Product: "C", TargetRunTime: 120, TargetCycle: 30, Cavity: 1, PartWeight: 100,
			ActualPartWeight: 100, ShotsEnd: 200, ActualCycle: 30, OkProdQty: 190, Lumps: 1,
		},
	}
	machines := []MachineData{m1, m2}
	for i := range machines {
		Recalculate(&machines[i].Current)
		if machines[i].Changeover != nil {
			Recalculate(machines[i].Changeover)
		}
	}
	return machines
}

func TestSummarize(t *testing.T) {
	machines := sampleMachines()
	s := Summarize(machines)

	// targets: 1440 + 3600 + 240
	assert.Equal(t, int64(5280), s.TargetQty)
	// actuals: 1200 + 3000 + 200
	assert.Equal(t, int64(4400), s.ActualQty)
	assert.Equal(t, int64(4090), s.OkProdQty)
	assert.InDelta(t, 10+145+19, s.OkProdKgs, 1e-9)
	assert.InDelta(t, 2+5+1, s.RejKgs, 1e-9)
	assert.InDelta(t, 1.5, s.Lumps, 1e-9)
	assert.InDelta(t, 50+550+100, s.RunTime, 1e-9)
	assert.InDelta(t, 10+50+20, s.DownTime, 1e-9)
	assert.InDelta(t, 14.4+180+24, s.TargetMassKgs, 1e-9)
}

func TestSummarize_MassBasisPercent(t *testing.T) {
	machines := sampleMachines()
	s := Summarize(machines)

	want := (10.0 + 145 + 19) / (14.4 + 180 + 24) * 100
	assert.InDelta(t, want, s.OkProdPercent, 1e-9)

	var mean float64
	n := 0
	for _, m := range machines {
		mean += m.Current.OkProdPercent
		n++
		if m.Changeover != nil {
			mean += m.Changeover.OkProdPercent
			n++
		}
	}
	mean = mean / float64(n) * 100
	assert.NotEqual(t, mean, s.OkProdPercent)
}

func TestSummarize_ZeroDenominator(t *testing.T) {
	s := Summarize([]MachineData{{Current: ProductionRun{OkProdQty: 10, PartWeight: 0}}})
	assert.Zero(t, s.OkProdPercent)
	assert.Zero(t, Summarize(nil).OkProdPercent)
}

func TestShiftTotals(t *testing.T) {
	tot := ShiftTotals(sampleMachines())
	assert.InDelta(t, tot.RunTime+tot.DownTime, tot.TotalTime, 1e-9)
	assert.InDelta(t, 780, tot.TotalTime, 1e-9)
	assert.Equal(t, 60, tot.StoppageTime)
	assert.Equal(t, 1, tot.Changeovers)
	assert.InDelta(t, 1.5, tot.Lumps, 1e-9)
}

func TestRebuild(t *testing.T) {
	d := DPRData{Machines: []MachineData{{
		LineID:  "M1",
		Current: ProductionRun{TargetRunTime: 60, TargetCycle: 10, Cavity: 4, PartWeight: 10, OkProdQty: 1440},
	}}}
	Rebuild(&d)

	assert.Equal(t, int64(1440), d.Machines[0].Current.TargetQty)
	assert.Equal(t, int64(1440), d.Summary.TargetQty)
	assert.InDelta(t, 100, d.Summary.OkProdPercent, 1e-9)
	assert.Equal(t, d.Summary, d.ShiftTotal.SummaryData)
}

func TestRebuild_RederivesStoppageDurations(t *testing.T) {
	d := DPRData{Machines: []MachineData{{
		LineID: "M1",
		Current: ProductionRun{Stoppages: []StoppageEntry{
			{Reason: "Power", StartTime: "22:00", EndTime: "02:00"},
			{Reason: "Material", StartTime: "10:00", EndTime: "10:30", TotalTime: 999},
			{Reason: "Mould", StartTime: "11:00", TotalTime: 40},
		}},
	}}}
	Rebuild(&d)

	stops := d.Machines[0].Current.Stoppages
	assert.Equal(t, 240, stops[0].TotalTime)
	assert.Equal(t, 30, stops[1].TotalTime)
	assert.Equal(t, 40, stops[2].TotalTime)
	assert.Equal(t, 270, d.Machines[0].Current.StoppageTime)
	assert.Equal(t, 270, d.ShiftTotal.StoppageTime)
}
