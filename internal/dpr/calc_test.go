package dpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecalculate_TargetQty(t *testing.T) {
	run := ProductionRun{TargetRunTime: 60, TargetCycle: 10, Cavity: 4}
	Recalculate(&run)
	assert.Equal(t, int64(1440), run.TargetQty)

	t.Run("zero cycle", func(t *testing.T) {
		run := ProductionRun{TargetRunTime: 60, TargetCycle: 0, Cavity: 4}
		Recalculate(&run)
		assert.Zero(t, run.TargetQty)
	})

	t.Run("negative cavity", func(t *testing.T) {
		run := ProductionRun{TargetRunTime: 60, TargetCycle: 10, Cavity: -1}
		Recalculate(&run)
		assert.Zero(t, run.TargetQty)
	})

	t.Run("rounds", func(t *testing.T) {
		run := ProductionRun{TargetRunTime: 1, TargetCycle: 7, Cavity: 1}
		Recalculate(&run)
		assert.Equal(t, int64(9), run.TargetQty) // 8.57
	})
}

func TestRecalculate_ActualQtyAndRunTime(t *testing.T) {
	run := ProductionRun{ShotsStart: 100, ShotsEnd: 150, Cavity: 4, ActualCycle: 12}
	Recalculate(&run)
	assert.Equal(t, int64(200), run.ActualQty)
	assert.Equal(t, 10.0, run.RunTime)

	t.Run("missing start counts from zero", func(t *testing.T) {
		run := ProductionRun{ShotsEnd: 30, Cavity: 2, ActualCycle: 20}
		Recalculate(&run)
		assert.Equal(t, int64(60), run.ActualQty)
		assert.Equal(t, 10.0, run.RunTime)
	})

	t.Run("no actual cycle", func(t *testing.T) {
		run := ProductionRun{ShotsStart: 100, ShotsEnd: 150, Cavity: 4}
		Recalculate(&run)
		assert.Equal(t, int64(200), run.ActualQty)
		assert.Zero(t, run.RunTime)
	})
}

func TestRecalculate_MassAndPercent(t *testing.T) {
	run := ProductionRun{
		TargetRunTime:    60,
		TargetCycle:      10,
		Cavity:           4,
		PartWeight:       25,
		ActualPartWeight: 24,
		ShotsStart:       0,
		ShotsEnd:         300,
		ActualCycle:      12,
		OkProdQty:        1080,
	}
	Recalculate(&run)

	assert.Equal(t, int64(1440), run.TargetQty)
	assert.Equal(t, int64(1200), run.ActualQty)
	assert.Equal(t, 60.0, run.RunTime)
	assert.InDelta(t, 27.0, run.OkProdKgs, 1e-9)
	assert.InDelta(t, 0.75, run.OkProdPercent, 1e-9)
	assert.InDelta(t, 2.88, run.RejKgs, 1e-9)
	assert.Zero(t, run.DownTime)
}

func TestRecalculate_Unclamped(t *testing.T) {
	run := ProductionRun{
		TargetRunTime:    30,
		ShotsEnd:         200,
		Cavity:           1,
		ActualCycle:      12,
		ActualPartWeight: 10,
		OkProdQty:        250,
	}
	Recalculate(&run)

	assert.Equal(t, 40.0, run.RunTime)
	assert.Equal(t, -10.0, run.DownTime)
	assert.Equal(t, run.TargetRunTime-run.RunTime, run.DownTime)
	assert.InDelta(t, -0.5, run.RejKgs, 1e-9)
}

func TestRecalculate_QualityChecks(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		actual float64
		want   QualityCheck
	}{
		{"over tolerance", 10.0, 10.6, CheckNotOK},
		{"within tolerance", 10.0, 10.4, CheckOK},
		{"on tolerance", 10.0, 10.5, CheckOK},
		{"below", 10.0, 9.2, CheckNotOK},
		{"target unset", 0, 10.4, CheckUnset},
		{"actual unset", 10.0, 0, CheckUnset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := ProductionRun{
				PartWeight: tt.target, ActualPartWeight: tt.actual,
				TargetCycle: tt.target, ActualCycle: tt.actual,
			}
			Recalculate(&run)
			assert.Equal(t, tt.want, run.PartWeightCheck)
			assert.Equal(t, tt.want, run.CycleTimeCheck)
		})
	}
}

func TestRecalculate_Idempotent(t *testing.T) {
	run := ProductionRun{
		TargetRunTime: 480, TargetCycle: 18.5, Cavity: 8, PartWeight: 12.3,
		ActualPartWeight: 12.9, ActualCycle: 19.1, ShotsStart: 5120, ShotsEnd: 6400,
		OkProdQty: 9800, Lumps: 1.2,
		Stoppages: []StoppageEntry{{Reason: "Power", StartTime: "10:00", EndTime: "10:30", TotalTime: 30}},
	}
	Recalculate(&run)
	first := run
	first.Stoppages = append([]StoppageEntry(nil), run.Stoppages...)
	Recalculate(&run)
	assert.Equal(t, first, run)
}

func TestApplyMaster(t *testing.T) {
	run := ProductionRun{TargetRunTime: 60}
	ApplyMaster(&run, MouldMaster{Name: "CAP-28MM", Cavity: 4, TargetCycle: 10, PartWeight: 2.5})

	assert.Equal(t, "CAP-28MM", run.Product)
	assert.Equal(t, 4, run.Cavity)
	assert.Equal(t, int64(1440), run.TargetQty)
}

func TestLinkTargetRunTime(t *testing.T) {
	t.Run("fills empty changeover", func(t *testing.T) {
		m := MachineData{Current: ProductionRun{TargetRunTime: 500}, Changeover: &ProductionRun{}}
		LinkTargetRunTime(&m, RunCurrent)
		assert.Equal(t, 220.0, m.Changeover.TargetRunTime)
	})

	t.Run("fills empty current", func(t *testing.T) {
		m := MachineData{Changeover: &ProductionRun{TargetRunTime: 120}}
		LinkTargetRunTime(&m, RunChangeover)
		assert.Equal(t, 600.0, m.Current.TargetRunTime)
	})

	t.Run("leaves manual value", func(t *testing.T) {
		m := MachineData{Current: ProductionRun{TargetRunTime: 500}, Changeover: &ProductionRun{TargetRunTime: 100}}
		LinkTargetRunTime(&m, RunCurrent)
		assert.Equal(t, 100.0, m.Changeover.TargetRunTime)
	})

	t.Run("no changeover run", func(t *testing.T) {
		m := MachineData{Current: ProductionRun{TargetRunTime: 500}}
		LinkTargetRunTime(&m, RunCurrent)
		assert.Nil(t, m.Changeover)
	})
}

func TestHasRealChangeover(t *testing.T) {
	cur := ProductionRun{Product: "A"}
	assert.False(t, HasRealChangeover(MachineData{Current: cur}))
	assert.False(t, HasRealChangeover(MachineData{Current: cur, Changeover: &ProductionRun{Product: "A", ShotsEnd: 10}}))
	assert.False(t, HasRealChangeover(MachineData{Current: cur, Changeover: &ProductionRun{Product: "B"}}))
	assert.True(t, HasRealChangeover(MachineData{Current: cur, Changeover: &ProductionRun{Product: "B", ShotsEnd: 10}}))
	assert.True(t, HasRealChangeover(MachineData{Current: cur, Changeover: &ProductionRun{
		Product:   "B",
		Stoppages: []StoppageEntry{{StartTime: "01:00", EndTime: "01:20", TotalTime: 20}},
	}}))
}
