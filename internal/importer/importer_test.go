package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"production_report/internal/dpr"
)

func standardV2Grid() [][]string {
	return [][]string{
		{"ABC Plastics - Daily Production Report"},
		{"Date: 14-10-2026", "", "Shift", "NIGHT", "", "Shift Incharge: Ravi Kumar"},
		{},
		{"M/C No.", "Operator", "Mould", "Cavity", "Std Cycle", "Act Cycle", "Std Wt", "Act Wt",
			"Shot Start", "Shot End", "OK Qty", "Lumps", "Target Run Time", "Remarks"},
		{"M1", "Anil", "CAP-28MM", "4", "10", "10.2", "2.5", "2.6", "1,000", "1,300", "1150", "0.4", "60", ""},
		{"", "", "JAR-1L", "1", "30", "31", "95", "96", "0", "100", "95", "0", "", "changeover at 4am"},
		{"M2", "Bala", "LID-90", "2", "20", "20", "12", "12", "500", "x12", "800", "", "600", ""},
		{"Total", "", "", "", "", "", "", "", "", "", "2045"},
		{"M9", "ghost", "CAP-28MM", "4"},
	}
}

func TestLayouts(t *testing.T) {
	ls := DefaultLayouts()

	l, ok := ls.Find("dpr-standard", 0)
	require.True(t, ok)
	assert.Equal(t, 2, l.Version)
	assert.Contains(t, l.Columns, FieldLumps)

	l, ok = ls.Find("dpr-standard", 1)
	require.True(t, ok)
	assert.NotContains(t, l.Columns, FieldLumps)

	_, ok = ls.Find("dpr-standard", 7)
	assert.False(t, ok)
	_, ok = ls.Find("other", 0)
	assert.False(t, ok)
}

func TestLoadLayouts_Invalid(t *testing.T) {
	_, err := LoadLayouts(strings.NewReader("layouts:\n  - name: x\n    version: 0\n"))
	assert.Error(t, err)

	_, err = LoadLayouts(strings.NewReader("layouts:\n  - name: x\n    version: 1\n    columns:\n      product: {fallback: 1}\n"))
	assert.Error(t, err)
}

func TestParse_StandardV2(t *testing.T) {
	layout, _ := DefaultLayouts().Find("dpr-standard", 2)
	res, err := Parse(standardV2Grid(), layout)
	require.NoError(t, err)

	r := res.Report
	assert.Equal(t, "2026-10-14", r.Date)
	assert.Equal(t, dpr.ShiftNight, r.Shift)
	assert.Equal(t, "Ravi Kumar", r.ShiftIncharge)
	assert.True(t, r.IsReference)
	assert.Equal(t, dpr.OriginImport, r.Origin)
	assert.NotEmpty(t, r.ImportBatch)
	require.Len(t, r.Machines, 2)

	m1 := r.Machines[0]
	assert.Equal(t, "M1", m1.LineID)
	assert.Equal(t, "Anil", m1.Operator)
	assert.Equal(t, int64(1440), m1.Current.TargetQty)
	assert.Equal(t, int64(1200), m1.Current.ActualQty)
	assert.Equal(t, 0.4, m1.Current.Lumps)

	require.NotNil(t, m1.Changeover)
	assert.Equal(t, "JAR-1L", m1.Changeover.Product)
	assert.Equal(t, 660.0, m1.Changeover.TargetRunTime)
	assert.Equal(t, int64(1320), m1.Changeover.TargetQty)
	assert.Equal(t, "changeover at 4am", m1.Changeover.Remark)
	assert.True(t, dpr.HasRealChangeover(m1))

	assert.Equal(t, "M2", r.Machines[1].LineID)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "shots_end")

	assert.Equal(t, int64(1150+95+800), r.Summary.OkProdQty)
}

func TestParse_StandardV1Fallbacks(t *testing.T) {
	grid := [][]string{
		{"Date", "14/10/2026"},
		{"Shift: A"},
		{"Machine", "Operator", "Product", "Cav.", "Target Cycle", "Actual Cycle", "Part Weight", "Actual Weight",
			"Opening Shots", "Closing Shots", "OK Production", "Planned Mins", "Remark"},
		{"M5", "Chandru", "CAP-28MM", "4", "10", "10", "2.5", "2.5", "0", "300", "1100", "60", "ok"},
	}
	layout, _ := DefaultLayouts().Find("dpr-standard", 1)
	res, err := Parse(grid, layout)
	require.NoError(t, err)

	assert.Equal(t, "2026-10-14", res.Report.Date)
	assert.Equal(t, dpr.ShiftDay, res.Report.Shift)
	require.Len(t, res.Report.Machines, 1)
	run := res.Report.Machines[0].Current
	assert.Equal(t, 4, run.Cavity)
	assert.Equal(t, 60.0, run.TargetRunTime)
	assert.Equal(t, int64(1440), run.TargetQty)
	assert.Equal(t, "ok", run.Remark)
	assert.Empty(t, res.Warnings)
}

func TestParse_Errors(t *testing.T) {
	layout, _ := DefaultLayouts().Find("dpr-standard", 0)

	_, err := Parse([][]string{{"nothing here"}}, layout)
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = Parse([][]string{{"Shift: DAY"}, {"M/C No"}}, layout)
	assert.ErrorIs(t, err, ErrNoDate)

	_, err = Parse([][]string{{"Date: 2026-10-14"}, {"M/C No"}}, layout)
	assert.ErrorIs(t, err, ErrNoShift)

	_, err = Parse([][]string{{"Date: someday"}, {"Shift: DAY"}, {"M/C No"}}, layout)
	assert.ErrorIs(t, err, ErrNoDate)
}

func TestParseDate(t *testing.T) {
	for in, want := range map[string]string{
		"2026-10-14": "2026-10-14",
		"14-10-2026": "2026-10-14",
		"14.10.2026": "2026-10-14",
		"4/1/2026":   "2026-01-04",
		"46309":      "2026-10-14",
	} {
		got, err := parseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestMerge(t *testing.T) {
	existing := dpr.DPRData{
		ID:    11,
		Date:  "2026-10-14",
		Shift: dpr.ShiftNight,
		Machines: []dpr.MachineData{
			{
				LineID: "M1",
				Current: dpr.ProductionRun{
					Product: "CAP-28MM", Cavity: 4, TargetCycle: 10, TargetRunTime: 60, ShotsEnd: 100,
					Remark:    "hot runner zone 3 alarm",
					Stoppages: []dpr.StoppageEntry{{Reason: "Power", StartTime: "23:00", EndTime: "23:30", TotalTime: 30}},
				},
			},
			{LineID: "M3", Current: dpr.ProductionRun{Product: "LID-90"}},
		},
		IsReference: true,
		Origin:      dpr.OriginImport,
	}
	imported := dpr.DPRData{
		ShiftIncharge: "Ravi Kumar",
		ImportBatch:   "batch-2",
		Machines: []dpr.MachineData{
			{LineID: "M1", Current: dpr.ProductionRun{Product: "CAP-28MM", Cavity: 4, TargetCycle: 10, TargetRunTime: 60, ShotsEnd: 300}},
			{LineID: "M2", Current: dpr.ProductionRun{Product: "JAR-1L"}},
		},
	}

	out := Merge(existing, imported)

	assert.Equal(t, int64(11), out.ID)
	assert.Equal(t, "batch-2", out.ImportBatch)
	assert.Equal(t, "Ravi Kumar", out.ShiftIncharge)
	require.Len(t, out.Machines, 3)
	m1 := out.Machines[0]
	assert.Equal(t, int64(1200), m1.Current.ActualQty)
	assert.Equal(t, "hot runner zone 3 alarm", m1.Current.Remark)
	assert.Equal(t, 30, m1.Current.StoppageTime)
	assert.Equal(t, "M3", out.Machines[1].LineID)
	assert.Equal(t, "M2", out.Machines[2].LineID)
	assert.Equal(t, int64(1440), out.Summary.TargetQty)

	// the stored report is not modified
	assert.Equal(t, int64(100), existing.Machines[0].Current.ShotsEnd)
}
