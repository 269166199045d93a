package dpr

import "time"

// ShiftMinutes is the planned length of one shift.
const ShiftMinutes = 720

type Shift string

const (
	ShiftDay   Shift = "DAY"
	ShiftNight Shift = "NIGHT"
)

func (s Shift) Valid() bool {
	return s == ShiftDay || s == ShiftNight
}

type QualityCheck string

const (
	CheckUnset QualityCheck = ""
	CheckOK    QualityCheck = "OK"
	CheckNotOK QualityCheck = "NOT OK"
)

type PostingStatus string

const (
	StatusDraft  PostingStatus = ""
	StatusPosted PostingStatus = "POSTED"
)

type Origin string

const (
	OriginManual Origin = "manual"
	OriginImport Origin = "import"
)

// RunKind selects one of the two runs of a line.
type RunKind string

const (
	RunCurrent    RunKind = "current"
	RunChangeover RunKind = "changeover"
)

// ReasonMoldChange marks a stoppage as a mould swap.
const ReasonMoldChange = "Mold Change"

type StoppageEntry struct {
	Reason    string `json:"reason"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	TotalTime int    `json:"total_time"`
	Remark    string `json:"remark,omitempty"`
}

// ProductionRun is one line's output for one mould within a shift.
// Inputs come from the operator, the mould master or an import; the
// remaining fields are derived by Recalculate.
type ProductionRun struct {
	Product          string  `json:"product"`
	Cavity           int     `json:"cavity"`
	TargetCycle      float64 `json:"target_cycle"`
	TargetRunTime    float64 `json:"target_run_time"`
	PartWeight       float64 `json:"part_weight"`
	ActualPartWeight float64 `json:"actual_part_weight"`
	ActualCycle      float64 `json:"actual_cycle"`
	ShotsStart       int64   `json:"shots_start"`
	ShotsEnd         int64   `json:"shots_end"`
	OkProdQty        int64   `json:"ok_prod_qty"`
	Lumps            float64 `json:"lumps"`

	TargetQty     int64   `json:"target_qty"`
	ActualQty     int64   `json:"actual_qty"`
	OkProdKgs     float64 `json:"ok_prod_kgs"`
	OkProdPercent float64 `json:"ok_prod_percent"`
	RejKgs        float64 `json:"rej_kgs"`
	RunTime       float64 `json:"run_time"`
	DownTime      float64 `json:"down_time"`
	StoppageTime  int     `json:"stoppage_time"`

	Stoppages       []StoppageEntry `json:"stoppages"`
	MouldChange     string          `json:"mould_change,omitempty"`
	Remark          string          `json:"remark,omitempty"`
	PartWeightCheck QualityCheck    `json:"part_weight_check"`
	CycleTimeCheck  QualityCheck    `json:"cycle_time_check"`
}

// MachineData is one production line for a shift.
type MachineData struct {
	LineID     string         `json:"line_id"`
	Operator   string         `json:"operator"`
	Current    ProductionRun  `json:"current"`
	Changeover *ProductionRun `json:"changeover,omitempty"`
}

// Run returns the run of the given kind, nil when the line has no
// changeover run.
func (m *MachineData) Run(kind RunKind) *ProductionRun {
	if kind == RunChangeover {
		return m.Changeover
	}
	return &m.Current
}

type SummaryData struct {
	TargetQty     int64   `json:"target_qty"`
	ActualQty     int64   `json:"actual_qty"`
	OkProdQty     int64   `json:"ok_prod_qty"`
	OkProdKgs     float64 `json:"ok_prod_kgs"`
	RejKgs        float64 `json:"rej_kgs"`
	Lumps         float64 `json:"lumps"`
	RunTime       float64 `json:"run_time"`
	DownTime      float64 `json:"down_time"`
	TargetMassKgs float64 `json:"target_mass_kgs"`
	OkProdPercent float64 `json:"ok_prod_percent"`
}

type ShiftTotalData struct {
	SummaryData
	TotalTime    float64 `json:"total_time"`
	StoppageTime int     `json:"stoppage_time"`
	Changeovers  int     `json:"changeovers"`
}

// DPRData is one shift report.
type DPRData struct {
	ID            int64          `json:"id"`
	Date          string         `json:"date"`
	Shift         Shift          `json:"shift"`
	ShiftIncharge string         `json:"shift_incharge"`
	Machines      []MachineData  `json:"machines"`
	Summary       SummaryData    `json:"summary"`
	ShiftTotal    ShiftTotalData `json:"shift_total"`
	PostingStatus PostingStatus  `json:"posting_status"`
	PostedBy      string         `json:"posted_by,omitempty"`
	PostedAt      *time.Time     `json:"posted_at,omitempty"`
	IsReference   bool           `json:"is_reference"`
	Origin        Origin         `json:"origin"`
	ImportBatch   string         `json:"import_batch,omitempty"`
	CreatedBy     int            `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Line returns the line with the given id.
func (d *DPRData) Line(lineID string) (*MachineData, bool) {
	for i := range d.Machines {
		if d.Machines[i].LineID == lineID {
			return &d.Machines[i], true
		}
	}
	return nil, false
}

// MouldMaster holds the physical parameters of a mould.
type MouldMaster struct {
	Name        string  `json:"name"`
	Cavity      int     `json:"cavity"`
	TargetCycle float64 `json:"target_cycle"`
	PartWeight  float64 `json:"part_weight"`
}

// MasterLookup resolves a product/mould name.
type MasterLookup interface {
	LookupMould(name string) (MouldMaster, bool)
}

// MasterMap is an in-memory MasterLookup.
type MasterMap map[string]MouldMaster

func (m MasterMap) LookupMould(name string) (MouldMaster, bool) {
	mm, ok := m[name]
	return mm, ok
}
