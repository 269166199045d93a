// Package importer turns cell grids extracted from shop-floor DPR
// workbooks into shift reports. Reading the workbook file itself is the
// caller's job; this package only sees rows of cell text.
package importer

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"production_report/internal/dpr"
)

const (
	FieldLineID           = "line_id"
	FieldOperator         = "operator"
	FieldProduct          = "product"
	FieldCavity           = "cavity"
	FieldTargetCycle      = "target_cycle"
	FieldActualCycle      = "actual_cycle"
	FieldPartWeight       = "part_weight"
	FieldActualPartWeight = "actual_part_weight"
	FieldShotsStart       = "shots_start"
	FieldShotsEnd         = "shots_end"
	FieldOkProdQty        = "ok_prod_qty"
	FieldLumps            = "lumps"
	FieldTargetRunTime    = "target_run_time"
	FieldRemark           = "remark"
)

var (
	ErrNoHeader = errors.New("header row not found")
	ErrNoDate   = errors.New("report date not found")
	ErrNoShift  = errors.New("shift not found")
)

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006", "02.01.2006", "2-1-2006", "2/1/2006", "2.1.2006"}

// Result is a parsed grid. Warnings name cells that could not be read
// and were taken as zero.
type Result struct {
	Report   dpr.DPRData `json:"report"`
	Layout   string      `json:"layout"`
	Version  int         `json:"version"`
	Warnings []string    `json:"warnings"`
}

type parser struct {
	grid     [][]string
	cols     map[string]int
	warnings []string
}

// Parse reads grid with the given layout. The report is flagged as an
// imported reference and fully recalculated.
func Parse(grid [][]string, layout Layout) (*Result, error) {
	p := &parser{grid: grid}

	header := p.findHeader(layout.HeaderLabels)
	if header < 0 {
		return nil, ErrNoHeader
	}
	p.cols = resolveColumns(grid[header], layout.Columns)
	if _, ok := p.cols[FieldLineID]; !ok {
		return nil, fmt.Errorf("%w: no %s column", ErrNoHeader, FieldLineID)
	}

	above := grid[:header]
	rawDate, ok := findLabel(above, layout.DateLabels, nil)
	if !ok {
		return nil, ErrNoDate
	}
	date, err := parseDate(rawDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDate, err)
	}
	rawShift, ok := findLabel(above, layout.ShiftLabels, layout.InchargeLabels)
	if !ok {
		return nil, ErrNoShift
	}
	shift, err := parseShift(rawShift)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoShift, err)
	}
	incharge, _ := findLabel(above, layout.InchargeLabels, nil)

	report := dpr.DPRData{
		Date:          date,
		Shift:         shift,
		ShiftIncharge: incharge,
		IsReference:   true,
		Origin:        dpr.OriginImport,
		ImportBatch:   uuid.NewString(),
		Machines:      p.machines(header + 1),
	}
	dpr.Rebuild(&report)

	return &Result{Report: report, Layout: layout.Name, Version: layout.Version, Warnings: p.warnings}, nil
}

func (p *parser) findHeader(labels []string) int {
	for r, row := range p.grid {
		for _, cell := range row {
			n := norm(cell)
			for _, l := range labels {
				if n != "" && n == norm(l) {
					return r
				}
			}
		}
	}
	return -1
}

// resolveColumns maps fields to column indexes: exact alias matches
// first, then headers containing an alias, then the fixed fallback.
// A column is claimed by at most one field.
func resolveColumns(header []string, columns map[string]Column) map[string]int {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make(map[string]int)
	used := make(map[int]bool)
	match := func(fn func(h, alias string) bool) {
		for _, name := range names {
			if _, done := cols[name]; done {
				continue
			}
		search:
			for _, alias := range columns[name].Aliases {
				a := norm(alias)
				for i, cell := range header {
					if !used[i] && fn(norm(cell), a) {
						cols[name] = i
						used[i] = true
						break search
					}
				}
			}
		}
	}
	match(func(h, a string) bool { return h != "" && h == a })
	match(func(h, a string) bool { return len(a) >= 3 && strings.Contains(h, a) })

	for _, name := range names {
		if _, done := cols[name]; done {
			continue
		}
		if fb := columns[name].Fallback; fb != nil && !used[*fb] {
			cols[name] = *fb
			used[*fb] = true
		}
	}
	return cols
}

// machines reads data rows until a totals row. A row with a blank or
// repeated line id is the changeover run of the line above it.
func (p *parser) machines(from int) []dpr.MachineData {
	var out []dpr.MachineData
	for r := from; r < len(p.grid); r++ {
		row := p.grid[r]
		first := firstNonEmpty(row)
		if first == "" {
			continue
		}
		if strings.HasPrefix(norm(first), "total") {
			break
		}

		lineID := p.text(row, FieldLineID)
		run := p.run(r, row)

		if n := len(out); n > 0 && (lineID == "" || lineID == out[n-1].LineID) {
			prev := &out[n-1]
			if prev.Changeover == nil && run.Product != "" {
				prev.Changeover = &run
				dpr.LinkTargetRunTime(prev, dpr.RunCurrent)
			}
			continue
		}
		if lineID == "" {
			continue
		}
		out = append(out, dpr.MachineData{
			LineID:   lineID,
			Operator: p.text(row, FieldOperator),
			Current:  run,
		})
	}
	return out
}

func (p *parser) run(r int, row []string) dpr.ProductionRun {
	return dpr.ProductionRun{
		Product:          p.text(row, FieldProduct),
		Cavity:           int(p.num(r, row, FieldCavity)),
		TargetCycle:      p.num(r, row, FieldTargetCycle),
		ActualCycle:      p.num(r, row, FieldActualCycle),
		PartWeight:       p.num(r, row, FieldPartWeight),
		ActualPartWeight: p.num(r, row, FieldActualPartWeight),
		ShotsStart:       int64(p.num(r, row, FieldShotsStart)),
		ShotsEnd:         int64(p.num(r, row, FieldShotsEnd)),
		OkProdQty:        int64(p.num(r, row, FieldOkProdQty)),
		Lumps:            p.num(r, row, FieldLumps),
		TargetRunTime:    p.num(r, row, FieldTargetRunTime),
		Remark:           p.text(row, FieldRemark),
	}
}

func (p *parser) text(row []string, field string) string {
	i, ok := p.cols[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (p *parser) num(r int, row []string, field string) float64 {
	s := strings.ReplaceAll(p.text(row, field), ",", "")
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.warnings = append(p.warnings, fmt.Sprintf("row %d %s: %q is not a number", r+1, field, s))
		return 0
	}
	return v
}

// findLabel looks for a cell starting with one of labels and returns the
// value after it: the text after a colon in the same cell, the rest of
// the cell, or the next non-empty cell to the right. Cells matching an
// exclude label are skipped.
func findLabel(rows [][]string, labels, exclude []string) (string, bool) {
	for _, row := range rows {
	cells:
		for c, cell := range row {
			n := norm(cell)
			if n == "" {
				continue
			}
			for _, ex := range exclude {
				if strings.HasPrefix(n, norm(ex)) {
					continue cells
				}
			}
			for _, l := range labels {
				nl := norm(l)
				if !strings.HasPrefix(n, nl) {
					continue
				}
				if _, after, ok := strings.Cut(cell, ":"); ok && strings.TrimSpace(after) != "" {
					return strings.TrimSpace(after), true
				}
				if rest := strings.Fields(cell); len(rest) > len(strings.Fields(l)) {
					return strings.Join(rest[len(strings.Fields(l)):], " "), true
				}
				if v := firstNonEmpty(row[c+1:]); v != "" {
					return v, true
				}
			}
		}
	}
	return "", false
}

func parseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	// spreadsheet serial day number
	if n, err := strconv.Atoi(s); err == nil && n > 20000 && n < 80000 {
		return time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n).Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("unrecognised date %q", s)
}

func parseShift(s string) (dpr.Shift, error) {
	n := norm(s)
	switch {
	case strings.Contains(n, "night"), n == "n", n == "b", n == "ii":
		return dpr.ShiftNight, nil
	case strings.Contains(n, "day"), n == "d", n == "a", n == "i":
		return dpr.ShiftDay, nil
	}
	return "", fmt.Errorf("unrecognised shift %q", s)
}

// norm lower-cases s, drops punctuation other than '/' and collapses spaces.
func norm(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '/':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

func firstNonEmpty(cells []string) string {
	for _, c := range cells {
		if s := strings.TrimSpace(c); s != "" {
			return s
		}
	}
	return ""
}
