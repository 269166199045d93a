package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"production_report/internal/dpr"
	"production_report/internal/importer"
	"production_report/internal/models"
	"production_report/internal/store"
)

// Report handlers
func (a *app) getReportsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ReportFilter{
		Date:  q.Get("date"),
		Shift: dpr.Shift(strings.ToUpper(q.Get("shift"))),
	}
	if v := q.Get("reference"); v != "" {
		ref, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "Invalid reference filter", http.StatusBadRequest)
			return
		}
		filter.Reference = &ref
	}

	reports, err := a.reports.ListReports(r.Context(), filter)
	if err != nil {
		a.fail(w, r, err, "Error listing reports")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (a *app) getReportHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	d, err := a.reports.GetReport(r.Context(), int64(id))
	if err != nil {
		a.fail(w, r, err, "Error loading report")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// checkReport rebuilds d and writes a 422 with every field error when the
// report may not be saved.
func (a *app) checkReport(w http.ResponseWriter, d *dpr.DPRData) bool {
	var errs []dpr.FieldError
	if err := a.validate.Var(d.Date, "required,datetime=2006-01-02"); err != nil {
		errs = append(errs, dpr.FieldError{Field: "date", Message: "must be a date in YYYY-MM-DD form"})
	}
	if !d.Shift.Valid() {
		errs = append(errs, dpr.FieldError{Field: "shift", Message: "must be DAY or NIGHT"})
	}
	dpr.Rebuild(d)
	errs = append(errs, dpr.Validate(d)...)
	if len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
		return false
	}
	return true
}

func (a *app) createReportHandler(w http.ResponseWriter, r *http.Request) {
	var d dpr.DPRData
	if !a.decode(w, r, &d) {
		return
	}
	d.ID = 0
	d.Origin = dpr.OriginManual
	d.IsReference = false
	d.ImportBatch = ""
	d.PostingStatus = dpr.StatusDraft
	d.PostedBy = ""
	d.PostedAt = nil
	d.CreatedBy = currentUser(r).ID
	if !a.checkReport(w, &d) {
		return
	}

	if err := a.reports.CreateReport(r.Context(), &d); err != nil {
		a.fail(w, r, err, "Error creating report")
		return
	}
	a.logger(r).WithFields(logrus.Fields{
		"report_id":   d.ID,
		"date":        d.Date,
		"shift":       d.Shift,
		"changeovers": d.ShiftTotal.Changeovers,
	}).Info("report created")
	writeJSON(w, http.StatusOK, d)
}

func (a *app) updateReportHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	existing, err := a.reports.GetReport(r.Context(), int64(id))
	if err != nil {
		a.fail(w, r, err, "Error loading report")
		return
	}
	if err := dpr.CanEdit(existing); err != nil {
		a.fail(w, r, err, "Report is locked")
		return
	}

	var d dpr.DPRData
	if !a.decode(w, r, &d) {
		return
	}
	d.ID = existing.ID
	d.Origin = existing.Origin
	d.IsReference = existing.IsReference
	d.ImportBatch = existing.ImportBatch
	d.CreatedBy = existing.CreatedBy
	d.CreatedAt = existing.CreatedAt
	d.PostingStatus = dpr.StatusDraft
	d.PostedBy = ""
	d.PostedAt = nil
	if !a.checkReport(w, &d) {
		return
	}

	if err := a.reports.UpdateReport(r.Context(), &d); err != nil {
		a.fail(w, r, err, "Error updating report")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *app) deleteReportHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := a.reports.DeleteReport(r.Context(), int64(id)); err != nil {
		a.fail(w, r, err, "Error deleting report")
		return
	}
	w.WriteHeader(http.StatusOK)
}

type recalculateRequest struct {
	Report dpr.DPRData `json:"report"`
	Edits  []dpr.Edit  `json:"edits" validate:"dive"`
}

// recalculateHandler applies form edits to an unsaved report and returns
// the rebuilt report with its current field errors. Nothing is stored.
func (a *app) recalculateHandler(w http.ResponseWriter, r *http.Request) {
	var req recalculateRequest
	if !a.decode(w, r, &req) {
		return
	}

	var masters dpr.MasterMap
	if len(req.Edits) > 0 {
		moulds, err := a.masters.ListMoulds(r.Context())
		if err != nil {
			a.fail(w, r, err, "Error loading moulds")
			return
		}
		masters = masterMap(moulds)
	}

	d := req.Report
	for i, e := range req.Edits {
		if err := e.Apply(&d, masters); err != nil {
			a.fail(w, r, err, "Edit "+strconv.Itoa(i)+" rejected")
			return
		}
	}
	dpr.Rebuild(&d)

	writeJSON(w, http.StatusOK, map[string]any{
		"report": d,
		"errors": dpr.Validate(&d),
	})
}

func masterMap(moulds []models.Mould) dpr.MasterMap {
	m := make(dpr.MasterMap, len(moulds))
	for _, mould := range moulds {
		m[mould.Name] = dpr.MouldMaster{
			Name:        mould.Name,
			Cavity:      mould.Cavity,
			TargetCycle: mould.TargetCycle,
			PartWeight:  mould.PartWeight,
		}
	}
	return m
}

type importRequest struct {
	Layout  string     `json:"layout" validate:"required"`
	Version int        `json:"version" validate:"gte=0"`
	Grid    [][]string `json:"grid" validate:"required,min=1"`
}

// importReportHandler stores a spreadsheet grid as the reference report
// of its date and shift, merging into one already imported.
func (a *app) importReportHandler(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !a.decode(w, r, &req) {
		return
	}
	layout, ok := a.layouts.Find(req.Layout, req.Version)
	if !ok {
		http.Error(w, "Unknown import layout "+req.Layout, http.StatusUnprocessableEntity)
		return
	}

	res, err := importer.Parse(req.Grid, layout)
	if err != nil {
		http.Error(w, "Import failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	existing, err := a.reports.FindReport(r.Context(), res.Report.Date, res.Report.Shift, true)
	switch {
	case err == nil:
		res.Report = importer.Merge(*existing, res.Report)
		err = a.reports.UpdateReport(r.Context(), &res.Report)
	case errors.Is(err, store.ErrNotFound):
		res.Report.CreatedBy = currentUser(r).ID
		err = a.reports.CreateReport(r.Context(), &res.Report)
	}
	if err != nil {
		a.fail(w, r, err, "Error storing imported report")
		return
	}

	a.logger(r).WithFields(logrus.Fields{
		"report_id":   res.Report.ID,
		"batch":       res.Report.ImportBatch,
		"layout":      res.Layout,
		"version":     res.Version,
		"lines":       len(res.Report.Machines),
		"changeovers": res.Report.ShiftTotal.Changeovers,
		"warnings":    len(res.Warnings),
	}).Info("report imported")
	writeJSON(w, http.StatusOK, res)
}

// postReportHandler books a draft report into the stock ledger and marks
// it posted. A ledger failure leaves the report a draft.
func (a *app) postReportHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	d, err := a.reports.GetReport(r.Context(), int64(id))
	if err != nil {
		a.fail(w, r, err, "Error loading report")
		return
	}
	if err := dpr.CanPost(d); err != nil {
		a.fail(w, r, err, "Report cannot be posted")
		return
	}
	if errs := dpr.Validate(d); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
		return
	}

	user := currentUser(r)
	log := a.logger(r).WithField("report_id", d.ID)

	res, err := a.ledger.Post(r.Context(), d.ID, user.Username)
	if err != nil {
		log.WithError(err).Error("stock ledger post failed")
		http.Error(w, "Stock ledger unavailable: "+err.Error(), http.StatusBadGateway)
		return
	}

	now := a.now()
	if err := a.reports.MarkPosted(r.Context(), d.ID, user.Username, now); err != nil {
		log.WithError(err).Error("report booked in stock ledger but not marked posted")
		a.fail(w, r, err, "Error marking report posted")
		return
	}
	if err := dpr.MarkPosted(d, user.Username, now); err != nil {
		a.fail(w, r, err, "Error marking report posted")
		return
	}

	log.WithField("entries", res.EntryCounts).Info("report posted")
	writeJSON(w, http.StatusOK, map[string]any{"report": d, "ledger": res})
}
