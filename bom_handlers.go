package main

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"production_report/internal/models"
)

func (a *app) getBOMsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := models.BOMCategory(strings.ToUpper(q.Get("category")))
	if category != "" && !category.Valid() {
		http.Error(w, "Unknown BOM category", http.StatusBadRequest)
		return
	}
	boms, err := a.boms.ListBOMs(r.Context(), category, models.BOMStatus(strings.ToUpper(q.Get("status"))))
	if err != nil {
		a.fail(w, r, err, "Error listing BOMs")
		return
	}
	writeJSON(w, http.StatusOK, boms)
}

func (a *app) createBOMHandler(w http.ResponseWriter, r *http.Request) {
	var bom models.BOM
	if !a.decode(w, r, &bom) {
		return
	}
	if err := a.boms.CreateBOM(r.Context(), &bom); err != nil {
		a.fail(w, r, err, "Error creating BOM")
		return
	}
	writeJSON(w, http.StatusOK, bom)
}

func (a *app) updateBOMHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var bom models.BOM
	if !a.decode(w, r, &bom) {
		return
	}
	bom.ID = id
	if err := a.boms.UpdateBOM(r.Context(), &bom); err != nil {
		a.fail(w, r, err, "Error updating BOM")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *app) deleteBOMHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := a.boms.DeleteBOM(r.Context(), id); err != nil {
		a.fail(w, r, err, "Error deleting BOM")
		return
	}
	w.WriteHeader(http.StatusOK)
}

type releaseRequest struct {
	// Categories defaults to all three. IDs limits a category to the
	// listed drafts; a category without ids releases every draft.
	Categories []models.BOMCategory         `json:"categories" validate:"dive,oneof=SFG FG LOCAL_FG"`
	IDs        map[models.BOMCategory][]int `json:"ids"`
}

// releaseBOMsHandler releases each category on its own. A failing
// category is reported in its result and does not stop the others.
func (a *app) releaseBOMsHandler(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if !a.decode(w, r, &req) {
		return
	}
	categories := req.Categories
	if len(categories) == 0 {
		categories = models.BOMCategories
	}

	by := currentUser(r).Username
	results := make([]models.BOMReleaseResult, 0, len(categories))
	for _, c := range categories {
		res := models.BOMReleaseResult{Category: c}
		n, err := a.boms.ReleaseBOMs(r.Context(), c, req.IDs[c], by)
		if err != nil {
			a.logger(r).WithError(err).WithField("category", c).Error("BOM release failed")
			res.Error = err.Error()
		} else {
			res.Released = n
		}
		results = append(results, res)
	}

	a.logger(r).WithFields(logrus.Fields{"by": by, "results": results}).Info("BOM release")
	writeJSON(w, http.StatusOK, results)
}
