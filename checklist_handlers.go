package main

import (
	"net/http"

	"production_report/internal/models"
)

// Checklist template handlers
func (a *app) getChecklistItemsHandler(w http.ResponseWriter, r *http.Request) {
	items, err := a.checklists.ListChecklistItems(r.Context())
	if err != nil {
		a.fail(w, r, err, "Error listing checklist items")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *app) createChecklistItemHandler(w http.ResponseWriter, r *http.Request) {
	var item models.ChecklistItem
	if !a.decode(w, r, &item) {
		return
	}
	if err := a.checklists.CreateChecklistItem(r.Context(), &item); err != nil {
		a.fail(w, r, err, "Error creating checklist item")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"id": item.ID})
}

func (a *app) updateChecklistItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var item models.ChecklistItem
	if !a.decode(w, r, &item) {
		return
	}
	item.ID = id
	if err := a.checklists.UpdateChecklistItem(r.Context(), &item); err != nil {
		a.fail(w, r, err, "Error updating checklist item")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *app) deleteChecklistItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := a.checklists.DeleteChecklistItem(r.Context(), id); err != nil {
		a.fail(w, r, err, "Error deleting checklist item")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Changeover checklist handlers
func (a *app) getChecklistsHandler(w http.ResponseWriter, r *http.Request) {
	lists, err := a.checklists.ListChecklists(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		a.fail(w, r, err, "Error listing checklists")
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (a *app) getChecklistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	c, err := a.checklists.GetChecklist(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, "Error loading checklist")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *app) createChecklistHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChangeoverChecklist
	if !a.decode(w, r, &req) {
		return
	}
	items, err := a.checklists.ListChecklistItems(r.Context())
	if err != nil {
		a.fail(w, r, err, "Error loading checklist items")
		return
	}
	if len(items) == 0 {
		http.Error(w, "No checklist items configured", http.StatusUnprocessableEntity)
		return
	}

	c := models.NewChecklist(req, items)
	c.CreatedBy = currentUser(r).ID
	if err := a.checklists.CreateChecklist(r.Context(), &c); err != nil {
		a.fail(w, r, err, "Error creating checklist")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *app) updateChecklistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var req struct {
		Checks []models.ChecklistCheck `json:"checks" validate:"required"`
	}
	if !a.decode(w, r, &req) {
		return
	}

	c, err := a.checklists.GetChecklist(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, "Error loading checklist")
		return
	}
	if err := models.UpdateChecks(c, req.Checks); err != nil {
		a.fail(w, r, err, "Checklist is closed")
		return
	}
	if err := a.checklists.UpdateChecklist(r.Context(), c); err != nil {
		a.fail(w, r, err, "Error updating checklist")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *app) completeChecklistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	c, err := a.checklists.GetChecklist(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, "Error loading checklist")
		return
	}
	if err := models.CompleteChecklist(c, currentUser(r).Username, a.now()); err != nil {
		a.fail(w, r, err, "Checklist cannot be completed")
		return
	}
	if err := a.checklists.UpdateChecklist(r.Context(), c); err != nil {
		a.fail(w, r, err, "Error updating checklist")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
