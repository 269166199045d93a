package main

import (
	"net/http"

	"production_report/internal/settings"
)

func (a *app) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	prefs, err := a.settings.Load(r.Context(), currentUser(r).ID)
	if err != nil {
		a.fail(w, r, err, "Error loading settings")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (a *app) saveSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var prefs settings.Preferences
	if !a.decode(w, r, &prefs) {
		return
	}
	saved, err := a.settings.Save(r.Context(), currentUser(r).ID, prefs)
	if err != nil {
		a.fail(w, r, err, "Error saving settings")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
