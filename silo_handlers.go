package main

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"production_report/internal/models"
)

func (a *app) getSilosHandler(w http.ResponseWriter, r *http.Request) {
	silos, err := a.silos.ListSilos(r.Context())
	if err != nil {
		a.fail(w, r, err, "Error listing silos")
		return
	}
	writeJSON(w, http.StatusOK, silos)
}

func (a *app) createSiloHandler(w http.ResponseWriter, r *http.Request) {
	var silo models.Silo
	if !a.decode(w, r, &silo) {
		return
	}
	if err := a.silos.CreateSilo(r.Context(), &silo); err != nil {
		a.fail(w, r, err, "Error creating silo")
		return
	}
	writeJSON(w, http.StatusOK, silo)
}

func (a *app) getSiloTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
	}
	if _, err := a.silos.GetSilo(r.Context(), id); err != nil {
		a.fail(w, r, err, "Error loading silo")
		return
	}
	txs, err := a.silos.ListSiloTransactions(r.Context(), id, limit)
	if err != nil {
		a.fail(w, r, err, "Error listing silo transactions")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (a *app) createSiloTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var tx models.SiloTransaction
	if !a.decode(w, r, &tx) {
		return
	}
	tx.SiloID = id
	tx.CreatedBy = currentUser(r).ID

	if err := a.silos.RecordSiloTransaction(r.Context(), &tx); err != nil {
		a.fail(w, r, err, "Silo transaction rejected")
		return
	}
	a.logger(r).WithFields(logrus.Fields{
		"silo_id":  id,
		"kind":     tx.Kind,
		"quantity": tx.QuantityKg,
		"level":    tx.LevelAfter,
	}).Info("silo transaction")
	writeJSON(w, http.StatusOK, tx)
}
