package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"

	"production_report/internal/dpr"
	"production_report/internal/importer"
	"production_report/internal/ledger"
	"production_report/internal/models"
	"production_report/internal/settings"
	"production_report/internal/store"
)

type userStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, string, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, u *models.User, passwordHash string) error
	UpdateUser(ctx context.Context, u *models.User, passwordHash string) error
	DeleteUser(ctx context.Context, id int) error
}

type masterStore interface {
	ListShiftHours(ctx context.Context) ([]models.ShiftHours, error)
	CreateShiftHours(ctx context.Context, s *models.ShiftHours) error
	UpdateShiftHours(ctx context.Context, s *models.ShiftHours) error
	DeleteShiftHours(ctx context.Context, id int) error
	ListStoppageReasons(ctx context.Context) ([]models.StoppageReason, error)
	CreateStoppageReason(ctx context.Context, r *models.StoppageReason) error
	UpdateStoppageReason(ctx context.Context, r *models.StoppageReason) error
	DeleteStoppageReason(ctx context.Context, id int) error
	ListMoulds(ctx context.Context) ([]models.Mould, error)
	CreateMould(ctx context.Context, m *models.Mould) error
	UpdateMould(ctx context.Context, m *models.Mould) error
	DeleteMould(ctx context.Context, id int) error
}

type reportStore interface {
	ListReports(ctx context.Context, f store.ReportFilter) ([]dpr.DPRData, error)
	GetReport(ctx context.Context, id int64) (*dpr.DPRData, error)
	FindReport(ctx context.Context, date string, shift dpr.Shift, reference bool) (*dpr.DPRData, error)
	CreateReport(ctx context.Context, d *dpr.DPRData) error
	UpdateReport(ctx context.Context, d *dpr.DPRData) error
	DeleteReport(ctx context.Context, id int64) error
	MarkPosted(ctx context.Context, id int64, by string, at time.Time) error
}

type bomStore interface {
	ListBOMs(ctx context.Context, category models.BOMCategory, status models.BOMStatus) ([]models.BOM, error)
	CreateBOM(ctx context.Context, b *models.BOM) error
	UpdateBOM(ctx context.Context, b *models.BOM) error
	DeleteBOM(ctx context.Context, id int) error
	ReleaseBOMs(ctx context.Context, category models.BOMCategory, ids []int, by string) (int, error)
}

type siloStore interface {
	ListSilos(ctx context.Context) ([]models.Silo, error)
	GetSilo(ctx context.Context, id int) (*models.Silo, error)
	CreateSilo(ctx context.Context, s *models.Silo) error
	RecordSiloTransaction(ctx context.Context, tx *models.SiloTransaction) error
	ListSiloTransactions(ctx context.Context, siloID, limit int) ([]models.SiloTransaction, error)
}

type checklistStore interface {
	ListChecklistItems(ctx context.Context) ([]models.ChecklistItem, error)
	CreateChecklistItem(ctx context.Context, it *models.ChecklistItem) error
	UpdateChecklistItem(ctx context.Context, it *models.ChecklistItem) error
	DeleteChecklistItem(ctx context.Context, id int) error
	ListChecklists(ctx context.Context, date string) ([]models.ChangeoverChecklist, error)
	GetChecklist(ctx context.Context, id int) (*models.ChangeoverChecklist, error)
	CreateChecklist(ctx context.Context, c *models.ChangeoverChecklist) error
	UpdateChecklist(ctx context.Context, c *models.ChangeoverChecklist) error
}

// ledgerPoster books a posted report into stock.
type ledgerPoster interface {
	Post(ctx context.Context, reportID int64, postedBy string) (*ledger.Result, error)
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// app carries the dependencies shared by every handler.
type app struct {
	users      userStore
	masters    masterStore
	reports    reportStore
	boms       bomStore
	silos      siloStore
	checklists checklistStore
	db         pinger

	settings *settings.Manager
	ledger   ledgerPoster
	layouts  *importer.Layouts

	sessions    *sessions.CookieStore
	sessionIdle time.Duration
	validate    *validator.Validate
	log         *logrus.Logger
	now         func() time.Time
}

// newApp wires every store interface to db.
func newApp(db *store.DB, cfg *Config, log *logrus.Logger, prefs settings.Preferences, layouts *importer.Layouts, poster ledgerPoster) *app {
	return &app{
		users:       db,
		masters:     db,
		reports:     db,
		boms:        db,
		silos:       db,
		checklists:  db,
		db:          db,
		settings:    settings.NewManager(prefs, db),
		ledger:      poster,
		layouts:     layouts,
		sessions:    newSessionStore(cfg.SessionSecret, cfg.SecureCookies),
		sessionIdle: cfg.sessionIdle(),
		validate:    validator.New(),
		log:         log,
		now:         time.Now,
	}
}

func newSessionStore(secret string, secure bool) *sessions.CookieStore {
	s := sessions.NewCookieStore([]byte(secret))
	s.Options.Path = "/"
	s.Options.HttpOnly = true
	s.Options.Secure = secure
	s.Options.SameSite = http.SameSiteLaxMode
	return s
}

func (a *app) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.logRequests)

	r.HandleFunc("/health", a.healthHandler).Methods("GET")

	r.HandleFunc("/login", a.loginHandler).Methods("POST")
	r.HandleFunc("/logout", a.logoutHandler).Methods("POST")
	r.HandleFunc("/api/check-auth", a.requireAuth(a.checkAuthHandler)).Methods("GET")

	r.HandleFunc("/api/users", a.requireAdmin(a.getUsersHandler)).Methods("GET")
	r.HandleFunc("/api/users", a.requireAdmin(a.createUserHandler)).Methods("POST")
	r.HandleFunc("/api/users/{id}", a.requireAdmin(a.updateUserHandler)).Methods("PUT")
	r.HandleFunc("/api/users/{id}", a.requireAdmin(a.deleteUserHandler)).Methods("DELETE")

	r.HandleFunc("/api/shift-hours", a.requireAuth(a.getShiftHoursHandler)).Methods("GET")
	r.HandleFunc("/api/shift-hours", a.requireAdmin(a.createShiftHoursHandler)).Methods("POST")
	r.HandleFunc("/api/shift-hours/{id}", a.requireAdmin(a.updateShiftHoursHandler)).Methods("PUT")
	r.HandleFunc("/api/shift-hours/{id}", a.requireAdmin(a.deleteShiftHoursHandler)).Methods("DELETE")
	r.HandleFunc("/api/stoppage-reasons", a.requireAuth(a.getStoppageReasonsHandler)).Methods("GET")
	r.HandleFunc("/api/stoppage-reasons", a.requireAdmin(a.createStoppageReasonHandler)).Methods("POST")
	r.HandleFunc("/api/stoppage-reasons/{id}", a.requireAdmin(a.updateStoppageReasonHandler)).Methods("PUT")
	r.HandleFunc("/api/stoppage-reasons/{id}", a.requireAdmin(a.deleteStoppageReasonHandler)).Methods("DELETE")
	r.HandleFunc("/api/moulds", a.requireAuth(a.getMouldsHandler)).Methods("GET")
	r.HandleFunc("/api/moulds", a.requireAdmin(a.createMouldHandler)).Methods("POST")
	r.HandleFunc("/api/moulds/{id}", a.requireAdmin(a.updateMouldHandler)).Methods("PUT")
	r.HandleFunc("/api/moulds/{id}", a.requireAdmin(a.deleteMouldHandler)).Methods("DELETE")

	r.HandleFunc("/api/dpr", a.requireAuth(a.getReportsHandler)).Methods("GET")
	r.HandleFunc("/api/dpr", a.requireAuth(a.createReportHandler)).Methods("POST")
	r.HandleFunc("/api/dpr/recalculate", a.requireAuth(a.recalculateHandler)).Methods("POST")
	r.HandleFunc("/api/dpr/import", a.requireAuth(a.importReportHandler)).Methods("POST")
	r.HandleFunc("/api/dpr/{id}", a.requireAuth(a.getReportHandler)).Methods("GET")
	r.HandleFunc("/api/dpr/{id}", a.requireAuth(a.updateReportHandler)).Methods("PUT")
	r.HandleFunc("/api/dpr/{id}", a.requireAuth(a.deleteReportHandler)).Methods("DELETE")
	r.HandleFunc("/api/dpr/{id}/post", a.requireAuth(a.postReportHandler)).Methods("POST")

	r.HandleFunc("/api/boms", a.requireAuth(a.getBOMsHandler)).Methods("GET")
	r.HandleFunc("/api/boms", a.requireAdmin(a.createBOMHandler)).Methods("POST")
	r.HandleFunc("/api/boms/release", a.requireAdmin(a.releaseBOMsHandler)).Methods("POST")
	r.HandleFunc("/api/boms/{id}", a.requireAdmin(a.updateBOMHandler)).Methods("PUT")
	r.HandleFunc("/api/boms/{id}", a.requireAdmin(a.deleteBOMHandler)).Methods("DELETE")

	r.HandleFunc("/api/silos", a.requireAuth(a.getSilosHandler)).Methods("GET")
	r.HandleFunc("/api/silos", a.requireAdmin(a.createSiloHandler)).Methods("POST")
	r.HandleFunc("/api/silos/{id}/transactions", a.requireAuth(a.getSiloTransactionsHandler)).Methods("GET")
	r.HandleFunc("/api/silos/{id}/transactions", a.requireAuth(a.createSiloTransactionHandler)).Methods("POST")

	r.HandleFunc("/api/checklist-items", a.requireAuth(a.getChecklistItemsHandler)).Methods("GET")
	r.HandleFunc("/api/checklist-items", a.requireAdmin(a.createChecklistItemHandler)).Methods("POST")
	r.HandleFunc("/api/checklist-items/{id}", a.requireAdmin(a.updateChecklistItemHandler)).Methods("PUT")
	r.HandleFunc("/api/checklist-items/{id}", a.requireAdmin(a.deleteChecklistItemHandler)).Methods("DELETE")
	r.HandleFunc("/api/checklists", a.requireAuth(a.getChecklistsHandler)).Methods("GET")
	r.HandleFunc("/api/checklists", a.requireAuth(a.createChecklistHandler)).Methods("POST")
	r.HandleFunc("/api/checklists/{id}", a.requireAuth(a.getChecklistHandler)).Methods("GET")
	r.HandleFunc("/api/checklists/{id}", a.requireAuth(a.updateChecklistHandler)).Methods("PUT")
	r.HandleFunc("/api/checklists/{id}/complete", a.requireAuth(a.completeChecklistHandler)).Methods("POST")

	r.HandleFunc("/api/settings", a.requireAuth(a.getSettingsHandler)).Methods("GET")
	r.HandleFunc("/api/settings", a.requireAuth(a.saveSettingsHandler)).Methods("PUT")

	return r
}

type ctxKey int

const (
	ctxLogger ctxKey = iota
	ctxUser
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// logRequests tags every request with an id and logs its outcome.
func (a *app) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		entry := a.log.WithField("request_id", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), ctxLogger, entry)))

		entry.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

func (a *app) logger(r *http.Request) logrus.FieldLogger {
	if entry, ok := r.Context().Value(ctxLogger).(*logrus.Entry); ok {
		return entry
	}
	return a.log
}

func currentUser(r *http.Request) models.User {
	u, _ := r.Context().Value(ctxUser).(models.User)
	return u
}

func withUser(r *http.Request, u models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxUser, u))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

// decode reads a JSON body into v and runs the struct validator on it.
func (a *app) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	if err := a.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]dpr.FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, dpr.FieldError{Field: fe.Namespace(), Message: fe.Tag()})
			}
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fields})
			return false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// fail maps domain and store errors to a status code. Anything unknown
// is logged and reported as 500.
func (a *app) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrNotDraft),
		errors.Is(err, dpr.ErrPosted),
		errors.Is(err, dpr.ErrAlreadyPosted),
		errors.Is(err, dpr.ErrReferenceReport),
		errors.Is(err, models.ErrChecklistClosed):
		status = http.StatusConflict
	case errors.Is(err, models.ErrCapacityExceeded),
		errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrChecklistIncomplete):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, dpr.ErrUnknownLine),
		errors.Is(err, dpr.ErrUnknownField),
		errors.Is(err, dpr.ErrUnknownMould),
		errors.Is(err, dpr.ErrNoChangeover),
		errors.Is(err, dpr.ErrUnknownEdit),
		errors.Is(err, dpr.ErrStoppageIndex):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		a.logger(r).WithError(err).Error(msg)
		http.Error(w, msg, status)
		return
	}
	http.Error(w, msg+": "+err.Error(), status)
}

func (a *app) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.db.PingContext(ctx); err != nil {
		a.logger(r).WithError(err).Warn("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
