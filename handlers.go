package main

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"production_report/internal/models"
	"production_report/internal/store"
)

const sessionName = "session"

// Authentication handlers
func (a *app) loginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !a.decode(w, r, &credentials) {
		return
	}

	user, hash, err := a.users.GetUserByUsername(r.Context(), credentials.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger(r).WithError(err).Error("load user for login")
		}
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(credentials.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	session, _ := a.sessions.Get(r, sessionName)
	session.Values["user_id"] = user.ID
	session.Values["username"] = user.Username
	session.Values["role"] = user.Role
	session.Values["last_activity"] = a.now().Unix()
	if err := session.Save(r, w); err != nil {
		a.fail(w, r, err, "Error saving session")
		return
	}

	a.logger(r).WithField("user", user.Username).Info("login")
	writeJSON(w, http.StatusOK, user)
}

func (a *app) logoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := a.sessions.Get(r, sessionName)
	session.Values["user_id"] = nil
	session.Options.MaxAge = -1
	session.Save(r, w)
	w.WriteHeader(http.StatusOK)
}

func (a *app) checkAuthHandler(w http.ResponseWriter, r *http.Request) {
	user, err := a.users.GetUser(r.Context(), currentUser(r).ID)
	if err != nil {
		a.fail(w, r, err, "Error loading user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// sessionUser checks the idle timeout and refreshes the session's last
// activity. It writes the error response itself when it returns false.
func (a *app) sessionUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	session, _ := a.sessions.Get(r, sessionName)

	lastActivity, ok := session.Values["last_activity"].(int64)
	if !ok || a.now().Sub(time.Unix(lastActivity, 0)) > a.sessionIdle {
		session.Options.MaxAge = -1
		session.Save(r, w)
		http.Error(w, "Session expired", http.StatusUnauthorized)
		return models.User{}, false
	}

	userID, ok := session.Values["user_id"].(int)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return models.User{}, false
	}
	username, _ := session.Values["username"].(string)
	role, _ := session.Values["role"].(string)

	session.Values["last_activity"] = a.now().Unix()
	session.Save(r, w)

	return models.User{ID: userID, Username: username, Role: role}, true
}

func (a *app) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := a.sessionUser(w, r)
		if !ok {
			return
		}
		next(w, withUser(r, user))
	}
}

func (a *app) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := a.sessionUser(w, r)
		if !ok {
			return
		}
		if user.Role != models.RoleAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next(w, withUser(r, user))
	}
}

// User handlers
func (a *app) getUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.ListUsers(r.Context())
	if err != nil {
		a.fail(w, r, err, "Error listing users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type userRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"omitempty,min=6"`
	FullName string `json:"full_name"`
	Role     string `json:"role" validate:"required,oneof=admin user"`
}

func (a *app) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Password == "" {
		http.Error(w, "Password required", http.StatusUnprocessableEntity)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.fail(w, r, err, "Error hashing password")
		return
	}
	user := models.User{Username: req.Username, FullName: req.FullName, Role: req.Role}
	if err := a.users.CreateUser(r.Context(), &user, string(hash)); err != nil {
		a.fail(w, r, err, "Error creating user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"id": user.ID})
}

func (a *app) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var req userRequest
	if !a.decode(w, r, &req) {
		return
	}

	var hash []byte
	if req.Password != "" {
		if hash, err = bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost); err != nil {
			a.fail(w, r, err, "Error hashing password")
			return
		}
	}
	user := models.User{ID: id, Username: req.Username, FullName: req.FullName, Role: req.Role}
	if err := a.users.UpdateUser(r.Context(), &user, string(hash)); err != nil {
		a.fail(w, r, err, "Error updating user")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *app) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if id == currentUser(r).ID {
		http.Error(w, "Cannot delete the signed in user", http.StatusConflict)
		return
	}
	if err := a.users.DeleteUser(r.Context(), id); err != nil {
		a.fail(w, r, err, "Error deleting user")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Shift hours handlers
func (a *app) getShiftHoursHandler(w http.ResponseWriter, r *http.Request) {
	shifts, err := a.masters.ListShiftHours(r.Context())
	if err != nil {
		a.fail(w, r, err, "Error listing shift hours")
		return
	}
	writeJSON(w, http.StatusOK, shifts)
}

func (a *app) createShiftHoursHandler(w http.ResponseWriter, r *http.Request) {
	var shift models.ShiftHours
	if !a.decode(w, r, &shift) {
		return
	}
	if err := a.masters.CreateShiftHours(r.Context(), &shift); err != nil {
		a.fail(w, r, err, "Error creating shift hours")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"id": shift.ID})
}

func (a *app) updateShiftHoursHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var shift models.ShiftHours
	if !a.decode(w, r, &shift) {
		return
	}
	shift.ID = id
	if err := a.masters.UpdateShiftHours(r.Context(), &shift); err != nil {
		a.fail(w, r, err, "Error updating shift hours")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *app) deleteShiftHoursHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := a.masters.DeleteShiftHours(r.Context(), id); err != nil {
		a.fail(w, r, err, "Error deleting shift hours")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Stoppage reason handlers
func (a *app) getStoppageReasonsHandler(w http.ResponseWriter, r *http.Request) {
	reasons, err := a.masters.ListStoppageReasons(r.Context())
	if err != nil {
		a.fail(w, r, err, "Error listing stoppage reasons")
		return
	}
	writeJSON(w, http.StatusOK, reasons)
}

func (a *app) createStoppageReasonHandler(w http.ResponseWriter, r *http.Request) {
	var reason models.StoppageReason
	if !a.decode(w, r, &reason) {
		return
	}
	if err := a.masters.CreateStoppageReason(r.Context(), &reason); err != nil {
		a.fail(w, r, err, "Error creating stoppage reason")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"id": reason.ID})
}

func (a *app) updateStoppageReasonHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var reason models.StoppageReason
	if !a.decode(w, r, &reason) {
		return
	}
	reason.ID = id
	if err := a.masters.UpdateStoppageReason(r.Context(), &reason); err != nil {
		a.fail(w, r, err, "Error updating stoppage reason")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *app) deleteStoppageReasonHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := a.masters.DeleteStoppageReason(r.Context(), id); err != nil {
		a.fail(w, r, err, "Error deleting stoppage reason")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Mould master handlers
func (a *app) getMouldsHandler(w http.ResponseWriter, r *http.Request) {
	moulds, err := a.masters.ListMoulds(r.Context())
	if err != nil {
		a.fail(w, r, err, "Error listing moulds")
		return
	}
	writeJSON(w, http.StatusOK, moulds)
}

func (a *app) createMouldHandler(w http.ResponseWriter, r *http.Request) {
	var mould models.Mould
	if !a.decode(w, r, &mould) {
		return
	}
	if err := a.masters.CreateMould(r.Context(), &mould); err != nil {
		a.fail(w, r, err, "Error creating mould")
		return
	}
	writeJSON(w, http.StatusOK, mould)
}

func (a *app) updateMouldHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var mould models.Mould
	if !a.decode(w, r, &mould) {
		return
	}
	mould.ID = id
	if err := a.masters.UpdateMould(r.Context(), &mould); err != nil {
		a.fail(w, r, err, "Error updating mould")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *app) deleteMouldHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := a.masters.DeleteMould(r.Context(), id); err != nil {
		a.fail(w, r, err, "Error deleting mould")
		return
	}
	w.WriteHeader(http.StatusOK)
}
