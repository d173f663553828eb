package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/assignment"
	auth "github.com/crazy0629/Projitt-HR-Management-sub001/internal/auth/middleware"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/caller"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/rbac"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/scoring"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, assignment.ErrNotFound), errors.Is(err, definition.ErrTestNotFound):
		return http.StatusNotFound
	case errors.Is(err, definition.ErrInvalidTest),
		errors.Is(err, scoring.ErrInvalidQuestion),
		errors.Is(err, scoring.ErrInvalidOption),
		errors.Is(err, scoring.ErrMissingRequired),
		errors.Is(err, assignment.ErrNoCandidates):
		return http.StatusUnprocessableEntity
	case assignment.IsEligibility(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	if status == http.StatusInternalServerError {
		body.Error = "internal error"
	}
	var missing *scoring.MissingResponsesError
	if errors.As(err, &missing) {
		body.Missing = missing.Codes
	}
	respondJSON(w, status, body)
}

// decodeJSON reads the body into v and runs its validate tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "bad json: " + err.Error()})
		return false
	}
	if err := validate.Struct(v); err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: validationMessage(err)})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "bad " + name})
		return 0, false
	}
	return id, true
}

// actorFrom builds the caller identity from what JWTMiddleware stored.
func actorFrom(r *http.Request) caller.Actor {
	return caller.Actor{
		UserID:    auth.SubjectFromContext(r.Context()),
		Role:      rbac.RoleFromContext(r.Context()),
		RequestID: middleware.GetReqID(r.Context()),
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func parseInt64(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
