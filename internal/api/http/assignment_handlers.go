package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/assignment"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/rbac"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/scoring"
)

type assignRequest struct {
	CandidateIDs     []int64        `json:"candidate_ids" validate:"required,min=1,dive,gt=0"`
	ExpiresAt        *time.Time     `json:"expires_at"`
	TimeLimitMinutes *int           `json:"time_limit_minutes" validate:"omitempty,gte=0"`
	TargetRole       string         `json:"target_role" validate:"max=120"`
	InvitationNote   string         `json:"invitation_note" validate:"max=2000"`
	Metadata         map[string]any `json:"metadata"`
}

type assignResult struct {
	CandidateID int64                  `json:"candidate_id"`
	Assignment  *assignment.Assignment `json:"assignment,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// POST /tests/{id}/assign. Responds 201 when every candidate was assigned
// and 207 when some were rejected.
func AssignHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req assignRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		out, err := svc.Assign(r.Context(), actorFrom(r), testID, req.CandidateIDs, assignment.AssignOptions{
			ExpiresAt:        req.ExpiresAt,
			TimeLimitMinutes: req.TimeLimitMinutes,
			TargetRole:       req.TargetRole,
			InvitationNote:   req.InvitationNote,
			Extra:            req.Metadata,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		status := http.StatusCreated
		body := make([]assignResult, 0, len(out))
		failed := 0
		for _, o := range out {
			res := assignResult{CandidateID: o.CandidateID, Assignment: o.Assignment}
			if o.Err != nil {
				failed++
				res.Error = o.Err.Error()
			}
			body = append(body, res)
		}
		switch {
		case failed == len(out):
			status = http.StatusConflict
		case failed > 0:
			status = http.StatusMultiStatus
		}
		respondJSON(w, status, map[string]any{"results": body})
	}
}

// GET /assignments?test_id=&candidate_id=&status=&limit=&offset=
func ListAssignmentsHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := svc.List(r.Context(), actorFrom(r), assignment.ListOpts{
			TestID:      parseInt64(q.Get("test_id")),
			CandidateID: parseInt64(q.Get("candidate_id")),
			Status:      assignment.Status(q.Get("status")),
			Limit:       parseIntDefault(q.Get("limit"), 50),
			Offset:      parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		if !rbac.Allowed(r.Context(), rbac.PermResultsView) {
			for i := range list {
				list[i].ResultSnapshot = nil
			}
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /assignments/{id}
func GetAssignmentHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		a, err := svc.Get(r.Context(), actorFrom(r), id)
		if err != nil {
			respondError(w, err)
			return
		}
		if !rbac.Allowed(r.Context(), rbac.PermResultsView) {
			a.ResultSnapshot = nil
		}
		respondJSON(w, http.StatusOK, a)
	}
}

// GET /assignments/{id}/results
func ResultsHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		rows, err := svc.Results(r.Context(), actorFrom(r), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, rows)
	}
}

// GET /assignments/{id}/presentation
func PresentationHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		p, err := svc.Presentation(r.Context(), actorFrom(r), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

// POST /assignments/{id}/start
func StartHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		a, p, err := svc.Start(r.Context(), actorFrom(r), id)
		if err != nil {
			respondError(w, err)
			return
		}
		a.ResultSnapshot = nil
		respondJSON(w, http.StatusOK, map[string]any{"assignment": a, "presentation": p})
	}
}

type submitRequest struct {
	Responses   []scoring.ResponseInput `json:"responses" validate:"dive"`
	ForceSubmit bool                    `json:"force_submit"`
	Metadata    map[string]any          `json:"metadata"`
}

// POST /assignments/{id}/submit. A submission past the time limit answers
// 409 with the now expired assignment in the body. Scores are only echoed
// to roles that may view results.
func SubmitHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req submitRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ForceSubmit && !rbac.Allowed(r.Context(), rbac.PermForceSubmit) {
			respondJSON(w, http.StatusForbidden, errorBody{Error: "force_submit not allowed"})
			return
		}
		res, err := svc.Submit(r.Context(), actorFrom(r), id, req.Responses, assignment.SubmitOptions{
			Force:    req.ForceSubmit,
			Metadata: req.Metadata,
		})
		if errors.Is(err, assignment.ErrTimeLimitExceeded) {
			respondJSON(w, http.StatusConflict, map[string]any{
				"error":      err.Error(),
				"assignment": res.Assignment,
			})
			return
		}
		if err != nil {
			respondError(w, err)
			return
		}
		if !rbac.Allowed(r.Context(), rbac.PermResultsView) {
			res.Assignment.ResultSnapshot = nil
			respondJSON(w, http.StatusOK, map[string]any{"assignment": res.Assignment})
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// POST /assignments/{id}/cancel {"reason": "..."}
func CancelHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		req := struct {
			Reason string `json:"reason" validate:"max=500"`
		}{}
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		a, err := svc.Cancel(r.Context(), actorFrom(r), id, req.Reason)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, a)
	}
}
