package http

import (
	"net/http"
	"strings"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/rbac"
)

// POST /tests
func CreateTestHandler(store definition.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req definition.NewTest
		if !decodeJSON(w, r, &req) {
			return
		}
		t, err := store.CreateTest(r.Context(), req)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, t)
	}
}

// GET /tests?published=1&category=&limit=&offset=
func ListTestsHandler(store definition.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := store.ListTests(r.Context(), definition.ListOpts{
			PublishedOnly: q.Get("published") == "1" || q.Get("published") == "true",
			Category:      strings.TrimSpace(q.Get("category")),
			Limit:         parseIntDefault(q.Get("limit"), 50),
			Offset:        parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /tests/{id}. Option scores are only visible to roles that may create
// tests.
func GetTestHandler(store definition.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		t, err := store.GetTest(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		if !rbac.Allowed(r.Context(), rbac.PermTestCreate) {
			for i := range t.Questions {
				for j := range t.Questions[i].Options {
					t.Questions[i].Options[j].Score = 0
					t.Questions[i].Options[j].Weight = 0
				}
			}
		}
		respondJSON(w, http.StatusOK, t)
	}
}

// POST /tests/{id}/publish {"published": true}
func PublishTestHandler(store definition.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		req := struct {
			Published *bool `json:"published"`
		}{}
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		published := req.Published == nil || *req.Published
		if err := store.SetPublished(r.Context(), id, published); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"id": id, "published": published})
	}
}
