package http

import (
	"net/http"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/reporting"
)

// GET /reports/summary?group_by=test|role|candidate&test_id=
func ReportSummaryHandler(agg *reporting.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := reporting.Filter{TestID: parseInt64(q.Get("test_id"))}

		var (
			out any
			err error
		)
		switch q.Get("group_by") {
		case "", "test":
			out, err = agg.ByTest(r.Context(), f)
		case "role":
			out, err = agg.ByRole(r.Context(), f)
		case "candidate":
			out, err = agg.ByCandidate(r.Context(), f)
		default:
			respondJSON(w, http.StatusBadRequest, errorBody{Error: "group_by must be test, role or candidate"})
			return
		}
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}
