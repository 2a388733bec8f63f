package status

import (
	"net/http"

	"buscalisto/internal/domain/models"
	"buscalisto/internal/health"
	"buscalisto/internal/http-server/respond"
)

type Monitor interface {
	Current() health.Status
}

type PlanLister interface {
	Plans() []models.Plan
}

// NewStatusHandler reports the last background probe. It never probes
// on the request path.
func NewStatusHandler(m Monitor, datasetSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := m.Current()
		respond.WriteJSON(w, http.StatusOK, respond.Body{
			Success: true,
			Data: map[string]any{
				"api":             st,
				"fallbackDataset": datasetSize,
			},
		})
	}
}

func NewPlansHandler(p PlanLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.WriteJSON(w, http.StatusOK, respond.Body{Success: true, Data: p.Plans(), View: "populated"})
	}
}
