package activities

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/2beens/garminstats/internal/telemetry/tracing"
	"github.com/2beens/garminstats/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	analyzer *Analyzer
	criteria []Criterion
	now      func() time.Time
}

func NewHandler(analyzer *Analyzer, criteria []Criterion) *Handler {
	return &Handler{
		analyzer: analyzer,
		criteria: criteria,
		now:      time.Now,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/activities/types", handler.HandleTypes).Methods("GET").Name("activity-types")
	r.HandleFunc("/activities/latest/{type}", handler.HandleLatest).Methods("GET").Name("latest-activity")
	r.HandleFunc("/stats/strength", handler.HandleStrength).Methods("GET").Name("strength-stats")
	r.HandleFunc("/stats/criteria", handler.HandleCriteria).Methods("GET").Name("criteria-stats")
}

type TypesResponse struct {
	Types []string `json:"types"`
}

type StrengthResponse struct {
	Since         string  `json:"since"`
	MovingMinutes float64 `json:"movingMinutes"`
	PushUps       int     `json:"pushUps"`
	PullUps       int     `json:"pullUps"`
}

type CriterionTotal struct {
	Description string  `json:"description"`
	Raw         float64 `json:"raw"`
	Total       float64 `json:"total"`
	Unit        string  `json:"unit"`
}

type CriteriaResponse struct {
	Since  string           `json:"since"`
	Totals []CriterionTotal `json:"totals"`
}

func (handler *Handler) HandleTypes(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.types")
	defer span.End()

	types, err := handler.analyzer.ActivityTypes(ctx)
	if err != nil {
		log.Errorf("get activity types: %s", err)
		http.Error(w, "failed to fetch activities", http.StatusBadGateway)
		return
	}

	handler.writeJSON(w, TypesResponse{Types: types})
}

func (handler *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.latest")
	defer span.End()

	typeKey := mux.Vars(r)["type"]
	latest, err := handler.analyzer.Latest(ctx, typeKey)
	if err != nil {
		if errors.Is(err, ErrActivityNotFound) {
			pkg.WriteResponse(w, pkg.ContentType.Text, "no "+typeKey+" activities found", http.StatusNotFound)
			return
		}
		log.Errorf("get latest %s activity: %s", typeKey, err)
		http.Error(w, "failed to fetch activities", http.StatusBadGateway)
		return
	}

	handler.writeJSON(w, latest)
}

func (handler *Handler) HandleStrength(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.strength")
	defer span.End()

	since, ok := handler.startDate(w, r)
	if !ok {
		return
	}

	summary, err := handler.analyzer.StrengthSummary(ctx, since)
	if err != nil {
		log.Errorf("get strength summary: %s", err)
		http.Error(w, "failed to fetch activities", http.StatusBadGateway)
		return
	}

	handler.writeJSON(w, StrengthResponse{
		Since:         since.Format(pkg.DateLayout),
		MovingMinutes: summary.MovingMinutes(),
		PushUps:       summary.PushUps,
		PullUps:       summary.PullUps,
	})
}

func (handler *Handler) HandleCriteria(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.criteria")
	defer span.End()

	since, ok := handler.startDate(w, r)
	if !ok {
		return
	}

	results, err := handler.analyzer.CriteriaTotals(ctx, since, handler.criteria)
	if err != nil {
		log.Errorf("get criteria totals: %s", err)
		http.Error(w, "failed to fetch activities", http.StatusBadGateway)
		return
	}

	totals := make([]CriterionTotal, 0, len(results))
	for _, res := range results {
		totals = append(totals, CriterionTotal{
			Description: res.Description,
			Raw:         res.Raw,
			Total:       res.Scaled(),
			Unit:        res.Unit,
		})
	}

	handler.writeJSON(w, CriteriaResponse{
		Since:  since.Format(pkg.DateLayout),
		Totals: totals,
	})
}

func (handler *Handler) startDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	since, err := ParseStartDate(r.URL.Query().Get("since"), handler.now())
	if err != nil {
		http.Error(w, "invalid since parameter (expected YYYY-MM-DD)", http.StatusBadRequest)
		return time.Time{}, false
	}
	return since, true
}

func (handler *Handler) writeJSON(w http.ResponseWriter, response any) {
	responseJson, err := json.Marshal(response)
	if err != nil {
		log.Errorf("failed to marshal response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, responseJson)
}
