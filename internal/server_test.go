package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/garminstats/internal/activities"
	"github.com/2beens/garminstats/internal/config"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGarminActivities = `[
  {"activityId": 3, "activityType": {"typeKey": "walking"}, "startTimeLocal": "2024-11-03 12:00:00", "distance": 3500, "description": "with the dog"},
  {"activityId": 2, "activityType": {"typeKey": "strength_training"}, "startTimeLocal": "2024-11-02 07:30:00", "movingDuration": 1800,
   "summarizedExerciseSets": [{"category": "PUSH_UP", "reps": 40}, {"category": "PULL_UP", "reps": 12}]},
  {"activityId": 1, "activityType": {"typeKey": "strength_training"}, "startTimeLocal": "2024-10-30 07:30:00", "movingDuration": 600,
   "summarizedExerciseSets": [{"category": "PUSH_UP", "reps": 100}]}
]`

// fakeGarminServer accepts any login and counts the activity list fetches.
func fakeGarminServer(t *testing.T, activitiesCalls *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sso/signin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `<input type="hidden" name="_csrf" value="csrf" />`)
			return
		}
		fmt.Fprint(w, `<title>Success</title> "https://sso.garmin.com/sso/embed?ticket=ST-1-x"`)
	})
	mux.HandleFunc("/oauth-service/oauth/exchange/user/2.0", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"access_token": "token", "expires_in": 3600}`)
	})
	mux.HandleFunc("/activitylist-service/activities/search/activities", func(w http.ResponseWriter, _ *http.Request) {
		*activitiesCalls++
		fmt.Fprint(w, testGarminActivities)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, garminURL string) *Server {
	t.Helper()
	cfg := &config.Config{
		GarminSSOURL:        garminURL,
		GarminConnectAPIURL: garminURL,
		GarminTimeoutSec:    5,
		ActivitiesLimit:     100,
		ActivitiesSource:    config.SourceGarmin,
		ActivitiesCacheTTL:  60,
	}

	server, err := NewServer(context.Background(), NewServerParams{
		Config:         cfg,
		GarminEmail:    "runner@example.com",
		GarminPassword: "s3cret",
		Criteria: []activities.Criterion{
			{Tag: "dog", AggregationParameter: "distance", Unit: "km", Multiplicator: func() *float64 { m := 0.001; return &m }()},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, server)
	t.Cleanup(server.GracefulShutdown)
	return server
}

func TestServer_Routes(t *testing.T) {
	activitiesCalls := 0
	garminSrv := fakeGarminServer(t, &activitiesCalls)
	server := newTestServer(t, garminSrv.URL)
	router := server.routerSetup()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats/strength?since=2024-11-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var strength activities.StrengthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &strength))
	assert.Equal(t, 40, strength.PushUps)
	assert.Equal(t, 12, strength.PullUps)
	assert.Equal(t, float64(30), strength.MovingMinutes)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats/criteria?since=2024-10-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var criteria activities.CriteriaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &criteria))
	require.Len(t, criteria.Totals, 1)
	assert.Equal(t, "any-dog-distance", criteria.Totals[0].Description)
	assert.InDelta(t, 3.5, criteria.Totals[0].Total, 0.0001)

	// the activity window is cached
	assert.Equal(t, 1, activitiesCalls)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activities/latest/strength_training", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"activityId":2`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	assert.Equal(t, float64(4), testutil.ToFloat64(server.metricsManager.CounterRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(server.metricsManager.CounterLogins.WithLabelValues("ok")))
}

func TestServer_GarminDown(t *testing.T) {
	garminSrv := httptest.NewServer(http.NotFoundHandler())
	garminSrv.Close()

	server := newTestServer(t, garminSrv.URL)
	router := server.routerSetup()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activities/types", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(server.metricsManager.CounterLogins.WithLabelValues("failed")))
}
