package activities_test

import (
	"testing"
	"time"

	"github.com/2beens/garminstats/internal/activities"

	"github.com/stretchr/testify/require"
)

var testSince = time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

const testActivitiesJSON = `[
  {
    "activityId": 1,
    "activityName": "Morning strength",
    "activityType": {"typeId": 13, "typeKey": "strength_training"},
    "startTimeLocal": "2024-11-02 07:30:00",
    "movingDuration": 1800,
    "summarizedExerciseSets": [
      {"category": "PUSH_UP", "reps": 40},
      {"category": "PULL_UP", "reps": 12},
      {"category": "SQUAT", "reps": 30}
    ]
  },
  {
    "activityId": 2,
    "activityType": {"typeKey": "strength_training"},
    "startTimeLocal": "2024-11-05 18:00:00",
    "movingDuration": 1200.5,
    "summarizedExerciseSets": [{"category": "PUSH_UP", "reps": 25}]
  },
  {
    "activityId": 3,
    "activityType": {"typeKey": "strength_training"},
    "startTimeLocal": "2024-10-28 07:30:00",
    "movingDuration": 3600,
    "summarizedExerciseSets": [
      {"category": "PUSH_UP", "reps": 100},
      {"category": "PULL_UP", "reps": 50}
    ]
  },
  {
    "activityId": 4,
    "activityType": {"typeKey": "walking"},
    "startTimeLocal": "2024-11-03 12:00:00",
    "description": "Walk with Rex #Dog",
    "distance": 4200.5,
    "movingDuration": 3000
  },
  {
    "activityId": 5,
    "activityType": {"typeKey": "walking"},
    "startTimeLocal": "2024-11-04 12:00:00",
    "description": "city walk",
    "distance": 2000
  },
  {
    "activityId": 6,
    "activityType": {"typeKey": "running"},
    "startTimeLocal": "2024-11-06 06:00:00",
    "description": "run with dog",
    "distance": 10000
  },
  {
    "activityId": 7,
    "activityType": {"typeKey": "strength_training"},
    "startTimeLocal": "not a date",
    "summarizedExerciseSets": [{"category": "PUSH_UP", "reps": 1000}]
  },
  {
    "activityId": 8,
    "startTimeLocal": "2024-11-07 10:00:00",
    "description": "dog",
    "distance": 500
  },
  {
    "activityId": 9,
    "activityType": {"typeKey": "strength_training"},
    "startTimeLocal": "2024-11-01 00:00:00",
    "description": null,
    "summarizedExerciseSets": [{"category": "PULL_UP", "reps": 8}]
  }
]`

func testActivities(t *testing.T) []activities.Activity {
	t.Helper()
	acts, err := activities.ParseList([]byte(testActivitiesJSON))
	require.NoError(t, err)
	require.Len(t, acts, 9)
	return acts
}

func floatPtr(f float64) *float64 {
	return &f
}
