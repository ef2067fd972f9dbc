package activities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// StartTimeLayout is the layout of startTimeLocal in activity records.
const StartTimeLayout = "2006-01-02 15:04:05"

const (
	TypeStrengthTraining = "strength_training"
	TypeWalking          = "walking"

	CategoryPushUp = "PUSH_UP"
	CategoryPullUp = "PULL_UP"

	UnknownType = "Unknown activity type"
)

var (
	ErrMissingStartTime = errors.New("missing start time")
	ErrMissingType      = errors.New("missing activity type")
)

type ActivityType struct {
	TypeID  int    `json:"typeId,omitempty"`
	TypeKey string `json:"typeKey"`
}

type ExerciseSet struct {
	Category    string  `json:"category"`
	SubCategory string  `json:"subCategory,omitempty"`
	Reps        float64 `json:"reps"`
	Volume      float64 `json:"volume,omitempty"`
	Sets        int     `json:"sets,omitempty"`
}

// Activity is a single record from the activity list of the fitness service.
// Only the fields the aggregations care about are typed, the full record is kept in Raw.
type Activity struct {
	ActivityID             int64         `json:"activityId"`
	ActivityName           string        `json:"activityName"`
	Description            string        `json:"description"`
	ActivityType           *ActivityType `json:"activityType"`
	StartTimeLocal         string        `json:"startTimeLocal"`
	Duration               float64       `json:"duration"`
	MovingDuration         *float64      `json:"movingDuration"`
	Distance               float64       `json:"distance"`
	SummarizedExerciseSets []ExerciseSet `json:"summarizedExerciseSets"`

	Raw json.RawMessage `json:"-"`
}

func (a *Activity) UnmarshalJSON(data []byte) error {
	type activityAlias Activity
	var alias activityAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*a = Activity(alias)
	a.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the record as it was received, so no fields are lost on the way out.
func (a Activity) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	type activityAlias Activity
	return json.Marshal(activityAlias(a))
}

func (a *Activity) StartTime() (time.Time, error) {
	if a.StartTimeLocal == "" {
		return time.Time{}, ErrMissingStartTime
	}
	t, err := time.Parse(StartTimeLayout, a.StartTimeLocal)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start time %q: %w", a.StartTimeLocal, err)
	}
	return t, nil
}

func (a *Activity) TypeKey() (string, error) {
	if a.ActivityType == nil || a.ActivityType.TypeKey == "" {
		return "", ErrMissingType
	}
	return a.ActivityType.TypeKey, nil
}

// ParseList decodes a JSON array of activity records. Only a response that is not an array
// is an error, single records that do not decode are logged and skipped.
func ParseList(data []byte) ([]Activity, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal activities: %w", err)
	}

	list := make([]Activity, 0, len(records))
	for i, record := range records {
		if bytes.Equal(bytes.TrimSpace(record), []byte("null")) {
			log.Warnf("skipping activity record #%d: null record", i)
			continue
		}
		var act Activity
		if err := json.Unmarshal(record, &act); err != nil {
			log.Warnf("skipping activity record #%d: %s: %s", i, err, record)
			continue
		}
		list = append(list, act)
	}
	return list, nil
}
