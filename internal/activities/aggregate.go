package activities

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// inRange reports whether the activity started at or after since.
// Records with a missing or malformed start time are reported and skipped.
func inRange(act *Activity, since time.Time) bool {
	startTime, err := act.StartTime()
	if err != nil {
		log.Warnf("skipping activity [%d]: %s", act.ActivityID, err)
		return false
	}
	return !startTime.Before(since)
}

// Since returns the activities that started at or after since.
func Since(acts []Activity, since time.Time) []Activity {
	var filtered []Activity
	for i := range acts {
		if inRange(&acts[i], since) {
			filtered = append(filtered, acts[i])
		}
	}
	return filtered
}

// CountExercises sums the reps per exercise category for activities of the given type
// started at or after since. Only the requested categories are counted, each of them is
// present in the result even when zero.
func CountExercises(acts []Activity, since time.Time, typeKey string, categories ...string) map[string]int {
	counts := make(map[string]int, len(categories))
	for _, c := range categories {
		counts[c] = 0
	}

	for i := range acts {
		act := &acts[i]
		if !inRange(act, since) {
			continue
		}
		actType, err := act.TypeKey()
		if err != nil {
			log.Warnf("skipping activity [%d]: %s", act.ActivityID, err)
			continue
		}
		if actType != typeKey {
			continue
		}
		for _, set := range act.SummarizedExerciseSets {
			if _, ok := counts[set.Category]; ok {
				counts[set.Category] += int(math.Round(set.Reps))
			}
		}
	}

	return counts
}

// TotalMovingDuration sums the moving duration of activities of the given type started at or after since.
// Activities without a moving duration do not contribute.
func TotalMovingDuration(acts []Activity, since time.Time, typeKey string) time.Duration {
	var totalSeconds float64
	for i := range acts {
		act := &acts[i]
		if !inRange(act, since) {
			continue
		}
		actType, err := act.TypeKey()
		if err != nil {
			log.Warnf("skipping activity [%d]: %s", act.ActivityID, err)
			continue
		}
		if actType != typeKey || act.MovingDuration == nil {
			continue
		}
		totalSeconds += *act.MovingDuration
	}
	return time.Duration(totalSeconds * float64(time.Second))
}

// Types returns the type key of every activity, in order.
func Types(acts []Activity) []string {
	types := make([]string, 0, len(acts))
	for i := range acts {
		typeKey, err := acts[i].TypeKey()
		if err != nil {
			types = append(types, UnknownType)
			continue
		}
		types = append(types, typeKey)
	}
	return types
}

// Latest returns the activity of the given type with the most recent start time.
func Latest(acts []Activity, typeKey string) (*Activity, bool) {
	var (
		latest     *Activity
		latestTime time.Time
	)
	for i := range acts {
		act := &acts[i]
		actType, err := act.TypeKey()
		if err != nil || actType != typeKey {
			continue
		}
		startTime, err := act.StartTime()
		if err != nil {
			log.Warnf("skipping activity [%d]: %s", act.ActivityID, err)
			continue
		}
		if latest == nil || startTime.After(latestTime) {
			latest = act
			latestTime = startTime
		}
	}
	return latest, latest != nil
}

// AggregateResult holds the raw sum of one criterion.
type AggregateResult struct {
	Description   string  `json:"description"`
	Raw           float64 `json:"raw"`
	Multiplicator float64 `json:"multiplicator"`
	Unit          string  `json:"unit"`
}

// Scaled applies the multiplicator to the raw sum.
func (r AggregateResult) Scaled() float64 {
	return r.Raw * r.Multiplicator
}

// Aggregate sums the aggregation parameter of every activity matching each criterion.
// Results follow the order of the criteria. Criteria with the same description share one
// result, at the position of the first one and with the unit and multiplicator of the last one.
func Aggregate(acts []Activity, since time.Time, criteria []Criterion) []AggregateResult {
	results := make([]AggregateResult, 0, len(criteria))
	positions := make(map[string]int, len(criteria))
	for _, criterion := range criteria {
		result := AggregateResult{
			Description:   criterion.Description(),
			Multiplicator: criterion.Multiplier(),
			Unit:          criterion.Unit,
		}

		tags := criterion.Tags()
		for i := range acts {
			act := &acts[i]
			if !inRange(act, since) {
				continue
			}

			if criterion.ActivityType != "" {
				actType, err := act.TypeKey()
				if err != nil {
					log.Debugf("criterion [%s], skipping activity [%d]: %s", result.Description, act.ActivityID, err)
					continue
				}
				if actType != criterion.ActivityType {
					continue
				}
			}

			if !containsAllTags(act.Description, tags) {
				continue
			}

			value, ok := fieldValue(act, criterion.AggregationParameter)
			if !ok {
				log.Debugf("criterion [%s], skipping activity [%d]: field [%s] is not a number",
					result.Description, act.ActivityID, criterion.AggregationParameter)
				continue
			}
			result.Raw += value
		}

		if pos, seen := positions[result.Description]; seen {
			results[pos] = result
			continue
		}
		positions[result.Description] = len(results)
		results = append(results, result)
	}
	return results
}

func containsAllTags(description string, tags []string) bool {
	description = strings.ToLower(description)
	for _, tag := range tags {
		if !strings.Contains(description, tag) {
			return false
		}
	}
	return true
}

// fieldValue looks up a numeric field in the raw record. A missing or null field counts as zero.
func fieldValue(act *Activity, path string) (float64, bool) {
	raw := act.Raw
	if len(raw) == 0 {
		var err error
		if raw, err = json.Marshal(act); err != nil {
			return 0, false
		}
	}

	res := gjson.GetBytes(raw, path)
	switch res.Type {
	case gjson.Null:
		return 0, true
	case gjson.Number:
		return res.Num, true
	default:
		return 0, false
	}
}
