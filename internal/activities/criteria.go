package activities

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

const anyMatch = "any"

// Criterion describes one aggregation over the activity list, as read from the criteria file.
type Criterion struct {
	ActivityType         string   `json:"activityType"`
	Tag                  string   `json:"tag"`
	AggregationParameter string   `json:"aggregationParameter"`
	Unit                 string   `json:"unit"`
	Multiplicator        *float64 `json:"multiplicator"`
}

// Tags returns the comma separated tags, trimmed and lowercased, without empty entries.
func (c Criterion) Tags() []string {
	var tags []string
	for _, tag := range strings.Split(c.Tag, ",") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Multiplier defaults to 1 when the criterion does not set one.
func (c Criterion) Multiplier() float64 {
	if c.Multiplicator == nil {
		return 1
	}
	return *c.Multiplicator
}

// Description is the key the criterion is reported under: <type>-<tags>-<parameter>.
func (c Criterion) Description() string {
	activityType := c.ActivityType
	if activityType == "" {
		activityType = anyMatch
	}
	tags := strings.Join(c.Tags(), ",")
	if tags == "" {
		tags = anyMatch
	}
	return fmt.Sprintf("%s-%s-%s", activityType, tags, c.AggregationParameter)
}

func ParseCriteria(r io.Reader) ([]Criterion, error) {
	var criteria []Criterion
	if err := json.NewDecoder(r).Decode(&criteria); err != nil {
		return nil, fmt.Errorf("decode criteria: %w", err)
	}
	return criteria, nil
}

func LoadCriteria(path string) ([]Criterion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open criteria file: %w", err)
	}
	defer f.Close()

	return ParseCriteria(f)
}
