package activities

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/garminstats/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

var ErrActivityNotFound = errors.New("activity not found")

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=activities_test

// activitiesSource is where the analyzer gets the latest activities from,
// either the garmin connect api or the local activities repo.
type activitiesSource interface {
	Activities(ctx context.Context, start, limit int) ([]Activity, error)
}

// StrengthSummary holds the strength training totals since a given date.
type StrengthSummary struct {
	Since          time.Time     `json:"since"`
	MovingDuration time.Duration `json:"movingDuration"`
	PushUps        int           `json:"pushUps"`
	PullUps        int           `json:"pullUps"`
}

// MovingMinutes is the moving duration expressed in minutes.
func (s StrengthSummary) MovingMinutes() float64 {
	return s.MovingDuration.Minutes()
}

type Analyzer struct {
	source     activitiesSource
	fetchLimit int
}

func NewAnalyzer(source activitiesSource, fetchLimit int) *Analyzer {
	return &Analyzer{
		source:     source,
		fetchLimit: fetchLimit,
	}
}

// Fetch returns the latest activities from the source.
func (a *Analyzer) Fetch(ctx context.Context) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.activities.fetch")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	acts, err := a.source.Activities(ctx, 0, a.fetchLimit)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("activities.count", len(acts)))
	return acts, nil
}

func (a *Analyzer) StrengthSummary(ctx context.Context, since time.Time) (_ *StrengthSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.activities.strengthSummary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	acts, err := a.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	return NewStrengthSummary(acts, since), nil
}

// NewStrengthSummary computes the strength training totals from already fetched activities.
func NewStrengthSummary(acts []Activity, since time.Time) *StrengthSummary {
	reps := CountExercises(acts, since, TypeStrengthTraining, CategoryPushUp, CategoryPullUp)
	return &StrengthSummary{
		Since:          since,
		MovingDuration: TotalMovingDuration(acts, since, TypeStrengthTraining),
		PushUps:        reps[CategoryPushUp],
		PullUps:        reps[CategoryPullUp],
	}
}

func (a *Analyzer) CriteriaTotals(ctx context.Context, since time.Time, criteria []Criterion) (_ []AggregateResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.activities.criteriaTotals")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("criteria.count", len(criteria)))

	acts, err := a.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	return Aggregate(acts, since, criteria), nil
}

func (a *Analyzer) ActivityTypes(ctx context.Context) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.activities.types")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	acts, err := a.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	return Types(acts), nil
}

func (a *Analyzer) Latest(ctx context.Context, typeKey string) (_ *Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.activities.latest")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("activity.type", typeKey))

	acts, err := a.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	latest, ok := Latest(acts, typeKey)
	if !ok {
		return nil, ErrActivityNotFound
	}
	return latest, nil
}
