package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/2beens/garminstats/internal/activities"
)

const separatorWidth = 40

// StrengthTotals prints the moving duration and push-up / pull-up totals of a single user.
func StrengthTotals(w io.Writer, sinceArg string, summary *activities.StrengthSummary) {
	fmt.Fprintf(w, "Total moving duration for strength training activities since %s: %.2f minutes\n", sinceArg, summary.MovingMinutes())
	fmt.Fprintf(w, "Total PUSH_UP reps since %s: %d\n", sinceArg, summary.PushUps)
	fmt.Fprintf(w, "Total PULL_UP reps since %s: %d\n", sinceArg, summary.PullUps)
}

// StrengthTime prints only the strength training time.
func StrengthTime(w io.Writer, sinceArg string, summary *activities.StrengthSummary) {
	fmt.Fprintf(w, "Total strength training time since %s: %.2f minutes\n", sinceArg, summary.MovingMinutes())
}

// UserResults is the report block of one user of the multi user counter.
type UserResults struct {
	SecretName string
	Strength   *activities.StrengthSummary
	Totals     []activities.AggregateResult
}

func UserBlock(w io.Writer, results UserResults) {
	fmt.Fprintf(w, "Results for %s:\n", results.SecretName)
	fmt.Fprintf(w, "Total PUSH_UP reps : %d\n", results.Strength.PushUps)
	fmt.Fprintf(w, "Total PULL_UP reps : %d\n", results.Strength.PullUps)
	for _, total := range results.Totals {
		fmt.Fprintf(w, "Total %s: %.2f %s\n", total.Description, total.Scaled(), total.Unit)
	}
	fmt.Fprintln(w, strings.Repeat("-", separatorWidth))
}

func ActivityTypes(w io.Writer, types []string) {
	fmt.Fprintln(w, "Activity Types:")
	for _, t := range types {
		fmt.Fprintln(w, t)
	}
}

// LatestActivity prints the full record of the activity as indented json,
// or a not found line when act is nil.
func LatestActivity(w io.Writer, typeKey string, act *activities.Activity) error {
	if act == nil {
		fmt.Fprintf(w, "No %s activities found.\n", typeKey)
		return nil
	}

	record, err := json.Marshal(act)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, record, "", "    "); err != nil {
		return fmt.Errorf("indent activity: %w", err)
	}

	fmt.Fprintf(w, "Latest %s Activity:\n", TypeTitle(typeKey))
	fmt.Fprintln(w, indented.String())
	return nil
}

// TypeTitle turns a type key into its display name, strength_training -> Strength Training.
func TypeTitle(typeKey string) string {
	words := strings.Split(typeKey, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
