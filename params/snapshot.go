package params

import (
	"time"

	"github.com/spf13/viper"

	"github.com/seismolab/noiseq/errors"
)

// DayLayout is the civil-date format used for job reference days.
// Lexicographic order of formatted days equals chronological order.
const DayLayout = "2006-01-02"

// Kind classifies a scheduling parameter value.
type Kind string

const (
	KindDate Kind = "date"
	KindInt  Kind = "int"
	KindBool Kind = "bool" // Y/N, as in the original configuration table
	KindEnum Kind = "enum"
)

// Definition describes one scheduling parameter: its type, whether it must
// be present, and (for enums) the allowed domain.
type Definition struct {
	Name     string
	Kind     Kind
	Required bool
	Choices  []string
	Doc      string
}

// Definitions returns the closed set of scheduling parameters the core
// understands. Unknown keys in the configuration are passed through to the
// scientific collaborators untouched.
func Definitions() []Definition {
	return []Definition{
		{Name: "startdate", Kind: KindDate, Required: true,
			Doc: "first day of the analysis period (YYYY-MM-DD)"},
		{Name: "enddate", Kind: KindDate, Required: true,
			Doc: "last day of the analysis period, inclusive (YYYY-MM-DD)"},
		{Name: "autocorr", Kind: KindBool,
			Doc: "include same-station pairs (Y/N)"},
		{Name: "analysis_duration", Kind: KindInt,
			Doc: "length of one analysis window in seconds"},
		{Name: "keep_days", Kind: KindBool,
			Doc: "keep daily stacks (Y/N); passthrough to processing"},
	}
}

// Snapshot is an immutable, validated view of the scheduling parameters.
// Generator and Scheduler take one per invocation instead of reading shared
// mutable configuration.
type Snapshot struct {
	StartDate        time.Time
	EndDate          time.Time
	AutoCorr         bool
	AnalysisDuration int
	KeepDays         bool
}

// Take validates the scheduling parameters out of v and returns a Snapshot.
// Any missing required key or out-of-domain value fails with ErrConfigInvalid:
// configuration problems fail generation setup, never individual claims.
func Take(v *viper.Viper) (*Snapshot, error) {
	snap := &Snapshot{}

	for _, def := range Definitions() {
		raw := v.GetString(def.Name)
		if raw == "" {
			if def.Required {
				return nil, errors.NewConfigError("required parameter %q is not set", def.Name)
			}
			continue
		}

		switch def.Kind {
		case KindDate:
			t, err := time.Parse(DayLayout, raw)
			if err != nil {
				return nil, errors.NewConfigError("parameter %q: %q is not a %s date", def.Name, raw, DayLayout)
			}
			switch def.Name {
			case "startdate":
				snap.StartDate = t
			case "enddate":
				snap.EndDate = t
			}

		case KindBool:
			var b bool
			switch raw {
			case "Y", "y":
				b = true
			case "N", "n":
				b = false
			default:
				return nil, errors.NewConfigError("parameter %q: %q is not Y or N", def.Name, raw)
			}
			switch def.Name {
			case "autocorr":
				snap.AutoCorr = b
			case "keep_days":
				snap.KeepDays = b
			}

		case KindInt:
			n := v.GetInt(def.Name)
			if n <= 0 {
				return nil, errors.NewConfigError("parameter %q: %q is not a positive integer", def.Name, raw)
			}
			if def.Name == "analysis_duration" {
				snap.AnalysisDuration = n
			}

		case KindEnum:
			ok := false
			for _, c := range def.Choices {
				if raw == c {
					ok = true
					break
				}
			}
			if !ok {
				return nil, errors.NewConfigError("parameter %q: %q not in %v", def.Name, raw, def.Choices)
			}
		}
	}

	if snap.EndDate.Before(snap.StartDate) {
		return nil, errors.NewConfigError("enddate %s is before startdate %s",
			snap.EndDate.Format(DayLayout), snap.StartDate.Format(DayLayout))
	}

	return snap, nil
}

// Days returns every day of the configured range, inclusive, formatted as
// YYYY-MM-DD in ascending order.
func (s *Snapshot) Days() []string {
	var days []string
	for d := s.StartDate; !d.After(s.EndDate); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DayLayout))
	}
	return days
}
