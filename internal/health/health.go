// Package health audits the whole system across six independent
// dimensions and aggregates the result into a single score and letter
// grade. WARN results are advisory findings, not errors; only the
// optional fail-under threshold turns a poor score into a failure.
package health

// CheckStatus is the outcome of one health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// Score maps a check outcome to its numeric contribution.
func (s CheckStatus) Score() float64 {
	switch s {
	case StatusPass:
		return 1.0
	case StatusWarn:
		return 0.5
	default:
		return 0.0
	}
}

// Check is one audited property.
type Check struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// Dimension groups the checks of one audit category.
type Dimension struct {
	Name   string  `json:"name"`
	Checks []Check `json:"checks"`
	Score  float64 `json:"score"`
}

// Report is the full evaluation result.
type Report struct {
	Dimensions []Dimension `json:"dimensions"`
	Checks     int         `json:"checks"`
	Score      float64     `json:"score"`
	Grade      string      `json:"grade"`
}

// Grade maps an aggregate score to a letter grade.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 60:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "F"
	}
}

// finish computes per-dimension and aggregate scores. The aggregate is
// the unweighted mean over every individual check.
func finish(dims []Dimension) *Report {
	total := 0.0
	count := 0
	for i := range dims {
		dimTotal := 0.0
		for _, c := range dims[i].Checks {
			dimTotal += c.Status.Score()
			total += c.Status.Score()
			count++
		}
		if n := len(dims[i].Checks); n > 0 {
			dims[i].Score = dimTotal / float64(n) * 100
		}
	}
	report := &Report{Dimensions: dims, Checks: count}
	if count > 0 {
		report.Score = total / float64(count) * 100
	}
	report.Grade = Grade(report.Score)
	return report
}
