package health

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roach88/evolve/internal/audit"
	"github.com/roach88/evolve/internal/config"
	"github.com/roach88/evolve/internal/docsync"
)

// Params carries everything the evaluator inspects. LoadErr is set when
// the record store itself failed to parse; in that case the report
// collapses to the integrity failure, since nothing downstream can be
// trusted.
type Params struct {
	Records []audit.Record
	Archive []audit.Record
	LoadErr error

	Config     config.Config
	Syncer     *docsync.Syncer
	PrimaryRel string

	// Today is the evaluation date in YYYY-MM-DD form.
	Today string
}

const dateLayout = "2006-01-02"

// Evaluate runs all six dimensions and aggregates the result.
func Evaluate(p Params) (*Report, error) {
	if p.LoadErr != nil {
		return finish([]Dimension{{
			Name: "integrity",
			Checks: []Check{{
				Name:   "store-parses",
				Status: StatusFail,
				Detail: p.LoadErr.Error(),
			}},
		}}), nil
	}

	docs, err := checkDocuments(p)
	if err != nil {
		return nil, err
	}
	corruption, err := checkAntiCorruption(p)
	if err != nil {
		return nil, err
	}

	return finish([]Dimension{
		checkIntegrity(p.Records),
		docs,
		checkStructure(p.Records, p.Config.Thresholds),
		checkActivity(p.Records, p.Config.Thresholds, p.Today),
		checkQuality(p.Records),
		corruption,
	}), nil
}

func checkIntegrity(recs []audit.Record) Dimension {
	dim := Dimension{Name: "integrity"}
	dim.Checks = append(dim.Checks, Check{Name: "store-parses", Status: StatusPass})

	unique := StatusPass
	seen := make(map[string]bool, len(recs))
	for _, r := range recs {
		if seen[r.RuleID] {
			unique = StatusFail
		}
		seen[r.RuleID] = true
	}
	dim.Checks = append(dim.Checks, Check{Name: "rule-ids-unique", Status: unique})

	enums := Check{Name: "enum-values", Status: StatusPass}
	counters := Check{Name: "counter-invariants", Status: StatusPass}
	for _, r := range recs {
		if !audit.ValidStatus(r.Status) || !audit.ValidOrigin(r.Origin) {
			enums.Status = StatusFail
			enums.Detail = appendID(enums.Detail, r.RuleID)
		}
		if r.Hit < 0 || r.Vio < 0 || r.Err < 0 || r.Skip < 0 || r.AutoSkip < 0 || r.Err > r.Vio {
			counters.Status = StatusFail
			counters.Detail = appendID(counters.Detail, r.RuleID)
		}
	}
	dim.Checks = append(dim.Checks, enums, counters)

	convention := Check{Name: "platform-convention", Status: StatusPass}
	for _, r := range recs {
		generic := audit.CanonicalPlatform(r.Platform) == audit.PlatformAll
		switch {
		case !r.IsPlatformRule() && !generic:
			convention.Status = StatusFail
			convention.Detail = appendID(convention.Detail, r.RuleID)
		case r.IsPlatformRule() && generic:
			// Convention says S- rows should carry a specific platform.
			if convention.Status == StatusPass {
				convention.Status = StatusWarn
			}
			convention.Detail = appendID(convention.Detail, r.RuleID)
		}
	}
	dim.Checks = append(dim.Checks, convention)
	return dim
}

func checkDocuments(p Params) (Dimension, error) {
	dim := Dimension{Name: "documents"}

	statuses, err := p.Syncer.InspectBlocks(p.Records)
	if err != nil {
		return dim, err
	}

	present := Check{Name: "blocks-present", Status: StatusPass}
	fresh := Check{Name: "blocks-fresh", Status: StatusPass}
	for _, st := range statuses {
		if !st.DocExists || !st.HasBlock {
			present.Status = StatusWarn
			present.Detail = appendID(present.Detail, st.Platform)
			continue
		}
		if !st.Fresh {
			fresh.Status = StatusFail
			fresh.Detail = appendID(fresh.Detail, st.Platform)
		}
	}
	dim.Checks = append(dim.Checks, present, fresh)

	stale, err := p.Syncer.InlineTagsStale(p.Records, p.PrimaryRel)
	if err != nil {
		return dim, err
	}
	tags := Check{Name: "inline-tags-current", Status: StatusPass}
	if stale {
		tags.Status = StatusWarn
		tags.Detail = "primary document carries outdated metric tags"
	}
	dim.Checks = append(dim.Checks, tags)
	return dim, nil
}

func checkStructure(recs []audit.Record, t config.Thresholds) Dimension {
	dim := Dimension{Name: "structure"}

	count := Check{Name: "rule-count", Status: StatusPass,
		Detail: fmt.Sprintf("%d rules", len(recs))}
	if len(recs) < t.RulesMin || len(recs) > t.RulesMax {
		count.Status = StatusWarn
	}
	dim.Checks = append(dim.Checks, count)

	concentration := Check{Name: "scope-concentration", Status: StatusPass}
	if len(recs) > 0 {
		byScope := make(map[string]int)
		for _, r := range recs {
			byScope[r.Scope]++
		}
		for scope, n := range byScope {
			if share := float64(n) / float64(len(recs)); share > t.ScopeConcentration {
				concentration.Status = StatusWarn
				concentration.Detail = fmt.Sprintf("%s holds %.0f%% of rules", scope, share*100)
			}
		}
	}
	dim.Checks = append(dim.Checks, concentration)

	origins := make(map[audit.Origin]bool)
	for _, r := range recs {
		origins[r.Origin] = true
	}
	diversity := Check{Name: "origin-diversity", Status: StatusPass}
	if len(recs) > 1 && len(origins) < 2 {
		diversity.Status = StatusWarn
		diversity.Detail = "all rules share one origin"
	}
	dim.Checks = append(dim.Checks, diversity)

	active := 0
	for _, r := range recs {
		if r.Status == audit.StatusActive || r.Status == audit.StatusProtected {
			active++
		}
	}
	distribution := Check{Name: "status-distribution", Status: StatusPass}
	if len(recs) > 0 && active == 0 {
		distribution.Status = StatusFail
		distribution.Detail = "no active rules remain"
	}
	dim.Checks = append(dim.Checks, distribution)
	return dim
}

func checkActivity(recs []audit.Record, t config.Thresholds, today string) Dimension {
	dim := Dimension{Name: "activity"}

	now, nowErr := time.Parse(dateLayout, today)
	stale := 0
	covered := 0
	considered := 0
	for _, r := range recs {
		if r.Status != audit.StatusActive && r.Status != audit.StatusProtected {
			continue
		}
		considered++
		reviewed, err := time.Parse(dateLayout, r.LastReviewed)
		if nowErr != nil || err != nil {
			stale++
			continue
		}
		if now.Sub(reviewed) > time.Duration(t.StaleDays)*24*time.Hour {
			stale++
		} else {
			covered++
		}
	}

	staleness := Check{Name: "staleness", Status: StatusPass}
	if stale > 0 {
		staleness.Detail = fmt.Sprintf("%d of %d rules unreviewed for over %d days", stale, considered, t.StaleDays)
		if stale*2 > considered {
			staleness.Status = StatusFail
		} else {
			staleness.Status = StatusWarn
		}
	}
	dim.Checks = append(dim.Checks, staleness)

	coverage := Check{Name: "review-coverage", Status: StatusPass}
	if considered > 0 {
		share := float64(covered) / float64(considered)
		coverage.Detail = fmt.Sprintf("%.0f%% reviewed within window", share*100)
		switch {
		case share >= 0.7:
		case share >= 0.3:
			coverage.Status = StatusWarn
		default:
			coverage.Status = StatusFail
		}
	}
	dim.Checks = append(dim.Checks, coverage)

	backlog := 0
	for _, r := range recs {
		if r.Status == audit.StatusReview {
			backlog++
		}
	}
	backlogCheck := Check{Name: "review-backlog", Status: StatusPass}
	if backlog >= t.ReviewBacklog {
		backlogCheck.Status = StatusWarn
		backlogCheck.Detail = fmt.Sprintf("%d rules awaiting review", backlog)
	}
	dim.Checks = append(dim.Checks, backlogCheck)
	return dim
}

func checkQuality(recs []audit.Record) Dimension {
	dim := Dimension{Name: "quality"}

	sum := 0.0
	defined := 0
	for _, r := range recs {
		if cr, ok := audit.Compliance(r); ok {
			sum += cr
			defined++
		}
	}
	compliance := Check{Name: "aggregate-compliance", Status: StatusPass}
	if defined > 0 {
		mean := sum / float64(defined)
		compliance.Detail = fmt.Sprintf("mean compliance %.2f", mean)
		switch {
		case mean >= 0.8:
		case mean >= 0.5:
			compliance.Status = StatusWarn
		default:
			compliance.Status = StatusFail
		}
	} else {
		compliance.Detail = "no scored rules yet"
	}
	dim.Checks = append(dim.Checks, compliance)

	active := 0
	risky := 0
	lowValue := 0
	protected := 0
	for _, r := range recs {
		switch r.Status {
		case audit.StatusActive:
			active++
		case audit.StatusProtected:
			protected++
		}
		for _, tag := range audit.Tags(r) {
			if tag == audit.TagHighRisk || tag == audit.TagNeedsRewrite {
				risky++
				break
			}
		}
		if audit.LowValueSuspect(r) {
			lowValue++
		}
	}

	risk := Check{Name: "risk-proportion", Status: StatusPass}
	if len(recs) > 0 {
		share := float64(risky) / float64(len(recs))
		if share > 0 {
			risk.Detail = fmt.Sprintf("%d of %d rules flagged risky", risky, len(recs))
		}
		switch {
		case share <= 0.2:
		case share <= 0.4:
			risk.Status = StatusWarn
		default:
			risk.Status = StatusFail
		}
	}
	dim.Checks = append(dim.Checks, risk)

	low := Check{Name: "low-value-suspicion", Status: StatusPass}
	if lowValue > 0 {
		low.Status = StatusWarn
		low.Detail = fmt.Sprintf("%d rules heavily hit but never violated", lowValue)
	}
	dim.Checks = append(dim.Checks, low)

	prot := Check{Name: "protected-share", Status: StatusPass}
	if len(recs) > 0 && float64(protected)/float64(len(recs)) > 0.5 {
		prot.Status = StatusWarn
		prot.Detail = "over half the table is protected"
	}
	dim.Checks = append(dim.Checks, prot)
	return dim
}

func checkAntiCorruption(p Params) (Dimension, error) {
	dim := Dimension{Name: "anti-corruption"}

	zero := 0
	empties := Check{Name: "required-fields", Status: StatusPass}
	for _, r := range p.Records {
		if r.Hit == 0 && r.Vio == 0 && r.Err == 0 && r.Skip == 0 && r.AutoSkip == 0 {
			zero++
		}
		if strings.TrimSpace(r.Scope) == "" || strings.TrimSpace(r.Title) == "" {
			empties.Status = StatusFail
			empties.Detail = appendID(empties.Detail, r.RuleID)
		}
	}
	zeroCheck := Check{Name: "zero-counter-rows", Status: StatusPass}
	if zero > 0 {
		zeroCheck.Detail = fmt.Sprintf("%d rules never touched", zero)
		if zero*2 > len(p.Records) {
			zeroCheck.Status = StatusFail
		} else {
			zeroCheck.Status = StatusWarn
		}
	}
	dim.Checks = append(dim.Checks, zeroCheck, empties)

	refs, err := p.Syncer.ScanRuleIDRefs()
	if err != nil {
		return dim, err
	}
	known := make(map[string]bool, len(p.Records)+len(p.Archive))
	for _, r := range p.Records {
		known[r.RuleID] = true
	}
	for _, r := range p.Archive {
		known[r.RuleID] = true
	}
	var dangling []string
	for id := range refs {
		if !known[id] {
			dangling = append(dangling, id)
		}
	}
	sort.Strings(dangling)
	refCheck := Check{Name: "dangling-references", Status: StatusPass}
	if len(dangling) > 0 {
		refCheck.Status = StatusFail
		refCheck.Detail = strings.Join(dangling, ", ")
	}
	dim.Checks = append(dim.Checks, refCheck)
	return dim, nil
}

func appendID(detail, id string) string {
	if detail == "" {
		return id
	}
	return detail + ", " + id
}
