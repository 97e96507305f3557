package alert

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"

	"github.com/aquasecurity/cve-monitor/cvedb"
	"github.com/aquasecurity/cve-monitor/severity"
)

// Filter decides which CVEs are posted. The zero value admits everything.
type Filter struct {
	// MinScore rejects CVEs without a score or scored below it. nil disables the check.
	MinScore *float64
	// Keywords rejects CVEs whose summary contains none of them. Lowercase, empty disables the check.
	// A configured `keywords: []` is therefore treated as unset and admits every CVE.
	Keywords []string
}

// NewFilter lowercases and deduplicates keywords and drops blank ones
func NewFilter(minScore *float64, keywords []string) Filter {
	var kws []string
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kws = append(kws, k)
		}
	}
	slices.Sort(kws)
	return Filter{
		MinScore: minScore,
		Keywords: slices.Compact(kws),
	}
}

func (f Filter) ShouldAlert(cve cvedb.CVE) bool {
	if f.MinScore != nil {
		score, ok := severity.Score(cve)
		if !ok || score < *f.MinScore {
			return false
		}
	}

	if len(f.Keywords) > 0 {
		summary := strings.ToLower(cve.Summary)
		if !lo.SomeBy(f.Keywords, func(k string) bool {
			return strings.Contains(summary, strings.ToLower(k))
		}) {
			return false
		}
	}

	return true
}
