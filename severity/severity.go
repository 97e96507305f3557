package severity

import "github.com/aquasecurity/cve-monitor/cvedb"

type Level string

const (
	Critical Level = "CRITICAL"
	High     Level = "HIGH"
	Medium   Level = "MEDIUM"
	Low      Level = "LOW"
	Unknown  Level = "Unknown"
)

var emojis = map[Level]string{
	Critical: "🔴",
	High:     "🟠",
	Medium:   "🟡",
	Low:      "🟢",
	Unknown:  "⚪",
}

// Score returns the CVSS v3 score, falling back to v2. ok is false when neither is set.
func Score(cve cvedb.CVE) (score float64, ok bool) {
	if cve.CvssV3 != nil {
		return *cve.CvssV3, true
	}
	if cve.CvssV2 != nil {
		return *cve.CvssV2, true
	}
	return 0, false
}

func FromScore(score float64, ok bool) Level {
	switch {
	case !ok:
		return Unknown
	case score >= 9.0:
		return Critical
	case score >= 7.0:
		return High
	case score >= 4.0:
		return Medium
	default:
		return Low
	}
}

func Of(cve cvedb.CVE) Level {
	return FromScore(Score(cve))
}

// Emoji returns the display glyph, white for anything unrecognized
func (l Level) Emoji() string {
	if e, ok := emojis[l]; ok {
		return e
	}
	return emojis[Unknown]
}
