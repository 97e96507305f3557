package cvedb

type Response struct {
	CVEs []CVE `json:"cves"`
}

// CVE is a record as returned by the CVEDB /cves endpoint. Scores are nil when the
// scheme was never assigned.
type CVE struct {
	CveID         string   `json:"cve_id"`
	Summary       string   `json:"summary"`
	CvssV3        *float64 `json:"cvss_v3"`
	CvssV2        *float64 `json:"cvss_v2"`
	PublishedTime *string  `json:"published_time"`
	References    []string `json:"references"`
}
