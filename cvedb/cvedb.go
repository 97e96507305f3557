package cvedb

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-monitor/utils"
)

const (
	cvesURL = "https://cvedb.shodan.io/cves"
	timeout = 30 * time.Second
)

type option func(c *Client)

func WithURL(v string) option {
	return func(c *Client) { c.url = v }
}

func WithTimeout(v time.Duration) option {
	return func(c *Client) { c.timeout = v }
}

type Client struct {
	url     string
	timeout time.Duration
}

func NewClient(options ...option) *Client {
	client := &Client{
		url:     cvesURL,
		timeout: timeout,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// FetchByDate returns the CVEs published on date (YYYY-MM-DD). An empty slice with a nil
// error means the feed has no CVEs for that day.
func (c *Client) FetchByDate(date string) ([]CVE, error) {
	u, err := urlWithDate(c.url, date)
	if err != nil {
		return nil, err
	}

	slog.Info("Fetching CVEs", "date", date)
	b, err := utils.FetchURL(u, c.timeout)
	if err != nil {
		return nil, xerrors.Errorf("failed to fetch CVEs for %s: %w", date, err)
	}

	var res Response
	if err = json.Unmarshal(b, &res); err != nil {
		return nil, xerrors.Errorf("failed to decode CVEDB response: %w", err)
	}
	if res.CVEs == nil {
		res.CVEs = []CVE{}
	}

	slog.Info("Found CVEs", "date", date, "count", len(res.CVEs))
	return res.CVEs, nil
}

func urlWithDate(baseURL, date string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", xerrors.Errorf("unable to parse %q base url: %w", baseURL, err)
	}
	q := u.Query()
	q.Set("start_date", date)
	q.Set("end_date", date)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
