package monitor

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/aquasecurity/cve-monitor/alert"
	"github.com/aquasecurity/cve-monitor/cvedb"
	"github.com/aquasecurity/cve-monitor/googlechat"
	"github.com/aquasecurity/cve-monitor/utils"
)

const interval = time.Second

type Fetcher interface {
	FetchByDate(date string) ([]cvedb.CVE, error)
}

type Poster interface {
	Post(msg googlechat.Message) error
}

// Report describes a finished run. FetchErr is set when the feed could not be read, in which
// case Total is 0 just like on a day without CVEs.
type Report struct {
	Date       string
	Total      int
	Posted     int
	Failed     int
	FetchErr   error
	SummaryErr error
}

type Option func(m *Monitor)

func WithFilter(v alert.Filter) Option {
	return func(m *Monitor) { m.filter = v }
}

// WithInterval sets the pause between two posted CVEs
func WithInterval(v time.Duration) Option {
	return func(m *Monitor) { m.interval = v }
}

func WithClock(v func() time.Time) Option {
	return func(m *Monitor) { m.now = v }
}

func WithSleep(v func(time.Duration)) Option {
	return func(m *Monitor) { m.sleep = v }
}

// WithProgress renders a progress bar over the fetched CVEs to w
func WithProgress(w io.Writer) Option {
	return func(m *Monitor) { m.progress = w }
}

type Monitor struct {
	fetcher  Fetcher
	poster   Poster
	filter   alert.Filter
	interval time.Duration
	now      func() time.Time
	sleep    func(time.Duration)
	progress io.Writer
}

func New(fetcher Fetcher, poster Poster, options ...Option) *Monitor {
	m := &Monitor{
		fetcher:  fetcher,
		poster:   poster,
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Run posts yesterday's CVEs followed by a summary. Failures are logged and never stop the run.
func (m *Monitor) Run() Report {
	date := utils.Yesterday(m.now())
	slog.Info("Checking CVEs for yesterday", "date", date)
	report := Report{Date: date}

	cves, err := m.fetcher.FetchByDate(date)
	if err != nil {
		slog.Error("Error fetching CVEs", "date", date, "err", err)
		report.FetchErr = err
		cves = nil
	}
	report.Total = len(cves)

	if len(cves) == 0 {
		slog.Info("No CVEs found for yesterday", "date", date)
		report.SummaryErr = m.postSummary(report)
		return report
	}

	bar := m.startBar(len(cves))
	for i, cve := range cves {
		if m.filter.ShouldAlert(cve) {
			id := cve.CveID
			if id == "" {
				id = fmt.Sprintf("CVE-%d", i)
			}

			slog.Debug("Posting CVE", "cve", id)
			if err := m.poster.Post(googlechat.CVECard(cve)); err != nil {
				report.Failed++
				slog.Error("Failed to post CVE", "cve", id, "err", err)
			} else {
				report.Posted++
				slog.Info("Posted CVE", "cve", id)
			}

			if i < len(cves)-1 {
				m.sleep(m.interval)
			}
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	report.SummaryErr = m.postSummary(report)
	slog.Info("Completed", "date", date, "total", report.Total, "posted", report.Posted, "failed", report.Failed)
	return report
}

func (m *Monitor) postSummary(report Report) error {
	msg := googlechat.SummaryCard(report.Date, report.Total, report.Posted, m.now())
	if err := m.poster.Post(msg); err != nil {
		slog.Error("Failed to post summary", "date", report.Date, "err", err)
		return err
	}
	return nil
}

func (m *Monitor) startBar(total int) *pb.ProgressBar {
	if m.progress == nil {
		return nil
	}
	bar := pb.New(total)
	bar.SetWriter(m.progress)
	return bar.Start()
}
