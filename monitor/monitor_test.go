package monitor_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-monitor/alert"
	"github.com/aquasecurity/cve-monitor/cvedb"
	"github.com/aquasecurity/cve-monitor/googlechat"
	"github.com/aquasecurity/cve-monitor/monitor"
)

func float(f float64) *float64 { return &f }

type recorder struct {
	events []string
}

type fakeFetcher struct {
	cves    []cvedb.CVE
	err     error
	gotDate string
}

func (f *fakeFetcher) FetchByDate(date string) ([]cvedb.CVE, error) {
	f.gotDate = date
	return f.cves, f.err
}

type fakePoster struct {
	rec    *recorder
	failOn map[string]bool
	msgs   []googlechat.Message
}

func (p *fakePoster) Post(msg googlechat.Message) error {
	id := msg.CardsV2[0].CardID
	p.rec.events = append(p.rec.events, "post "+id)
	p.msgs = append(p.msgs, msg)
	if p.failOn[id] {
		return xerrors.New("webhook unavailable")
	}
	return nil
}

func (p *fakePoster) summary(t *testing.T) googlechat.CardWithID {
	t.Helper()
	require.NotEmpty(t, p.msgs)
	last := p.msgs[len(p.msgs)-1].CardsV2[0]
	require.True(t, strings.HasPrefix(last.CardID, "summary-"), "last post must be the summary")
	return last
}

func clock() time.Time {
	return time.Date(2024, 1, 16, 10, 0, 0, 0, time.Local)
}

func TestMonitor_Run(t *testing.T) {
	tests := []struct {
		name       string
		cves       []cvedb.CVE
		fetchErr   error
		filter     alert.Filter
		failOn     map[string]bool
		wantEvents []string
		want       monitor.Report
	}{
		{
			name: "no CVEs",
			cves: []cvedb.CVE{},
			wantEvents: []string{
				"post summary-2024-01-15",
			},
			want: monitor.Report{Date: "2024-01-15"},
		},
		{
			name:     "fetch failure reports zero",
			fetchErr: xerrors.New("connection refused"),
			wantEvents: []string{
				"post summary-2024-01-15",
			},
			want: monitor.Report{Date: "2024-01-15", FetchErr: xerrors.New("connection refused")},
		},
		{
			name: "three CVEs without filters",
			cves: []cvedb.CVE{
				{CveID: "CVE-2024-0001", CvssV3: float(9.8)},
				{CveID: "CVE-2024-0002", CvssV2: float(5.0)},
				{CveID: "CVE-2024-0003"},
			},
			wantEvents: []string{
				"post CVE-2024-0001",
				"sleep 1s",
				"post CVE-2024-0002",
				"sleep 1s",
				"post CVE-2024-0003",
				"post summary-2024-01-15",
			},
			want: monitor.Report{Date: "2024-01-15", Total: 3, Posted: 3},
		},
		{
			name: "min score filter",
			cves: []cvedb.CVE{
				{CveID: "CVE-2024-0001", CvssV3: float(5.0)},
				{CveID: "CVE-2024-0002", CvssV3: float(8.0)},
			},
			filter: alert.NewFilter(float(7.0), nil),
			wantEvents: []string{
				"post CVE-2024-0002",
				"post summary-2024-01-15",
			},
			want: monitor.Report{Date: "2024-01-15", Total: 2, Posted: 1},
		},
		{
			name: "pause is kept when only the last CVE is filtered",
			cves: []cvedb.CVE{
				{CveID: "CVE-2024-0001", CvssV3: float(8.0)},
				{CveID: "CVE-2024-0002", CvssV3: float(5.0)},
			},
			filter: alert.NewFilter(float(7.0), nil),
			wantEvents: []string{
				"post CVE-2024-0001",
				"sleep 1s",
				"post summary-2024-01-15",
			},
			want: monitor.Report{Date: "2024-01-15", Total: 2, Posted: 1},
		},
		{
			name: "failed post continues and still pauses",
			cves: []cvedb.CVE{
				{CveID: "CVE-2024-0001", Summary: "linux"},
				{CveID: "CVE-2024-0002", Summary: "Linux"},
				{CveID: "CVE-2024-0003", Summary: "windows"},
			},
			filter: alert.NewFilter(nil, []string{"linux"}),
			failOn: map[string]bool{"CVE-2024-0001": true},
			wantEvents: []string{
				"post CVE-2024-0001",
				"sleep 1s",
				"post CVE-2024-0002",
				"sleep 1s",
				"post summary-2024-01-15",
			},
			want: monitor.Report{Date: "2024-01-15", Total: 3, Posted: 1, Failed: 1},
		},
		{
			name: "summary failure is reported",
			cves: []cvedb.CVE{
				{CveID: "CVE-2024-0001"},
			},
			failOn: map[string]bool{"summary-2024-01-15": true},
			wantEvents: []string{
				"post CVE-2024-0001",
				"post summary-2024-01-15",
			},
			want: monitor.Report{Date: "2024-01-15", Total: 1, Posted: 1, SummaryErr: xerrors.New("webhook unavailable")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			fetcher := &fakeFetcher{cves: tt.cves, err: tt.fetchErr}
			poster := &fakePoster{rec: rec, failOn: tt.failOn}

			m := monitor.New(fetcher, poster,
				monitor.WithFilter(tt.filter),
				monitor.WithClock(clock),
				monitor.WithSleep(func(d time.Duration) {
					rec.events = append(rec.events, "sleep "+d.String())
				}),
			)
			got := m.Run()

			assert.Equal(t, "2024-01-15", fetcher.gotDate)
			assert.Equal(t, tt.wantEvents, rec.events)

			assert.Equal(t, tt.want.Date, got.Date)
			assert.Equal(t, tt.want.Total, got.Total)
			assert.Equal(t, tt.want.Posted, got.Posted)
			assert.Equal(t, tt.want.Failed, got.Failed)
			if tt.want.FetchErr != nil {
				require.Error(t, got.FetchErr)
				assert.Contains(t, got.FetchErr.Error(), tt.want.FetchErr.Error())
			} else {
				assert.NoError(t, got.FetchErr)
			}
			if tt.want.SummaryErr != nil {
				require.Error(t, got.SummaryErr)
				assert.Contains(t, got.SummaryErr.Error(), tt.want.SummaryErr.Error())
			} else {
				assert.NoError(t, got.SummaryErr)
			}

			summary := poster.summary(t)
			assert.Equal(t, "2024-01-15", summary.Card.Header.Subtitle)
			widgets := summary.Card.Sections[0].Widgets
			assert.Equal(t, "Jan 16, 2024 10:00", widgets[1].DecoratedText.Text)
			assert.Contains(t, widgets[2].TextParagraph.Text, "Total CVEs found: "+strconv.Itoa(tt.want.Total))
			assert.Contains(t, widgets[2].TextParagraph.Text, "CVEs posted: "+strconv.Itoa(tt.want.Posted))
		})
	}
}

func TestMonitor_Run_FallbackID(t *testing.T) {
	rec := &recorder{}
	poster := &fakePoster{rec: rec}
	m := monitor.New(&fakeFetcher{cves: []cvedb.CVE{{Summary: "no id"}}}, poster,
		monitor.WithClock(clock),
		monitor.WithSleep(func(time.Duration) { t.Fatal("a single CVE must not pause") }),
	)
	got := m.Run()
	assert.Equal(t, 1, got.Posted)
	assert.Equal(t, []string{"post Unknown", "post summary-2024-01-15"}, rec.events)
}

func TestMonitor_Run_Progress(t *testing.T) {
	var buf bytes.Buffer
	rec := &recorder{}
	m := monitor.New(&fakeFetcher{cves: []cvedb.CVE{{CveID: "CVE-2024-0001"}, {CveID: "CVE-2024-0002"}}}, &fakePoster{rec: rec},
		monitor.WithClock(clock),
		monitor.WithInterval(0),
		monitor.WithSleep(func(time.Duration) {}),
		monitor.WithProgress(&buf),
	)
	got := m.Run()
	assert.Equal(t, 2, got.Posted)
	assert.Contains(t, buf.String(), "2 / 2")
}

// The feed and webhook clients are wired together the way main does it.
func TestMonitor_Run_HTTP(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-01-15", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2024-01-15", r.URL.Query().Get("end_date"))
		_, _ = w.Write([]byte(`{"cves":[
			{"cve_id":"CVE-2024-0001","summary":"Linux kernel bug","cvss_v3":8.8,"references":["https://example.com/a"]},
			{"cve_id":"CVE-2024-0002","summary":"Windows bug","cvss_v3":9.1}
		]}`))
	}))
	defer feed.Close()

	var mu sync.Mutex
	var cardIDs []string
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := new(bytes.Buffer)
		_, err := body.ReadFrom(r.Body)
		require.NoError(t, err)
		mu.Lock()
		defer mu.Unlock()
		switch {
		case strings.Contains(body.String(), `"cardId":"summary-2024-01-15"`):
			cardIDs = append(cardIDs, "summary")
		case strings.Contains(body.String(), `"cardId":"CVE-2024-0001"`):
			cardIDs = append(cardIDs, "CVE-2024-0001")
		default:
			cardIDs = append(cardIDs, "unexpected")
		}
	}))
	defer webhook.Close()

	m := monitor.New(
		cvedb.NewClient(cvedb.WithURL(feed.URL)),
		googlechat.NewClient(webhook.URL+"?key=k&token=t"),
		monitor.WithFilter(alert.NewFilter(nil, []string{"linux"})),
		monitor.WithClock(clock),
		monitor.WithSleep(func(time.Duration) {}),
	)
	got := m.Run()

	assert.NoError(t, got.FetchErr)
	assert.NoError(t, got.SummaryErr)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Posted)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"CVE-2024-0001", "summary"}, cardIDs)
}
