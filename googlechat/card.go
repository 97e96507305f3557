package googlechat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/samber/lo"

	"github.com/aquasecurity/cve-monitor/cvedb"
	"github.com/aquasecurity/cve-monitor/severity"
)

const (
	iconURL        = "https://www.shodan.io/static/img/shodan-icon.png"
	shodanCVEURL   = "https://cvedb.shodan.io/cve/%s"
	nvdCVEURL      = "https://nvd.nist.gov/vuln/detail/%s"
	publishedFmt   = "Jan 02, 2006 15:04 UTC"
	generatedFmt   = "Jan 02, 2006 15:04"
	maxSummaryLen  = 500
	maxRefLen      = 60
	maxRefsInline  = 3
	refsWhenCapped = 2
	highActivity   = 10
)

var isoTimestamp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([T ]\d{2}:\d{2}(:\d{2}(\.\d+)?)?)?(Z|[+-]\d{2}:?\d{2})?$`)

// CVECard renders one CVE as a card message
func CVECard(cve cvedb.CVE) Message {
	id := cve.CveID
	if id == "" {
		id = "Unknown"
	}
	summary := cve.Summary
	if summary == "" {
		summary = "No description available"
	}

	score, scored := severity.Score(cve)
	level := severity.FromScore(score, scored)
	emoji := level.Emoji()

	scoreText := "N/A"
	severityText := emoji + " Not Scored"
	if scored {
		scoreText = formatScore(score)
		severityText = fmt.Sprintf("%s %s", emoji, level)
	}

	widgets := []Widget{
		{DecoratedText: &DecoratedText{
			StartIcon:   &Icon{KnownIcon: "STAR"},
			TopLabel:    "Severity",
			Text:        "<b>" + severityText + "</b>",
			BottomLabel: "CVSS Score: " + scoreText,
		}},
		{DecoratedText: &DecoratedText{
			StartIcon: &Icon{KnownIcon: "CLOCK"},
			TopLabel:  "Published",
			Text:      published(cve.PublishedTime),
		}},
		{Divider: &Divider{}},
		{TextParagraph: &TextParagraph{
			Text: "<b>Description:</b><br>" + truncate(summary, maxSummaryLen),
		}},
	}

	if len(cve.References) > 0 {
		widgets = append(widgets,
			Widget{Divider: &Divider{}},
			Widget{TextParagraph: &TextParagraph{
				Text: "<b>References:</b><br>" + references(cve.References),
			}},
		)
	}

	widgets = append(widgets,
		Widget{Divider: &Divider{}},
		Widget{ButtonList: &ButtonList{
			Buttons: []Button{
				linkButton("View on Shodan", fmt.Sprintf(shodanCVEURL, id)),
				linkButton("View on NVD", fmt.Sprintf(nvdCVEURL, id)),
			},
		}},
	)

	return Message{
		CardsV2: []CardWithID{{
			CardID: id,
			Card: Card{
				Header: Header{
					Title:     fmt.Sprintf("%s %s", emoji, id),
					Subtitle:  fmt.Sprintf("%s Severity", level),
					ImageURL:  iconURL,
					ImageType: "CIRCLE",
				},
				Sections: []Section{{Widgets: widgets}},
			},
		}},
	}
}

// SummaryCard renders the daily report for date
func SummaryCard(date string, total, posted int, now time.Time) Message {
	var emoji, text string
	switch {
	case posted == 0:
		emoji, text = "✅", "No new CVEs to report"
	case posted < highActivity:
		emoji, text = "📊", fmt.Sprintf("Found %d new CVE(s)", posted)
	default:
		emoji, text = "⚠️", fmt.Sprintf("High activity: %d new CVE(s)", posted)
	}

	return Message{
		CardsV2: []CardWithID{{
			CardID: "summary-" + date,
			Card: Card{
				Header: Header{
					Title:    emoji + " Daily CVE Report",
					Subtitle: date,
				},
				Sections: []Section{{
					Widgets: []Widget{
						{DecoratedText: &DecoratedText{
							StartIcon: &Icon{KnownIcon: "DESCRIPTION"},
							Text:      "<b>" + text + "</b>",
						}},
						{DecoratedText: &DecoratedText{
							StartIcon: &Icon{KnownIcon: "CLOCK"},
							TopLabel:  "Report Generated",
							Text:      now.Format(generatedFmt),
						}},
						{TextParagraph: &TextParagraph{
							Text: fmt.Sprintf("<i>Total CVEs found: %d<br>CVEs posted: %d</i>", total, posted),
						}},
					},
				}},
			},
		}},
	}
}

// published formats an ISO-8601 timestamp in its own wall-clock time, returning anything
// else untouched
func published(s *string) string {
	if s == nil {
		return "Unknown"
	}
	if !isoTimestamp.MatchString(*s) {
		return *s
	}
	t, err := dateparse.ParseIn(*s, time.UTC)
	if err != nil {
		return *s
	}
	return t.Format(publishedFmt)
}

// formatScore always keeps one decimal place for whole numbers, e.g. 5.0 and 10.0
func formatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func references(refs []string) string {
	shown := refs
	if len(refs) > maxRefsInline {
		shown = lo.Slice(refs, 0, refsWhenCapped)
	}

	lines := lo.Map(shown, func(ref string, _ int) string {
		display := ref
		if r := []rune(ref); len(r) > maxRefLen {
			display = string(r[:maxRefLen]) + "..."
		}
		return fmt.Sprintf("• <a href='%s'>%s</a>", ref, display)
	})

	text := strings.Join(lines, "<br>")
	if len(refs) > maxRefsInline {
		text += fmt.Sprintf("<br><i>...and %d more references</i>", len(refs)-refsWhenCapped)
	}
	return text
}

// truncate cuts s to limit characters, the last three being an ellipsis
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func linkButton(text, url string) Button {
	return Button{
		Text:    text,
		OnClick: OnClick{OpenLink: OpenLink{URL: url}},
	}
}
