package utils

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/parnurzeal/gorequest"
	"golang.org/x/xerrors"
)

const dateFormat = "2006-01-02"

// Yesterday returns the calendar day before now's local date in YYYY-MM-DD format
func Yesterday(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(dateFormat)
}

// TrimSpaceNewline deletes space character and newline character(CR/LF)
func TrimSpaceNewline(str string) string {
	str = strings.TrimSpace(str)
	return strings.Trim(str, "\r\n")
}

// FetchURL returns the HTTP response body. Gzip-encoded bodies are inflated.
func FetchURL(url string, timeout time.Duration) ([]byte, error) {
	req := gorequest.New().Get(url).Timeout(timeout).Set("Accept-Encoding", "gzip")

	resp, body, errs := req.Type("text").EndBytes()
	if len(errs) > 0 {
		return nil, xerrors.Errorf("HTTP error. url: %s, err: %w", url, errs[0])
	}
	if !isSuccess(resp.StatusCode) {
		return nil, xerrors.Errorf("HTTP error. status code: %d, url: %s", resp.StatusCode, url)
	}

	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, xerrors.Errorf("gzip error. url: %s, err: %w", url, err)
		}
		defer gr.Close()

		if body, err = io.ReadAll(gr); err != nil {
			return nil, xerrors.Errorf("gzip read error. url: %s, err: %w", url, err)
		}
	}
	return body, nil
}

// PostJSON sends body as-is with a JSON content type
func PostJSON(endpoint string, body []byte, timeout time.Duration) error {
	req := gorequest.New().Post(endpoint).Timeout(timeout).
		Type(gorequest.TypeText).
		Set("Content-Type", "application/json; charset=UTF-8").
		Send(string(body))

	// endpoint carries the webhook token, keep it out of errors
	resp, _, errs := req.EndBytes()
	if len(errs) > 0 {
		err := errs[0]
		var uerr *url.Error
		if xerrors.As(err, &uerr) {
			err = uerr.Err
		}
		return xerrors.Errorf("HTTP error: %w", err)
	}
	if !isSuccess(resp.StatusCode) {
		return xerrors.Errorf("HTTP error. status code: %d", resp.StatusCode)
	}
	return nil
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
