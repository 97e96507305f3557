package googlechat

import (
	"bytes"
	"encoding/json"
	"time"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-monitor/utils"
)

const timeout = 10 * time.Second

type option func(c *Client)

func WithTimeout(v time.Duration) option {
	return func(c *Client) { c.timeout = v }
}

// Client posts messages to a single incoming webhook
type Client struct {
	webhookURL string
	timeout    time.Duration
}

func NewClient(webhookURL string, options ...option) *Client {
	client := &Client{
		webhookURL: webhookURL,
		timeout:    timeout,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

func (c *Client) Post(msg Message) error {
	b, err := Marshal(msg)
	if err != nil {
		return err
	}
	if err = utils.PostJSON(c.webhookURL, b, c.timeout); err != nil {
		return xerrors.Errorf("failed to post to Google Chat: %w", err)
	}
	return nil
}

// Marshal encodes msg without escaping the HTML markup in widget text
func Marshal(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msg); err != nil {
		return nil, xerrors.Errorf("failed to marshal message: %w", err)
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}
