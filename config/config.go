package config

import (
	"os"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/aquasecurity/cve-monitor/alert"
	"github.com/aquasecurity/cve-monitor/utils"
)

const (
	// replace with the incoming webhook of the target space
	defaultWebhookURL = "https://chat.googleapis.com/v1/spaces/YOUR_SPACE/messages?key=YOUR_KEY&token=YOUR_TOKEN"
	defaultCVEDBURL   = "https://cvedb.shodan.io/cves"
)

type Config struct {
	WebhookURL string `yaml:"webhook_url"`
	CVEDBURL   string `yaml:"cvedb_url"`

	// MinCVSSScore and Keywords are unset when nil
	MinCVSSScore *float64 `yaml:"min_cvss_score"`
	Keywords     []string `yaml:"keywords"`

	PostInterval time.Duration `yaml:"post_interval"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	PostTimeout  time.Duration `yaml:"post_timeout"`

	// Strict turns a failed feed fetch into a failed run
	Strict   bool   `yaml:"strict"`
	Progress bool   `yaml:"progress"`
	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		WebhookURL:   defaultWebhookURL,
		CVEDBURL:     defaultCVEDBURL,
		PostInterval: time.Second,
		FetchTimeout: 30 * time.Second,
		PostTimeout:  10 * time.Second,
		LogLevel:     "info",
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep their default.
func Load(fs afero.Fs, path string) (Config, error) {
	c := Default()

	b, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, xerrors.Errorf("config file %s not found: %w", path, err)
		}
		return Config{}, xerrors.Errorf("unable to read %s: %w", path, err)
	}
	if err = yaml.UnmarshalStrict(b, &c); err != nil {
		return Config{}, xerrors.Errorf("unable to parse %s: %w", path, err)
	}

	c.WebhookURL = utils.TrimSpaceNewline(c.WebhookURL)
	c.CVEDBURL = utils.TrimSpaceNewline(c.CVEDBURL)

	if err = c.Validate(); err != nil {
		return Config{}, xerrors.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

func (c Config) Validate() error {
	switch {
	case c.WebhookURL == "":
		return xerrors.New("webhook_url is required")
	case c.CVEDBURL == "":
		return xerrors.New("cvedb_url is required")
	case c.MinCVSSScore != nil && (*c.MinCVSSScore < 0 || *c.MinCVSSScore > 10):
		return xerrors.Errorf("min_cvss_score must be between 0 and 10: %v", *c.MinCVSSScore)
	case c.PostInterval < 0:
		return xerrors.Errorf("post_interval must not be negative: %s", c.PostInterval)
	case c.FetchTimeout <= 0:
		return xerrors.Errorf("fetch_timeout must be positive: %s", c.FetchTimeout)
	case c.PostTimeout <= 0:
		return xerrors.Errorf("post_timeout must be positive: %s", c.PostTimeout)
	}
	return nil
}

func (c Config) Filter() alert.Filter {
	return alert.NewFilter(c.MinCVSSScore, c.Keywords)
}
