package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-monitor/config"
	"github.com/aquasecurity/cve-monitor/cvedb"
	"github.com/aquasecurity/cve-monitor/googlechat"
	"github.com/aquasecurity/cve-monitor/monitor"
	"github.com/aquasecurity/cve-monitor/utils"
)

// Run daily from cron with no arguments, which uses the built-in defaults:
//
//	0 10 * * * /usr/local/bin/cve-monitor >> /var/log/cve_monitor.log 2>&1
//
// -config is optional and only needed to override those defaults.
var (
	configPath = flag.String("config", "", "path to a YAML config file (built-in defaults when empty)")
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(afero.NewOsFs(), *configPath); err != nil {
			return xerrors.Errorf("config error: %w", err)
		}
	}
	utils.InitLogger(os.Stderr, utils.ParseLevel(cfg.LogLevel))

	slog.Info("CVE Monitor - Shodan CVEDB started")

	opts := []monitor.Option{
		monitor.WithFilter(cfg.Filter()),
		monitor.WithInterval(cfg.PostInterval),
	}
	if cfg.Progress {
		opts = append(opts, monitor.WithProgress(os.Stderr))
	}

	m := monitor.New(
		cvedb.NewClient(cvedb.WithURL(cfg.CVEDBURL), cvedb.WithTimeout(cfg.FetchTimeout)),
		googlechat.NewClient(cfg.WebhookURL, googlechat.WithTimeout(cfg.PostTimeout)),
		opts...,
	)
	report := m.Run()

	if cfg.Strict && report.FetchErr != nil {
		return xerrors.Errorf("CVEDB fetch failed for %s: %w", report.Date, report.FetchErr)
	}
	return nil
}
