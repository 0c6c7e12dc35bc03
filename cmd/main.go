// Command divproxy listens on a port, fetches base URL + request path for every
// request, and strips the <div> elements named by fingerprints before answering:
//
//	divproxy -u 'https://www.merriam-webster.com' -p 3000 \
//	  -f 'id="definition-right-rail"' \
//	  -f 'class="border-box mobile-fixed-ad"' \
//	  -f 'class="abl mw-ad-slot-top"'
//
// Then open http://localhost:3000/dictionary/time.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/andesco/divproxy/handlers"
	"github.com/andesco/divproxy/pkg/excise"
	"github.com/andesco/divproxy/pkg/fetcher"
	"github.com/andesco/divproxy/pkg/filter"
	"github.com/andesco/divproxy/pkg/proxylib"
	"github.com/andesco/divproxy/pkg/ruleset"

	"github.com/akamensky/argparse"
)

func main() {
	cfg, err := parseArgs(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type config struct {
	BaseURL      string
	Host         string
	Port         int
	Fingerprints []string
	RulesetPath  string
	Tag          string
	ScanLimit    int
	Match        string
	Timeout      time.Duration
	UserAgent    string
	ForwardedFor string
	Verbose      bool
}

func parseArgs(args []string) (*config, error) {
	parser := argparse.NewParser("divproxy", "Reverse proxy that strips fingerprinted <div> elements from upstream pages")

	baseURL := parser.String("u", "url", &argparse.Options{
		Default: os.Getenv("UPSTREAM_URL"),
		Help:    "Upstream base URL. Alternatively set UPSTREAM_URL",
	})
	port := parser.Int("p", "port", &argparse.Options{
		Default: getenvInt("PORT", 3000),
		Help:    "Port the proxy listens on. Alternatively set PORT",
	})
	host := parser.String("b", "host", &argparse.Options{
		Default: getenv("HOST", "127.0.0.1"),
		Help:    "Address the proxy binds to. Alternatively set HOST",
	})
	fingerprints := parser.StringList("f", "fingerprint", &argparse.Options{
		Help: "Attribute fingerprint of an element to remove, e.g. 'id=\"ad\"'. Repeat to remove several, applied in order",
	})
	rulesetPath := parser.String("r", "ruleset", &argparse.Options{
		Default: os.Getenv("RULESET"),
		Help:    "';'-separated YAML ruleset files or directories. Alternatively set RULESET",
	})
	tag := parser.String("T", "tag", &argparse.Options{
		Default: excise.DefaultTag,
		Help:    "Container tag fingerprints refer to",
	})
	scanLimit := parser.Int("s", "scan-limit", &argparse.Options{
		Default: excise.DefaultScanLimit,
		Help:    "Bytes scanned past an element's start for its closing tag",
	})
	match := parser.Selector("m", "match", []string{"literal", "attributes"}, &argparse.Options{
		Default: "literal",
		Help:    "Fingerprint matching: literal substring or attribute set",
	})
	timeout := parser.Int("t", "timeout", &argparse.Options{
		Default: getenvInt("HTTP_TIMEOUT", int(fetcher.DefaultTimeout/time.Second)),
		Help:    "Upstream timeout in seconds. Alternatively set HTTP_TIMEOUT",
	})
	userAgent := parser.String("a", "user-agent", &argparse.Options{
		Default: os.Getenv("USER_AGENT"),
		Help:    "User-Agent sent upstream. Alternatively set USER_AGENT",
	})
	forwardedFor := parser.String("x", "forwarded-for", &argparse.Options{
		Default: os.Getenv("X_FORWARDED_FOR"),
		Help:    "X-Forwarded-For sent upstream. Alternatively set X_FORWARDED_FOR",
	})
	verbose := parser.Flag("v", "verbose", &argparse.Options{
		Help: "Log debug output and every request",
	})

	if err := parser.Parse(args); err != nil {
		return nil, fmt.Errorf("%s", parser.Usage(err))
	}
	if *baseURL == "" {
		return nil, fmt.Errorf("%s", parser.Usage("an upstream URL is required (-u or UPSTREAM_URL)"))
	}

	return &config{
		BaseURL:      *baseURL,
		Host:         *host,
		Port:         *port,
		Fingerprints: *fingerprints,
		RulesetPath:  *rulesetPath,
		Tag:          *tag,
		ScanLimit:    *scanLimit,
		Match:        *match,
		Timeout:      time.Duration(*timeout) * time.Second,
		UserAgent:    *userAgent,
		ForwardedFor: *forwardedFor,
		Verbose:      *verbose,
	}, nil
}

func run(cfg *config) error {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	p, err := buildProxy(cfg, logger)
	if err != nil {
		return err
	}

	addr, err := handlers.Addr(cfg.Host, cfg.Port)
	if err != nil {
		return err
	}

	app := handlers.NewApp(p, logger, cfg.Verbose)
	logger.Info("listening", "addr", addr, "upstream", p.BaseURL())
	return app.Listen(addr)
}

func buildProxy(cfg *config, logger *slog.Logger) (*proxylib.Proxy, error) {
	rules, err := ruleset.Load(cfg.RulesetPath)
	if err != nil {
		return nil, err
	}
	if cfg.RulesetPath != "" {
		logger.Info("loaded ruleset", "rules", rules.Count(), "fingerprints", rules.FingerprintCount())
	}

	fingerprints := append(append([]string(nil), cfg.Fingerprints...), rules.Fingerprints()...)
	if len(fingerprints) == 0 {
		logger.Warn("no fingerprints configured, pages are relayed unchanged")
	}

	mode, err := excise.ParseMatchMode(cfg.Match)
	if err != nil {
		return nil, err
	}
	exciser, err := excise.New(
		excise.WithTag(cfg.Tag),
		excise.WithScanLimit(cfg.ScanLimit),
		excise.WithMatchMode(mode),
	)
	if err != nil {
		return nil, err
	}

	chain, err := filter.New(fingerprints,
		filter.WithExciser(exciser),
		filter.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	f := fetcher.New(
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithForwardedFor(cfg.ForwardedFor),
	)

	return proxylib.NewProxy(cfg.BaseURL, f, chain, proxylib.WithLogger(logger))
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
