package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func load(t *testing.T, doc string) config {
	t.Helper()

	r, err := resolve(t.Context())(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}

	cfg, ok := r.(config)
	if !ok {
		t.Fatalf("expected config, got %T", r)
	}

	return cfg
}

func TestResolveFlatten(t *testing.T) {
	cfg := load(t, `
log-level: debug
log:
  format: json
  time_layout: kitchen
limit_iterators: 100
without: [host, strings]
Delegates: true
empty:
`)

	tests := []struct {
		key  string
		want any
	}{
		{"log-level", "debug"},
		{"log-format", "json"},
		{"log-time-layout", "kitchen"},
		{"limit-iterators", "100"},
		{"without", "host,strings"},
		{"delegates", true},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := cfg[tt.key]
			if !ok {
				t.Fatalf("expected key %q in %v", tt.key, cfg)
			}

			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestResolveInvalid(t *testing.T) {
	for _, doc := range []string{"", "a: [1, 2", "- just\n- a list\n"} {
		if cfg := load(t, doc); len(cfg) != 0 {
			t.Errorf("expected empty config for %q, got %v", doc, cfg)
		}
	}
}

func TestResolveFlags(t *testing.T) {
	var cli struct {
		LogLevel       string   `default:"info"`
		LimitIterators int      `default:"-1"`
		Without        []string
	}

	parser, err := kong.New(&cli,
		kong.Resolvers(load(t, "log:\n  level: warn\nlimit_iterators: 7\nwithout: [host]\n")),
	)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse([]string{"--limit-iterators=9"}); err != nil {
		t.Fatal(err)
	}

	if cli.LogLevel != "warn" {
		t.Errorf("expected warn, got %q", cli.LogLevel)
	}

	if cli.LimitIterators != 9 {
		t.Errorf("expected the command line to win, got %d", cli.LimitIterators)
	}

	if len(cli.Without) != 1 || cli.Without[0] != "host" {
		t.Errorf("expected [host], got %v", cli.Without)
	}
}
