package binder_test

import (
	"os"
	"path/filepath"
	"testing"

	ms "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/binder"
)

func TestParseDirection(t *testing.T) {
	cases := map[string]binder.Direction{
		"inbound":  binder.Inbound,
		"IN":       binder.Inbound,
		"outbound": binder.Outbound,
		" out ":    binder.Outbound,
		"both":     binder.Both,
		"":         binder.Both,
	}
	for in, want := range cases {
		got, err := binder.ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := binder.ParseDirection("sideways"); err == nil {
		t.Fatalf("unknown direction accepted")
	}
}

func TestDirection_TextRoundTrip(t *testing.T) {
	for _, d := range []binder.Direction{binder.Both, binder.Inbound, binder.Outbound} {
		b, err := d.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText: %v", err)
		}
		var got binder.Direction
		if err := got.UnmarshalText(b); err != nil || got != d {
			t.Fatalf("round trip %v -> %q -> %v (%v)", d, b, got, err)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := binder.ParsePolicy([]byte(`
default = "outbound"

[groups]
Quote = "inbound"
Fill = "both"
`))
	if err != nil {
		t.Fatalf("ParsePolicy: %v", err)
	}
	cases := map[string]binder.Direction{
		"Quote":   binder.Inbound,
		"Fill":    binder.Both,
		"Unknown": binder.Outbound,
	}
	for name, want := range cases {
		if got := p.Direction(ms.NewGroup(name)); got != want {
			t.Errorf("%s: %v, want %v", name, got, want)
		}
	}
}

func TestParsePolicy_Errors(t *testing.T) {
	cases := map[string]string{
		"bad direction": `default = "sideways"`,
		"unknown key":   "default = \"both\"\nstrict = true\n",
		"syntax":        `default = `,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := binder.ParsePolicy([]byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.toml")
	if err := os.WriteFile(path, []byte("default = \"inbound\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := binder.LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if p.Direction(ms.NewGroup("Any")) != binder.Inbound {
		t.Fatalf("default not applied")
	}
	if _, err := binder.LoadPolicy(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}
