package binder

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/reoring/msgskema"
)

// Direction states how a destination group flows through the program.
type Direction int

const (
	// Both permits decoding and encoding; no shape change is tolerated.
	Both Direction = iota
	// Inbound groups are only decoded.
	Inbound
	// Outbound groups are only encoded.
	Outbound
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "inbound"
	case Outbound:
		return "outbound"
	case Both:
		return "both"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseDirection parses "inbound", "outbound" or "both" (case insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inbound", "in":
		return Inbound, nil
	case "outbound", "out":
		return Outbound, nil
	case "both", "":
		return Both, nil
	}
	return Both, fmt.Errorf("binder: unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// DirectionPolicy chooses the direction of each destination group. Bind
// calls it exactly once per destination group.
type DirectionPolicy interface {
	Direction(g *msgskema.GroupDef) Direction
}

// PolicyFunc adapts a function to DirectionPolicy.
type PolicyFunc func(g *msgskema.GroupDef) Direction

func (f PolicyFunc) Direction(g *msgskema.GroupDef) Direction { return f(g) }

// Fixed applies d to every group.
func Fixed(d Direction) DirectionPolicy {
	return PolicyFunc(func(*msgskema.GroupDef) Direction { return d })
}

// PolicyMap assigns directions per group name, falling back to Default.
type PolicyMap struct {
	Default Direction            `toml:"default"`
	Groups  map[string]Direction `toml:"groups"`
}

func (p PolicyMap) Direction(g *msgskema.GroupDef) Direction {
	if d, ok := p.Groups[g.Name()]; ok {
		return d
	}
	return p.Default
}

// LoadPolicy reads a PolicyMap from a TOML file:
//
//	default = "both"
//	[groups]
//	Quote = "inbound"
func LoadPolicy(path string) (PolicyMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PolicyMap{}, err
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a TOML PolicyMap.
func ParsePolicy(data []byte) (PolicyMap, error) {
	var p PolicyMap
	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return PolicyMap{}, fmt.Errorf("binder: parse policy: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return PolicyMap{}, fmt.Errorf("binder: unknown policy keys: %v", undec)
	}
	return p, nil
}
