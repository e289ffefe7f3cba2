// Package chart reads and writes YAML chart files: the node list, their
// control values and the connections of a flow graph.
package chart

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/nodes"
	"gopkg.in/yaml.v3"
)

type Chart struct {
	Nodes       []Node       `yaml:"nodes"`
	Connections []Connection `yaml:"connections,omitempty"`
}

type Node struct {
	Type     string         `yaml:"type"`
	Name     string         `yaml:"name"`
	Controls map[string]any `yaml:"controls,omitempty"`
}

// Connection links "node.terminal" to "node.terminal".
type Connection struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

func Parse(data []byte) (*Chart, error) {
	var c Chart
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse chart: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func Load(path string) (*Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Chart) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close chart: %w", err)
	}
	return nil
}

// Validate checks names are unique, types are known and connections name
// declared nodes. Terminal names are checked by Build.
func (c *Chart) Validate() error {
	kinds := nodes.Kinds()
	seen := make(map[string]bool, len(c.Nodes))
	for i, n := range c.Nodes {
		if n.Name == "" {
			return fmt.Errorf("chart: node %d has no name", i)
		}
		if seen[n.Name] {
			return fmt.Errorf("chart: node %q: %w", n.Name, flow.ErrDuplicate)
		}
		if !slices.Contains(kinds, n.Type) {
			return fmt.Errorf("chart: node %q: %w: %q", n.Name, flow.ErrUnknownType, n.Type)
		}
		seen[n.Name] = true
	}
	for _, conn := range c.Connections {
		for _, end := range []string{conn.From, conn.To} {
			ep, err := ParseEndpoint(end)
			if err != nil {
				return err
			}
			if !seen[ep.Node] {
				return fmt.Errorf("chart: connection %s -> %s: %w: %q", conn.From, conn.To, flow.ErrNoNode, ep.Node)
			}
		}
	}
	return nil
}

// ParseEndpoint splits "node.terminal" at the last dot, so node names may
// contain dots.
func ParseEndpoint(s string) (flow.Endpoint, error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return flow.Endpoint{}, fmt.Errorf("chart: endpoint %q is not node.terminal", s)
	}
	return flow.Endpoint{Node: s[:i], Terminal: s[i+1:]}, nil
}
