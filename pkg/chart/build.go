package chart

import (
	"fmt"
	"slices"

	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/nodes"
)

// Build adds the chart's nodes to g, applies their controls in key order
// and makes the connections. On error g keeps whatever was added so far.
func (c *Chart) Build(g *flow.Graph, env nodes.Env) error {
	for _, cn := range c.Nodes {
		n, err := nodes.New(cn.Type, cn.Name, env)
		if err != nil {
			return err
		}
		if err := g.Add(n); err != nil {
			return err
		}
		keys := make([]string, 0, len(cn.Controls))
		for k := range cn.Controls {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if err := g.SetControl(cn.Name, k, cn.Controls[k]); err != nil {
				return fmt.Errorf("chart: %w", err)
			}
		}
	}
	for _, conn := range c.Connections {
		from, err := ParseEndpoint(conn.From)
		if err != nil {
			return err
		}
		to, err := ParseEndpoint(conn.To)
		if err != nil {
			return err
		}
		if err := g.Connect(from.Node, from.Terminal, to.Node, to.Terminal); err != nil {
			return fmt.Errorf("chart: %w", err)
		}
	}
	return nil
}
