package flow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder passes "in" (or its own name) to "out" and logs every run.
type recorder struct {
	flow.Base
	log          *[]string
	multi        bool
	fail         error
	disconnected []flow.Endpoint
	renamedFrom  string
	peers        []string
	closed       bool
	control      any
}

func newRecorder(name string, log *[]string) *recorder {
	return &recorder{Base: flow.NewBase(name), log: log}
}

func (r *recorder) Terminals() []flow.Terminal {
	return []flow.Terminal{
		{Name: "in", Dir: flow.In, Multi: r.multi},
		{Name: "out", Dir: flow.Out},
	}
}

func (r *recorder) Process(_ context.Context, in flow.Inputs) (flow.Outputs, error) {
	*r.log = append(*r.log, r.Name())
	if r.fail != nil {
		return nil, r.fail
	}
	if r.multi {
		return flow.Outputs{"out": len(flow.Multi(in, "in"))}, nil
	}
	v, ok := in["in"]
	if !ok {
		v = r.Name()
	}
	return flow.Outputs{"out": v}, nil
}

func (r *recorder) Disconnected(local string, remote flow.Endpoint) {
	r.disconnected = append(r.disconnected, remote)
}

func (r *recorder) Renamed(old string) { r.renamedFrom = old }

func (r *recorder) PeerRenamed(local, old, name string) {
	r.peers = append(r.peers, local+":"+old+">"+name)
}

func (r *recorder) Close() { r.closed = true }

func (r *recorder) SetControl(key string, value any) error {
	if key != "value" {
		return flow.ErrBadControl
	}
	r.control = value
	return nil
}

func chain(t *testing.T, log *[]string, names ...string) (*flow.Graph, []*recorder) {
	t.Helper()
	g := flow.New()
	var nodes []*recorder
	for _, n := range names {
		r := newRecorder(n, log)
		require.NoError(t, g.Add(r))
		nodes = append(nodes, r)
	}
	return g, nodes
}

func TestGraph_ProcessRunsInTopologicalOrder(t *testing.T) {
	var log []string
	g, _ := chain(t, &log, "c", "b", "a")
	require.NoError(t, g.Connect("a", "out", "b", "in"))
	require.NoError(t, g.Connect("b", "out", "c", "in"))

	require.NoError(t, g.Process(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, log)
	assert.Equal(t, "a", g.Outputs("c")["out"])

	log = nil
	require.NoError(t, g.Process(context.Background()))
	assert.Empty(t, log, "clean nodes do not re-run")
}

func TestGraph_SetControlRerunsDownstreamOnly(t *testing.T) {
	var log []string
	g, nodes := chain(t, &log, "a", "b", "c")
	require.NoError(t, g.Connect("b", "out", "c", "in"))
	require.NoError(t, g.Process(context.Background()))

	log = nil
	require.NoError(t, g.SetControl("b", "value", 3))
	assert.Equal(t, 3, nodes[1].control)
	require.NoError(t, g.Process(context.Background()))
	assert.Equal(t, []string{"b", "c"}, log)

	assert.ErrorIs(t, g.SetControl("b", "nope", 1), flow.ErrBadControl)
	assert.ErrorIs(t, g.SetControl("zz", "value", 1), flow.ErrNoNode)
}

func TestGraph_ConnectValidates(t *testing.T) {
	var log []string
	g, _ := chain(t, &log, "a", "b", "c")
	require.NoError(t, g.Connect("a", "out", "b", "in"))
	require.NoError(t, g.Connect("a", "out", "b", "in"), "duplicate edge is a no-op")

	assert.ErrorIs(t, g.Connect("c", "out", "b", "in"), flow.ErrOccupied)
	assert.ErrorIs(t, g.Connect("b", "out", "a", "in"), flow.ErrCycle)
	assert.ErrorIs(t, g.Connect("a", "out", "a", "in"), flow.ErrCycle)
	assert.ErrorIs(t, g.Connect("a", "in", "b", "in"), flow.ErrNoTerminal)
	assert.ErrorIs(t, g.Connect("x", "out", "b", "in"), flow.ErrNoNode)
	assert.ErrorIs(t, g.Add(newRecorder("a", &log)), flow.ErrDuplicate)
	assert.Len(t, g.Edges(), 1)
}

func TestGraph_MultiInputKeyedBySource(t *testing.T) {
	var log []string
	g, _ := chain(t, &log, "a", "b")
	sink := newRecorder("sink", &log)
	sink.multi = true
	require.NoError(t, g.Add(sink))
	require.NoError(t, g.Connect("a", "out", "sink", "in"))
	require.NoError(t, g.Connect("b", "out", "sink", "in"))

	require.NoError(t, g.Process(context.Background()))
	assert.Equal(t, 2, g.Outputs("sink")["out"])
}

func TestGraph_FailingNodeIsolated(t *testing.T) {
	var log []string
	g, nodes := chain(t, &log, "a", "b", "c", "d")
	boom := errors.New("boom")
	nodes[0].fail = boom
	require.NoError(t, g.Connect("a", "out", "b", "in"))
	require.NoError(t, g.Connect("c", "out", "d", "in"))

	err := g.Process(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, g.Err("a"), boom)
	assert.Nil(t, g.Outputs("a"))
	assert.Equal(t, "c", g.Outputs("d")["out"])
	// b still runs, with its input unset
	assert.Equal(t, "b", g.Outputs("b")["out"])
}

func TestGraph_DisconnectNotifiesBothEnds(t *testing.T) {
	var log []string
	g, nodes := chain(t, &log, "a", "b")
	require.NoError(t, g.Connect("a", "out", "b", "in"))
	require.NoError(t, g.Process(context.Background()))

	require.NoError(t, g.Disconnect("a", "out", "b", "in"))
	assert.Equal(t, []flow.Endpoint{{Node: "b", Terminal: "in"}}, nodes[0].disconnected)
	assert.Equal(t, []flow.Endpoint{{Node: "a", Terminal: "out"}}, nodes[1].disconnected)
	assert.True(t, g.Dirty("b"))
	assert.ErrorIs(t, g.Disconnect("a", "out", "b", "in"), flow.ErrNotAnEdge)
}

func TestGraph_RenameRewritesEdges(t *testing.T) {
	var log []string
	g, nodes := chain(t, &log, "a", "b")
	require.NoError(t, g.Connect("a", "out", "b", "in"))
	require.NoError(t, g.Rename("a", "src"))

	assert.Equal(t, "src", nodes[0].Name())
	assert.Equal(t, "a", nodes[0].renamedFrom)
	assert.Equal(t, []string{"src", "b"}, g.Nodes())
	assert.Equal(t, "src", g.Edges()[0].From.Node)
	assert.Equal(t, []string{"in:a>src"}, nodes[1].peers)
	assert.Empty(t, nodes[0].peers)
	assert.ErrorIs(t, g.Rename("src", "b"), flow.ErrDuplicate)

	require.NoError(t, g.Process(context.Background()))
	assert.Equal(t, "src", g.Outputs("b")["out"])
}

func TestGraph_RemoveDisconnectsAndCloses(t *testing.T) {
	var log []string
	g, nodes := chain(t, &log, "a", "b", "c")
	require.NoError(t, g.Connect("a", "out", "b", "in"))
	require.NoError(t, g.Connect("b", "out", "c", "in"))

	require.NoError(t, g.Remove("b"))
	assert.True(t, nodes[1].closed)
	assert.Empty(t, g.Edges())
	assert.Len(t, nodes[0].disconnected, 1)
	assert.Len(t, nodes[2].disconnected, 1)
	_, ok := g.Node("b")
	assert.False(t, ok)

	g.Clear()
	assert.Empty(t, g.Nodes())
	assert.True(t, nodes[0].closed)
	assert.True(t, nodes[2].closed)
}

func TestGraph_ProcessStopsOnCancel(t *testing.T) {
	var log []string
	g, _ := chain(t, &log, "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Process(ctx), context.Canceled)
	assert.Empty(t, log)
}

func TestInputHelpers(t *testing.T) {
	in := flow.Inputs{"n": 3, "s": "x"}
	v, err := flow.Required[int]("node", in, "n")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = flow.Required[int]("node", in, "missing")
	var ie *flow.InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "missing", ie.Terminal)

	_, _, err = flow.Input[int]("node", in, "s")
	assert.ErrorAs(t, err, &ie)
}
