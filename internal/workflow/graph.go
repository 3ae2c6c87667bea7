// Package workflow implements the graph-based automation executor: the
// node/edge graph, per-kind node handlers, the run context store, and the
// DAG walker that drives a run from its trigger node.
package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rankpilot/rankpilot/pkg/models"
)

// ErrNoTrigger indicates a graph has no trigger node to start from.
var ErrNoTrigger = errors.New("workflow has no trigger node")

// ErrDuplicateTrigger indicates a graph has more than one trigger node.
var ErrDuplicateTrigger = errors.New("workflow has more than one trigger node")

// Graph is an immutable, indexed view of a workflow definition.
// Cycles are not defended against; the editor is responsible for keeping
// the canvas acyclic.
type Graph struct {
	nodes    []models.Node
	edges    []models.Edge
	byID     map[string]models.Node
	outgoing map[string][]models.Edge
	incoming map[string][]models.Edge
}

// NewGraph indexes the given nodes and edges. Edges referencing unknown
// nodes are rejected.
func NewGraph(nodes []models.Node, edges []models.Edge) (*Graph, error) {
	g := &Graph{
		nodes:    nodes,
		edges:    edges,
		byID:     make(map[string]models.Node, len(nodes)),
		outgoing: make(map[string][]models.Edge),
		incoming: make(map[string][]models.Edge),
	}

	for _, n := range nodes {
		if _, dup := g.byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		g.byID[n.ID] = n
	}

	for _, e := range edges {
		if _, ok := g.byID[e.Source]; !ok {
			return nil, fmt.Errorf("edge %s references unknown source node %q", e.ID, e.Source)
		}
		if _, ok := g.byID[e.Target]; !ok {
			return nil, fmt.Errorf("edge %s references unknown target node %q", e.ID, e.Target)
		}
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
		g.incoming[e.Target] = append(g.incoming[e.Target], e)
	}

	return g, nil
}

// Trigger returns the unique trigger node. It fails with ErrNoTrigger or
// ErrDuplicateTrigger; either aborts a run before any node executes.
func (g *Graph) Trigger() (models.Node, error) {
	var trigger models.Node
	found := false
	for _, n := range g.nodes {
		if n.Kind != models.NodeTrigger {
			continue
		}
		if found {
			return models.Node{}, ErrDuplicateTrigger
		}
		trigger = n
		found = true
	}
	if !found {
		return models.Node{}, ErrNoTrigger
	}
	return trigger, nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (models.Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Successors returns the edges leaving the given node.
func (g *Graph) Successors(id string) []models.Edge {
	return g.outgoing[id]
}

// Predecessors returns the edges entering the given node.
func (g *Graph) Predecessors(id string) []models.Edge {
	return g.incoming[id]
}

// SuccessorsByHandle returns the edges leaving the given node whose
// SourceHandle matches handle. Used to pick a condition node's branch.
func (g *Graph) SuccessorsByHandle(id, handle string) []models.Edge {
	var out []models.Edge
	for _, e := range g.outgoing[id] {
		if e.SourceHandle == handle {
			out = append(out, e)
		}
	}
	return out
}

// Nodes returns all nodes in definition order.
func (g *Graph) Nodes() []models.Node {
	return g.nodes
}

// Size returns the number of nodes in the graph.
func (g *Graph) Size() int {
	return len(g.nodes)
}

// Definition is the persisted JSON form of a workflow graph. Node configs
// round-trip verbatim.
type Definition struct {
	Name  string        `json:"name,omitempty"`
	Nodes []models.Node `json:"nodes"`
	Edges []models.Edge `json:"edges"`
}

// ParseDefinition decodes a workflow definition from JSON and indexes it.
func ParseDefinition(data []byte) (*Graph, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse workflow definition: %w", err)
	}
	return NewGraph(def.Nodes, def.Edges)
}

// LoadDefinition reads and parses a workflow definition file.
func LoadDefinition(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow definition: %w", err)
	}
	return ParseDefinition(data)
}

// MarshalDefinition encodes the graph back to its persisted JSON form.
func (g *Graph) MarshalDefinition(name string) ([]byte, error) {
	return json.MarshalIndent(Definition{Name: name, Nodes: g.nodes, Edges: g.edges}, "", "  ")
}
