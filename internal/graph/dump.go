package graph

import (
	"bytes"
	"errors"
	"fmt"

	graphlib "github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// DOT renders the plan as a Graphviz digraph. Vertices are plan nodes, edges
// point from a value to what it is built from. Shared scoped nodes appear
// once.
func DOT(plan *Plan) (string, error) {
	g := graphlib.New(graphlib.StringHash, graphlib.Directed())
	ids := make(map[*Node]string)

	vertex := func(n *Node) (string, error) {
		if id, ok := ids[n]; ok {
			return id, nil
		}
		id := fmt.Sprintf("n%d", len(ids))
		ids[n] = id
		label := n.Kind.String() + `\n` + n.Key.String()
		if n.Name != "" {
			label += `\n` + n.Name
		}
		err := g.AddVertex(id, graphlib.VertexAttribute("label", label))
		if err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
			return "", err
		}
		return id, nil
	}

	var add func(n *Node) (string, error)
	add = func(n *Node) (string, error) {
		if id, ok := ids[n]; ok {
			return id, nil
		}
		from, err := vertex(n)
		if err != nil {
			return "", err
		}
		for _, d := range n.Deps {
			if d == nil {
				continue
			}
			to, err := add(d)
			if err != nil {
				return "", err
			}
			err = g.AddEdge(from, to)
			if err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
				return "", err
			}
		}
		return from, nil
	}

	for _, m := range plan.Members {
		root := "member:" + m.Requirement.Name
		if err := g.AddVertex(root, graphlib.VertexAttribute("shape", "box")); err != nil {
			return "", fmt.Errorf("add member %s: %w", m.Requirement.Name, err)
		}
		to, err := add(m.Node)
		if err != nil {
			return "", err
		}
		if err := g.AddEdge(root, to); err != nil {
			return "", fmt.Errorf("add member %s: %w", m.Requirement.Name, err)
		}
	}
	for _, nested := range plan.Nested {
		if _, err := add(nested.Node); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	if err := draw.DOT(g, &buf, draw.GraphAttribute("label", plan.Component.Name)); err != nil {
		return "", fmt.Errorf("render %s: %w", plan.Component.Name, err)
	}
	return buf.String(), nil
}
