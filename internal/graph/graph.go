// Package graph views a Flow as a directed graph of steps joined by their
// explicit next transitions.
package graph

import (
	"github.com/mur-run/flowspec/internal/flowspec"
)

// Adjacency maps a step id to the targets of its explicit next edges, in
// edge order. Implicit fall-through between consecutive steps is not part of
// the view: document position is acyclic by construction.
type Adjacency map[string][]string

// FromFlow builds the adjacency view of flow.
func FromFlow(flow *flowspec.Flow) Adjacency {
	adj := make(Adjacency, len(flow.Steps))
	for _, s := range flow.Steps {
		targets := make([]string, 0, len(s.Next))
		for _, e := range s.Next {
			if e.To != "" {
				targets = append(targets, e.To)
			}
		}
		adj[s.ID] = targets
	}
	return adj
}

// Reachable reports whether to can be reached from from by following edges.
// A step always reaches itself.
func (a Adjacency) Reachable(from, to string) bool {
	stack := []string{from}
	visited := make(map[string]bool, len(a))
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, next := range a[id] {
			if !visited[next] {
				stack = append(stack, next)
			}
		}
	}
	return false
}

// WouldCycle reports whether adding source->target closes a cycle through
// at least one other step. Self-loops are not cycles here.
func (a Adjacency) WouldCycle(source, target string) bool {
	if source == target {
		return false
	}
	return a.Reachable(target, source)
}

// HasCycle reports whether any step can reach itself through another step.
func (a Adjacency) HasCycle() bool {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(a))

	type frame struct {
		id   string
		next int
	}
	for start := range a {
		if color[start] != white {
			continue
		}
		stack := []frame{{id: start}}
		color[start] = grey
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := a[top.id]
			if top.next >= len(edges) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			n := edges[top.next]
			top.next++
			if n == top.id {
				continue
			}
			switch color[n] {
			case grey:
				return true
			case white:
				color[n] = grey
				stack = append(stack, frame{id: n})
			}
		}
	}
	return false
}
