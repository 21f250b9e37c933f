// SPDX-License-Identifier: MPL-2.0

// Package dag orders packages by precedence. An edge from A to B means "A
// wins over B": A declares that it overrides B, or the project's override
// order lists A before B. Packages without a precedence relation keep the
// order in which they were added.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError reports packages whose precedence relations contradict each other.
	CycleError struct {
		// Cycle lists the packages left unordered, in insertion order.
		Cycle []string
	}

	// Graph is a directed precedence graph over package names.
	Graph struct {
		// adjacency maps a package to the packages it wins over.
		adjacency map[string][]string
		// nodes keeps insertion order for deterministic output.
		nodes   []string
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("conflicting package precedence: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a package. Adding it twice is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge records that winner takes precedence over loser. Both nodes are
// added if missing; self edges and repeated edges are ignored.
func (g *Graph) AddEdge(winner, loser string) {
	g.AddNode(winner)
	g.AddNode(loser)
	if winner == loser || slices.Contains(g.adjacency[winner], loser) {
		return
	}
	g.adjacency[winner] = append(g.adjacency[winner], loser)
}

// Contains reports whether the package was added.
func (g *Graph) Contains(name string) bool { return g.nodeSet[name] }

// HasPredecessor reports whether another package wins over name.
func (g *Graph) HasPredecessor(name string) bool {
	for _, losers := range g.adjacency {
		if slices.Contains(losers, name) {
			return true
		}
	}
	return false
}

// TopologicalSort returns the packages so that every winner precedes the
// packages it wins over. Packages on the same level keep insertion order.
// A CycleError is returned if the relations contradict each other.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, losers := range g.adjacency {
		for _, loser := range losers {
			inDegree[loser]++
		}
	}

	var queue []string
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, loser := range g.adjacency[node] {
			inDegree[loser]--
			if inDegree[loser] == 0 {
				queue = append(queue, loser)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycle []string
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				cycle = append(cycle, node)
			}
		}
		return nil, &CycleError{Cycle: cycle}
	}
	return result, nil
}

// Order is TopologicalSort falling back to insertion order when the
// relations contain a cycle. The cycle is still reported.
func (g *Graph) Order() ([]string, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return slices.Clone(g.nodes), err
	}
	return order, nil
}
