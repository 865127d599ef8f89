// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import "sort"

// Edge is an edge of the complete distance graph between two input indices.
// From is always lower than To.
type Edge struct {
	From int
	To   int
	Km   float64
}

// SpanningTree computes a minimum spanning tree over the complete graph of
// pairwise great-circle distances between coords, using Kruskal's algorithm.
// It returns the selected edges and their total weight in kilometers.
//
// Edges of equal weight are taken in (From, To) order, so the tree is fully
// determined by the order of coords.
func SpanningTree(coords []Coordinate) ([]Edge, float64) {
	n := len(coords)
	if n < 2 {
		return []Edge{}, 0
	}

	edges := make([]Edge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, Edge{From: i, To: j, Km: Distance(coords[i], coords[j])})
		}
	}

	// Edges are generated in (From, To) order already; a stable sort on the
	// weight keeps that order among equal weights.
	sort.SliceStable(edges, func(a, b int) bool {
		return edges[a].Km < edges[b].Km
	})

	parent := make([]int, n)
	rank := make([]int, n)

	for i := range parent {
		parent[i] = i
	}

	find := func(u int) int {
		for parent[u] != u {
			parent[u] = parent[parent[u]]
			u = parent[u]
		}

		return u
	}

	var (
		tree  = make([]Edge, 0, n-1)
		total float64
	)

	for _, e := range edges {
		ru, rv := find(e.From), find(e.To)
		if ru == rv {
			continue
		}

		switch {
		case rank[ru] < rank[rv]:
			parent[ru] = rv
		case rank[ru] > rank[rv]:
			parent[rv] = ru
		default:
			parent[rv] = ru
			rank[ru]++
		}

		tree = append(tree, e)
		total += e.Km

		if len(tree) == n-1 {
			break
		}
	}

	return tree, total
}

// EstimateMST returns the total weight in kilometers of the minimum spanning
// tree connecting coords. It is a lower bound for any tour visiting all of
// them, not a route length.
func EstimateMST(coords []Coordinate) float64 {
	_, total := SpanningTree(coords)

	return total
}
