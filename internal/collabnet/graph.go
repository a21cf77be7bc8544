// Package collabnet builds an author's collaboration network by
// breadth-limited expansion over co-authorship records.
package collabnet

// Node is one author in the collaboration network. Level is the expansion
// depth at which the author was first admitted and is never revised, even
// when a later expansion reaches the same author along a shorter path.
type Node struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Level       int    `json:"level"`
}

// Edge is an undirected co-authorship link. Source and Target keep the
// orientation of discovery (the expanded frontier member first); the pair is
// stored once regardless of which direction later expansions approach it
// from. SharedWorks is the shared-paper tally observed when the edge was
// first admitted.
type Edge struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	SharedWorks int    `json:"shared_works"`
}

// Graph is a finalized collaboration network. The zero value is unusable;
// Builder.Build is the only constructor. After Build returns, the graph is
// read-only.
type Graph struct {
	nodes map[string]Node
	order []string

	edges    map[edgeKey]int
	edgeList []Edge

	adjacency map[string][]string

	seedID    string
	distances map[string]int
}

// edgeKey identifies an undirected pair: lo and hi are the two endpoint IDs
// in lexicographic order.
type edgeKey struct {
	lo, hi string
}

func pairKey(a, b string) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{lo: a, hi: b}
}

func newGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]Node),
		edges:     make(map[edgeKey]int),
		adjacency: make(map[string][]string),
	}
}

// addNode records an author at the given level. First write wins: if the ID
// is already present, the existing node (including its level) is kept.
func (g *Graph) addNode(id, displayName string, level int) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = Node{ID: id, DisplayName: displayName, Level: level}
	g.order = append(g.order, id)
}

// addEdge records an undirected co-authorship link with its shared-paper
// tally. The pair is deduplicated regardless of orientation; re-adding an
// existing pair leaves the stored tally unchanged.
func (g *Graph) addEdge(source, target string, sharedWorks int) {
	key := pairKey(source, target)
	if _, ok := g.edges[key]; ok {
		return
	}
	g.edges[key] = sharedWorks
	g.edgeList = append(g.edgeList, Edge{Source: source, Target: target, SharedWorks: sharedWorks})
	g.adjacency[source] = append(g.adjacency[source], target)
	g.adjacency[target] = append(g.adjacency[target], source)
}

// finalize records the seed and computes the distance-from-seed lookup.
func (g *Graph) finalize(seedID string) {
	g.seedID = seedID
	g.distances = g.computeDistances(seedID)
}

// computeDistances runs an unweighted breadth-first search from the seed
// over the undirected edge set.
func (g *Graph) computeDistances(seedID string) map[string]int {
	dist := make(map[string]int, len(g.nodes))
	if _, ok := g.nodes[seedID]; !ok {
		return dist
	}
	dist[seedID] = 0
	queue := []string{seedID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, neighbor := range g.adjacency[current] {
			if _, seen := dist[neighbor]; seen {
				continue
			}
			dist[neighbor] = dist[current] + 1
			queue = append(queue, neighbor)
		}
	}
	return dist
}

// SeedID returns the identifier of the author the network was built around.
func (g *Graph) SeedID() string {
	return g.seedID
}

// Node returns the node with the given ID, if present.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in discovery order, seed first.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns all edges in discovery order.
// The returned slice is shared; callers must not modify it.
func (g *Graph) Edges() []Edge {
	if g.edgeList == nil {
		return []Edge{}
	}
	return g.edgeList
}

// Distances returns the number of hops from the seed to each reachable node.
// The seed maps to 0. The returned map is shared; callers must not modify it.
func (g *Graph) Distances() map[string]int {
	return g.distances
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct undirected edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}
