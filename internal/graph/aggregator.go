// Package graph rebuilds the node/edge traffic model from a flow snapshot.
// Aggregation owns no state across calls: every pass recomputes the full
// graph from the flows it is handed, so nodes and edges are ephemeral and a
// new pass discards the previous result.
package graph

import (
	"strings"
	"time"

	"flowscope/internal/model"
)

// Role is a display hint for a node. A host seen as both source and
// destination stays a single node and accumulates both directions.
type Role string

const (
	RoleSource      Role = "source"
	RoleDestination Role = "destination"
	RoleBoth        Role = "both"
)

// Node is one host in the aggregated graph, keyed by IP.
type Node struct {
	ID        string             `json:"id"`
	Role      Role               `json:"role"`
	BytesIn   uint64             `json:"bytes_in"`
	BytesOut  uint64             `json:"bytes_out"`
	ConnCount int                `json:"conn_count"`
	Flows     []model.FlowRecord `json:"flows"`
}

// EdgeKey is the dedup identity of an edge. It is a comparable struct so
// edge lookup during aggregation is a single map access per flow.
type EdgeKey struct {
	SrcIP    string `json:"src_ip"`
	DstIP    string `json:"dst_ip"`
	DstPort  uint16 `json:"dst_port"`
	Protocol uint8  `json:"protocol"`
}

// Edge is the accumulated traffic between two hosts for one (port, protocol)
// pair.
type Edge struct {
	EdgeKey
	Bytes     uint64             `json:"bytes"`
	FlowCount int                `json:"flow_count"`
	Flows     []model.FlowRecord `json:"flows"`
}

// Metrics summarizes one aggregation pass over the filtered flow set.
type Metrics struct {
	NodeCount         int    `json:"node_count"`
	EdgeCount         int    `json:"edge_count"`
	TotalTrafficBytes uint64 `json:"total_traffic_bytes"`
}

// Graph is the result of one aggregation pass. Edges preserve first-seen
// order; Nodes preserve first-seen order of their hosts.
type Graph struct {
	Nodes   []*Node `json:"nodes"`
	Edges   []*Edge `json:"edges"`
	Metrics Metrics `json:"metrics"`

	nodeIndex map[string]*Node
	edgeIndex map[EdgeKey]*Edge
}

// Filter selects the flows that take part in an aggregation pass. Filters
// are pure predicates and never mutate the flows they inspect.
type Filter struct {
	// Protocol restricts to one IANA protocol number; nil means any.
	Protocol *uint8
	// MinBytes/MaxBytes bound the total byte counter; MaxBytes zero means
	// unbounded above.
	MinBytes uint64
	MaxBytes uint64
	// Window keeps only flows whose timestamp falls within the duration
	// before now; zero means all time.
	Window time.Duration
	// Host is a free-text substring matched against either endpoint IP.
	Host string
}

// Match reports whether the flow passes the filter, evaluated against now.
func (f Filter) Match(flow model.FlowRecord, now time.Time) bool {
	if f.Protocol != nil && flow.Protocol != *f.Protocol {
		return false
	}
	if flow.Bytes() < f.MinBytes {
		return false
	}
	if f.MaxBytes > 0 && flow.Bytes() > f.MaxBytes {
		return false
	}
	if f.Window > 0 {
		flowTime := time.UnixMilli(int64(flow.Timestamp * 1000))
		if now.Sub(flowTime) > f.Window {
			return false
		}
	}
	if f.Host != "" && !containsHost(flow, f.Host) {
		return false
	}
	return true
}

func containsHost(flow model.FlowRecord, host string) bool {
	return strings.Contains(flow.SrcIP, host) || strings.Contains(flow.DstIP, host)
}

// Aggregate rebuilds the graph from the given flows under the filter,
// evaluated against the current time.
func Aggregate(flows []model.FlowRecord, filter Filter) *Graph {
	return AggregateAt(flows, filter, time.Now())
}

// AggregateAt is Aggregate with an explicit reference time for the filter's
// time window.
func AggregateAt(flows []model.FlowRecord, filter Filter, now time.Time) *Graph {
	g := &Graph{
		nodeIndex: make(map[string]*Node),
		edgeIndex: make(map[EdgeKey]*Edge),
	}

	for _, flow := range flows {
		if !filter.Match(flow, now) {
			continue
		}

		src := g.upsertNode(flow.SrcIP, RoleSource)
		dst := g.upsertNode(flow.DstIP, RoleDestination)

		src.BytesOut += flow.Bytes()
		src.ConnCount++
		src.Flows = append(src.Flows, flow)

		dst.BytesIn += flow.Bytes()
		dst.ConnCount++
		dst.Flows = append(dst.Flows, flow)

		key := EdgeKey{SrcIP: flow.SrcIP, DstIP: flow.DstIP, DstPort: flow.DstPort, Protocol: flow.Protocol}
		edge, ok := g.edgeIndex[key]
		if !ok {
			edge = &Edge{EdgeKey: key}
			g.edgeIndex[key] = edge
			g.Edges = append(g.Edges, edge)
		}
		edge.Bytes += flow.Bytes()
		edge.FlowCount++
		edge.Flows = append(edge.Flows, flow)

		g.Metrics.TotalTrafficBytes += flow.Bytes()
	}

	g.Metrics.NodeCount = len(g.Nodes)
	g.Metrics.EdgeCount = len(g.Edges)
	return g
}

func (g *Graph) upsertNode(ip string, role Role) *Node {
	node, ok := g.nodeIndex[ip]
	if !ok {
		node = &Node{ID: ip, Role: role}
		g.nodeIndex[ip] = node
		g.Nodes = append(g.Nodes, node)
		return node
	}
	if node.Role != role {
		node.Role = RoleBoth
	}
	return node
}

// Node returns the aggregated node for the given host IP, or nil.
func (g *Graph) Node(ip string) *Node {
	return g.nodeIndex[ip]
}

// Neighborhood computes the one-hop surroundings of the selected node: the
// set of node ids and the edges reachable over a single edge touching it.
// Consumers use it to dim the rest of the graph, not to filter the model.
type Neighborhood struct {
	Nodes map[string]struct{} `json:"-"`
	Edges []*Edge             `json:"edges"`
}

// NodeIDs returns the highlighted node ids in first-seen edge order.
func (n *Neighborhood) NodeIDs() []string {
	ids := make([]string, 0, len(n.Nodes))
	for _, e := range n.Edges {
		if _, ok := n.Nodes[e.SrcIP]; ok {
			ids = appendUnique(ids, e.SrcIP)
		}
		if _, ok := n.Nodes[e.DstIP]; ok {
			ids = appendUnique(ids, e.DstIP)
		}
	}
	return ids
}

func appendUnique(ids []string, id string) []string {
	for _, have := range ids {
		if have == id {
			return ids
		}
	}
	return append(ids, id)
}

// Neighborhood returns the one-hop highlight set around the selected node.
// The selected node itself is always part of the set; an unknown id yields
// an empty neighborhood.
func (g *Graph) Neighborhood(nodeID string) *Neighborhood {
	n := &Neighborhood{Nodes: make(map[string]struct{})}
	if g.Node(nodeID) == nil {
		return n
	}

	n.Nodes[nodeID] = struct{}{}
	for _, edge := range g.Edges {
		if edge.SrcIP != nodeID && edge.DstIP != nodeID {
			continue
		}
		n.Edges = append(n.Edges, edge)
		n.Nodes[edge.SrcIP] = struct{}{}
		n.Nodes[edge.DstIP] = struct{}{}
	}
	return n
}
