package graph

import (
	"testing"
	"time"

	"flowscope/internal/model"
)

func flow(src, dst string, dstPort uint16, proto uint8, bytes uint64, ts float64) model.FlowRecord {
	return model.FlowRecord{
		SrcIP:      src,
		SrcPort:    40000,
		DstIP:      dst,
		DstPort:    dstPort,
		Protocol:   proto,
		TotalBytes: model.Count(bytes),
		Timestamp:  ts,
	}
}

func TestAggregate_EdgeDedup(t *testing.T) {
	flows := []model.FlowRecord{
		flow("10.0.0.1", "10.0.0.2", 80, 6, 100, 1000),
		flow("10.0.0.1", "10.0.0.2", 80, 6, 200, 1001),
	}

	g := Aggregate(flows, Filter{})

	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(g.Edges))
	}

	edge := g.Edges[0]
	if edge.Bytes != 300 {
		t.Errorf("edge bytes = %d, want 300", edge.Bytes)
	}
	if edge.FlowCount != 2 {
		t.Errorf("edge flow count = %d, want 2", edge.FlowCount)
	}
	if len(edge.Flows) != 2 {
		t.Errorf("edge contributing flows = %d, want 2", len(edge.Flows))
	}
}

func TestAggregate_DistinctTuplesDistinctEdges(t *testing.T) {
	flows := []model.FlowRecord{
		flow("a", "b", 80, 6, 10, 0),
		flow("a", "b", 443, 6, 10, 0),  // different port
		flow("a", "b", 80, 17, 10, 0),  // different protocol
		flow("b", "a", 80, 6, 10, 0),   // reversed direction
		flow("a", "c", 80, 6, 10, 0),   // different destination
		flow("a", "b", 80, 6, 999, 99), // repeat of the first tuple
	}

	g := Aggregate(flows, Filter{})

	if len(g.Edges) != 5 {
		t.Fatalf("expected 5 edges, got %d", len(g.Edges))
	}
	if len(g.Edges) > len(flows) {
		t.Errorf("edge count %d exceeds flow count %d", len(g.Edges), len(flows))
	}

	seen := make(map[EdgeKey]bool)
	for _, e := range g.Edges {
		if seen[e.EdgeKey] {
			t.Errorf("duplicate edge key %+v", e.EdgeKey)
		}
		seen[e.EdgeKey] = true
	}
}

func TestAggregate_NodeAccumulation(t *testing.T) {
	flows := []model.FlowRecord{
		flow("a", "b", 80, 6, 100, 0),
		flow("b", "c", 80, 6, 50, 0),
	}

	g := Aggregate(flows, Filter{})

	a := g.Node("a")
	if a == nil || a.Role != RoleSource || a.BytesOut != 100 || a.BytesIn != 0 {
		t.Errorf("node a = %+v, want source with 100 bytes out", a)
	}

	// b appears as destination then source: one node, both directions.
	b := g.Node("b")
	if b == nil {
		t.Fatal("node b missing")
	}
	if b.Role != RoleBoth {
		t.Errorf("node b role = %q, want %q", b.Role, RoleBoth)
	}
	if b.BytesIn != 100 || b.BytesOut != 50 {
		t.Errorf("node b bytes in/out = %d/%d, want 100/50", b.BytesIn, b.BytesOut)
	}
	if b.ConnCount != 2 {
		t.Errorf("node b conn count = %d, want 2", b.ConnCount)
	}
	if len(b.Flows) != 2 {
		t.Errorf("node b flows = %d, want 2", len(b.Flows))
	}

	if g.Metrics.NodeCount != 3 || g.Metrics.EdgeCount != 2 || g.Metrics.TotalTrafficBytes != 150 {
		t.Errorf("metrics = %+v, want 3 nodes, 2 edges, 150 bytes", g.Metrics)
	}
}

func TestAggregate_Filters(t *testing.T) {
	tcp := uint8(6)
	now := time.Unix(10000, 0)

	flows := []model.FlowRecord{
		flow("10.0.0.1", "8.8.8.8", 80, 6, 500, 9990),
		flow("10.0.0.2", "8.8.4.4", 53, 17, 5000, 9000),
		flow("192.168.1.1", "10.0.0.1", 443, 6, 2000, 9995),
	}

	tests := []struct {
		name      string
		filter    Filter
		wantEdges int
	}{
		{"no filter", Filter{}, 3},
		{"protocol tcp", Filter{Protocol: &tcp}, 2},
		{"min bytes excludes small flow", Filter{MinBytes: 1000}, 2},
		{"max bytes", Filter{MaxBytes: 600}, 1},
		{"byte range", Filter{MinBytes: 1000, MaxBytes: 3000}, 1},
		{"time window", Filter{Window: time.Minute}, 2},
		{"host substring", Filter{Host: "192.168"}, 1},
		{"host matches either endpoint", Filter{Host: "10.0.0.1"}, 2},
		{"conjunction", Filter{Protocol: &tcp, MinBytes: 1000}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := AggregateAt(flows, tt.filter, now)
			if len(g.Edges) != tt.wantEdges {
				t.Errorf("edges = %d, want %d", len(g.Edges), tt.wantEdges)
			}
		})
	}
}

func TestAggregate_MinBytesExcludesFlow(t *testing.T) {
	flows := []model.FlowRecord{flow("a", "b", 80, 6, 500, 0)}

	g := Aggregate(flows, Filter{MinBytes: 1000})
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("filtered flow still aggregated: %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
	if g.Metrics.TotalTrafficBytes != 0 {
		t.Errorf("metrics count filtered traffic: %d bytes", g.Metrics.TotalTrafficBytes)
	}
}

func TestAggregate_PureOverSnapshot(t *testing.T) {
	flows := []model.FlowRecord{
		flow("a", "b", 80, 6, 100, 0),
		flow("b", "c", 80, 6, 50, 0),
	}

	first := Aggregate(flows, Filter{})
	second := Aggregate(flows, Filter{})

	if len(first.Nodes) != len(second.Nodes) || len(first.Edges) != len(second.Edges) {
		t.Fatalf("repeated aggregation differs: %d/%d nodes, %d/%d edges",
			len(first.Nodes), len(second.Nodes), len(first.Edges), len(second.Edges))
	}
	if first.Metrics != second.Metrics {
		t.Errorf("repeated aggregation metrics differ: %+v vs %+v", first.Metrics, second.Metrics)
	}
	// Accumulators never double: the second pass is a full rebuild.
	if second.Node("b").BytesIn != 100 {
		t.Errorf("node b bytes in = %d, want 100", second.Node("b").BytesIn)
	}
}

func TestNeighborhood_OneHop(t *testing.T) {
	flows := []model.FlowRecord{
		flow("a", "b", 80, 6, 10, 0),
		flow("b", "c", 80, 6, 10, 0),
		flow("c", "d", 80, 6, 10, 0),
	}

	g := Aggregate(flows, Filter{})
	n := g.Neighborhood("b")

	if len(n.Edges) != 2 {
		t.Fatalf("expected 2 highlighted edges, got %d", len(n.Edges))
	}
	for _, id := range []string{"a", "b", "c"} {
		if _, ok := n.Nodes[id]; !ok {
			t.Errorf("node %q missing from neighborhood", id)
		}
	}
	if _, ok := n.Nodes["d"]; ok {
		t.Error("node d is two hops away but included")
	}
}

func TestNeighborhood_UnknownNode(t *testing.T) {
	g := Aggregate([]model.FlowRecord{flow("a", "b", 80, 6, 10, 0)}, Filter{})
	n := g.Neighborhood("zz")
	if len(n.Nodes) != 0 || len(n.Edges) != 0 {
		t.Errorf("unknown node produced a neighborhood: %+v", n)
	}
}
