// Package query implements the log-view read path over a flow snapshot:
// conjunctive multi-field filtering, single-key sorting with a stable
// tie-break, and page slicing. Everything here is a pure function; the
// snapshot is never mutated.
package query

import (
	"sort"
	"strings"

	"flowscope/internal/model"
)

// Filters are independent field predicates combined conjunctively. Zero
// values (empty string, nil pointer) disable the corresponding predicate.
type Filters struct {
	SrcIP    string  // substring match
	DstIP    string  // substring match
	Protocol *uint8  // exact match
	MinBytes *uint64 // inclusive lower bound
	MaxBytes *uint64 // inclusive upper bound
	Port     *uint16 // matches either endpoint port
}

// Match reports whether the flow passes every active predicate.
func (f Filters) Match(flow model.FlowRecord) bool {
	if f.SrcIP != "" && !strings.Contains(flow.SrcIP, f.SrcIP) {
		return false
	}
	if f.DstIP != "" && !strings.Contains(flow.DstIP, f.DstIP) {
		return false
	}
	if f.Protocol != nil && flow.Protocol != *f.Protocol {
		return false
	}
	if f.MinBytes != nil && flow.Bytes() < *f.MinBytes {
		return false
	}
	if f.MaxBytes != nil && flow.Bytes() > *f.MaxBytes {
		return false
	}
	if f.Port != nil && flow.SrcPort != *f.Port && flow.DstPort != *f.Port {
		return false
	}
	return true
}

// Sort keys.
const (
	SortTimestamp = "timestamp"
	SortSrcIP     = "src_ip"
	SortDstIP     = "dst_ip"
	SortProtocol  = "protocol"
	SortBytes     = "total_bytes"
	SortPackets   = "total_packets"
)

// Sort selects the ordering of the filtered result. Numeric keys compare
// numerically, the rest compare as text; ties keep the original snapshot
// order.
type Sort struct {
	Key        string
	Descending bool
}

// Page selects one slice of the sorted result. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Result is one page of the filtered, sorted flow log.
type Result struct {
	Items      []model.FlowRecord `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
}

// Run filters, sorts, and paginates the snapshot.
func Run(flows []model.FlowRecord, filters Filters, s Sort, page Page) Result {
	filtered := make([]model.FlowRecord, 0, len(flows))
	for _, flow := range flows {
		if filters.Match(flow) {
			filtered = append(filtered, flow)
		}
	}

	if s.Key != "" {
		less := lessFunc(s.Key)
		sort.SliceStable(filtered, func(i, j int) bool {
			if s.Descending {
				return less(filtered[j], filtered[i])
			}
			return less(filtered[i], filtered[j])
		})
	}

	if page.Size <= 0 {
		page.Size = 10
	}
	if page.Number < 1 {
		page.Number = 1
	}

	total := len(filtered)
	totalPages := (total + page.Size - 1) / page.Size
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page.Number - 1) * page.Size
	if start >= total {
		return Result{Items: []model.FlowRecord{}, Total: total, Page: page.Number, TotalPages: totalPages}
	}
	end := start + page.Size
	if end > total {
		end = total
	}

	return Result{Items: filtered[start:end], Total: total, Page: page.Number, TotalPages: totalPages}
}

func lessFunc(key string) func(a, b model.FlowRecord) bool {
	switch key {
	case SortSrcIP:
		return func(a, b model.FlowRecord) bool { return a.SrcIP < b.SrcIP }
	case SortDstIP:
		return func(a, b model.FlowRecord) bool { return a.DstIP < b.DstIP }
	case SortProtocol:
		return func(a, b model.FlowRecord) bool { return a.Protocol < b.Protocol }
	case SortBytes:
		return func(a, b model.FlowRecord) bool { return a.Bytes() < b.Bytes() }
	case SortPackets:
		return func(a, b model.FlowRecord) bool { return a.TotalPackets < b.TotalPackets }
	default:
		return func(a, b model.FlowRecord) bool { return a.Timestamp < b.Timestamp }
	}
}
