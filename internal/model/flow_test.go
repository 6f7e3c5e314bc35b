package model

import (
	"encoding/json"
	"testing"
)

func TestByteCountDecodeTolerance(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantValue uint64
		wantValid bool
	}{
		{"number", `{"src_ip":"a","dst_ip":"b","total_bytes":1200}`, 1200, true},
		{"zero", `{"src_ip":"a","dst_ip":"b","total_bytes":0}`, 0, true},
		{"float truncates", `{"src_ip":"a","dst_ip":"b","total_bytes":99.9}`, 99, true},
		{"string", `{"src_ip":"a","dst_ip":"b","total_bytes":"n/a"}`, 0, false},
		{"negative", `{"src_ip":"a","dst_ip":"b","total_bytes":-5}`, 0, false},
		{"null", `{"src_ip":"a","dst_ip":"b","total_bytes":null}`, 0, false},
		{"absent", `{"src_ip":"a","dst_ip":"b"}`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flow FlowRecord
			if err := json.Unmarshal([]byte(tt.payload), &flow); err != nil {
				t.Fatalf("Unmarshal() error = %v, byte counters must never fail the record", err)
			}
			if flow.TotalBytes.Value != tt.wantValue || flow.TotalBytes.Valid != tt.wantValid {
				t.Errorf("TotalBytes = %+v, want value %d valid %v", flow.TotalBytes, tt.wantValue, tt.wantValid)
			}
		})
	}
}

func TestByteCountMarshal(t *testing.T) {
	data, err := json.Marshal(Count(1200))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "1200" {
		t.Errorf("marshal = %s, want plain number", data)
	}
}

func TestEndpointFormatting(t *testing.T) {
	flow := FlowRecord{SrcIP: "10.0.0.1", SrcPort: 443, DstIP: "10.0.0.2", DstPort: 51000}
	if got := flow.Source(); got != "10.0.0.1:443" {
		t.Errorf("Source() = %q", got)
	}
	if got := flow.Destination(); got != "10.0.0.2:51000" {
		t.Errorf("Destination() = %q", got)
	}
}

func TestProtocolName(t *testing.T) {
	tests := []struct {
		protocol uint8
		want     string
	}{
		{1, "ICMP"},
		{6, "TCP"},
		{17, "UDP"},
		{47, "Protocol 47"},
	}
	for _, tt := range tests {
		if got := ProtocolName(tt.protocol); got != tt.want {
			t.Errorf("ProtocolName(%d) = %q, want %q", tt.protocol, got, tt.want)
		}
	}
}
