package model

import (
	"encoding/json"
	"fmt"
)

// FlowRecord represents a single network flow as received from the stream
// source. Records are immutable once normalized; the timestamp is a sort and
// display key only, the source does not guarantee it is unique.
type FlowRecord struct {
	SrcIP        string    `json:"src_ip" validate:"required,ip"`
	SrcPort      uint16    `json:"src_port"`
	DstIP        string    `json:"dst_ip" validate:"required,ip"`
	DstPort      uint16    `json:"dst_port"`
	Protocol     uint8     `json:"protocol" validate:"required"`
	TotalBytes   ByteCount `json:"total_bytes"`
	FwdBytes     ByteCount `json:"total_fwd_bytes,omitempty"`
	BwdBytes     ByteCount `json:"total_bwd_bytes,omitempty"`
	TotalPackets uint64    `json:"total_packets"`
	Duration     float64   `json:"flow_duration,omitempty"`
	Timestamp    float64   `json:"timestamp"`
}

// Bytes returns the total byte counter of the flow.
func (f FlowRecord) Bytes() uint64 {
	return f.TotalBytes.Value
}

// Source returns the source endpoint as "ip:port".
func (f FlowRecord) Source() string {
	return fmt.Sprintf("%s:%d", f.SrcIP, f.SrcPort)
}

// Destination returns the destination endpoint as "ip:port".
func (f FlowRecord) Destination() string {
	return fmt.Sprintf("%s:%d", f.DstIP, f.DstPort)
}

// ProtocolName maps an IANA protocol number to a display name.
func ProtocolName(protocol uint8) string {
	switch protocol {
	case 1:
		return "ICMP"
	case 6:
		return "TCP"
	case 17:
		return "UDP"
	default:
		return fmt.Sprintf("Protocol %d", protocol)
	}
}

// ByteCount is a byte counter that may be absent or malformed on the wire.
// An unparseable or missing value unmarshals as unset rather than failing the
// whole record; normalization fills unset totals from the directional
// counters. Once set it marshals as a plain number.
type ByteCount struct {
	Value uint64
	Valid bool
}

// Count returns a set ByteCount.
func Count(n uint64) ByteCount {
	return ByteCount{Value: n, Valid: true}
}

// MarshalJSON implements json.Marshaler.
func (c ByteCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value)
}

// UnmarshalJSON implements json.Unmarshaler. Non-numeric and negative values
// leave the counter unset.
func (c *ByteCount) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err != nil || n < 0 {
		c.Value, c.Valid = 0, false
		return nil
	}
	c.Value, c.Valid = uint64(n), true
	return nil
}
