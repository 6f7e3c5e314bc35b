// Package pipeline decodes raw stream payloads into flow records and runs
// each record through detection, storage, and fan-out.
package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"flowscope/internal/model"
)

// Parser decodes and validates raw flow payloads.
type Parser struct {
	validate *validator.Validate
}

// NewParser creates a Parser with the flow record schema loaded.
func NewParser() *Parser {
	return &Parser{validate: validator.New()}
}

// ParseRecord decodes a single JSON flow payload. Records missing either IP
// address or the protocol number are rejected; malformed byte counters are
// tolerated and left for Normalize to repair.
func (p *Parser) ParseRecord(data []byte) (model.FlowRecord, error) {
	var flow model.FlowRecord
	if err := json.Unmarshal(data, &flow); err != nil {
		return model.FlowRecord{}, fmt.Errorf("decode flow record: %w", err)
	}
	if err := p.validate.Struct(&flow); err != nil {
		return model.FlowRecord{}, fmt.Errorf("invalid flow record: %w", err)
	}
	return flow, nil
}

// Normalize fills a missing total byte counter from the directional counters.
// It is pure and idempotent: a record that already carries a total passes
// through unchanged, so normalizing twice equals normalizing once.
func Normalize(flow model.FlowRecord) model.FlowRecord {
	if !flow.TotalBytes.Valid {
		flow.TotalBytes = model.Count(flow.FwdBytes.Value + flow.BwdBytes.Value)
	}
	return flow
}
