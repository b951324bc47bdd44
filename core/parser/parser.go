// Package parser - Format dispatch
package parser

import (
	"crypto/sha256"
	"encoding/hex"

	"finopsguard/core/types"
	"finopsguard/internal/logging"
)

// Parse turns an IaC document into a canonical resource model.
// Unknown formats and malformed input yield an empty model; the
// analysis pipeline never sees a parser failure.
func Parse(payload string, format types.IaCType) *types.CanonicalResourceModel {
	switch format {
	case types.IaCTerraform:
		return newTerraformParser().Parse(payload)
	case types.IaCAnsible:
		return newAnsibleParser().Parse(payload)
	default:
		logging.Warn("unknown iac format, returning empty model")
		return &types.CanonicalResourceModel{Resources: []types.CanonicalResource{}}
	}
}

// Parser is the injectable facade over the format parsers.
type Parser struct{}

// New returns the parser facade.
func New() *Parser {
	return &Parser{}
}

// Parse dispatches to the format parser.
func (p *Parser) Parse(payload string, format types.IaCType) *types.CanonicalResourceModel {
	return Parse(payload, format)
}

// ContentHash is the cache key for a parsed payload.
func ContentHash(payload string, format types.IaCType) string {
	sum := sha256.Sum256([]byte(string(format) + ":" + payload))
	return hex.EncodeToString(sum[:])
}
