// Package parser turns IaC documents into the canonical resource model.
// Parsers never fail hard: unsupported resource kinds are skipped and
// malformed input yields an empty model with a warning log.
package parser

import (
	"fmt"
	"strconv"

	"finopsguard/core/types"
)

// rawResource is what a format front-end hands to a cloud handler:
// the resource kind as written in the document, its local name, and
// the flattened attribute map.
type rawResource struct {
	Kind   string
	Name   string
	Region string
	Count  int
	Params map[string]interface{}
}

// handlerFunc maps one raw resource to a canonical resource.
type handlerFunc func(raw rawResource) types.CanonicalResource

// newResource composes a canonical resource with the standard
// {name}-{kindtag}-{region} id.
func newResource(raw rawResource, canonicalType, kindTag, size string) types.CanonicalResource {
	return types.CanonicalResource{
		ID:     fmt.Sprintf("%s-%s-%s", raw.Name, kindTag, raw.Region),
		Type:   canonicalType,
		Name:   raw.Name,
		Region: raw.Region,
		Size:   size,
		Count:  raw.Count,
	}
}

// paramString reads the first present string parameter, falling back
// to def when none of the keys is set.
func paramString(params map[string]interface{}, def string, keys ...string) string {
	for _, k := range keys {
		if v, ok := params[k]; ok {
			switch s := v.(type) {
			case string:
				if s != "" {
					return s
				}
			case fmt.Stringer:
				return s.String()
			}
		}
	}
	return def
}

// paramInt reads the first present integer parameter.
func paramInt(params map[string]interface{}, def int, keys ...string) int {
	for _, k := range keys {
		if v, ok := params[k]; ok {
			switch n := v.(type) {
			case int:
				return n
			case int64:
				return int(n)
			case float64:
				return int(n)
			case string:
				if parsed, err := strconv.Atoi(n); err == nil {
					return parsed
				}
			}
		}
	}
	return def
}

// paramTags extracts a string map parameter such as tags.
func paramTags(params map[string]interface{}, keys ...string) map[string]string {
	for _, k := range keys {
		v, ok := params[k]
		if !ok {
			continue
		}
		raw, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		tags := make(map[string]string, len(raw))
		for name, val := range raw {
			if s, ok := val.(string); ok {
				tags[name] = s
			}
		}
		if len(tags) > 0 {
			return tags
		}
	}
	return nil
}
