// Package parser - Ansible YAML front-end
package parser

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"finopsguard/core/types"
	"finopsguard/internal/logging"
)

// reservedTaskKeys are task-level keywords that can never be module names.
var reservedTaskKeys = map[string]bool{
	"name":     true,
	"vars":     true,
	"when":     true,
	"loop":     true,
	"register": true,
	"tags":     true,
}

// simpleTemplate matches a bare {{ var_name }} with no filters or dots.
var simpleTemplate = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// ansibleParser extracts canonical resources from playbook YAML.
// Tasks are walked as yaml nodes rather than decoded maps so that key
// order follows the source document.
type ansibleParser struct {
	log *zap.Logger
}

func newAnsibleParser() *ansibleParser {
	return &ansibleParser{log: logging.Named("parser.ansible")}
}

// Parse accepts a single play or a list of plays. Malformed YAML yields
// an empty model.
func (p *ansibleParser) Parse(payload string) *types.CanonicalResourceModel {
	model := &types.CanonicalResourceModel{Resources: []types.CanonicalResource{}}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(payload), &root); err != nil {
		p.log.Warn("failed to parse ansible payload", zap.Error(err))
		return model
	}
	if len(root.Content) == 0 {
		return model
	}
	doc := root.Content[0]

	var plays []*yaml.Node
	switch doc.Kind {
	case yaml.SequenceNode:
		for _, item := range doc.Content {
			if item.Kind == yaml.MappingNode {
				plays = append(plays, item)
			}
		}
	case yaml.MappingNode:
		plays = append(plays, doc)
	default:
		p.log.Warn("ansible payload is not a play or play list")
		return model
	}

	for _, play := range plays {
		p.parsePlay(play, model)
	}
	return model
}

func (p *ansibleParser) parsePlay(play *yaml.Node, model *types.CanonicalResourceModel) {
	playVars := decodeMap(mappingValue(play, "vars"))

	for _, section := range []string{"tasks", "handlers"} {
		items := mappingValue(play, section)
		if items == nil || items.Kind != yaml.SequenceNode {
			continue
		}
		for _, item := range items.Content {
			if item.Kind != yaml.MappingNode {
				continue
			}
			p.parseTask(item, playVars, model)
		}
	}
}

func (p *ansibleParser) parseTask(task *yaml.Node, playVars map[string]interface{}, model *types.CanonicalResourceModel) {
	moduleName, moduleParams, handler := findModule(task)
	if handler == nil {
		// No priced module in this task
		return
	}

	taskVars := decodeMap(mappingValue(task, "vars"))
	vars := mergeVars(playVars, taskVars)
	params := substituteVars(moduleParams, vars)

	name := paramString(params, moduleName, "name")
	region := ansibleRegion(moduleName, params)
	count := paramInt(params, 1, "count", "exact_count")

	resource := handler(rawResource{
		Kind:   moduleName,
		Name:   name,
		Region: region,
		Count:  count,
		Params: params,
	})
	model.Resources = append(model.Resources, resource)
}

// findModule scans task keys in source order and returns the first one
// that names a priced module. Reserved keywords and task directives
// (become, delegate_to, environment, ...) are passed over, so a task
// may carry any number of them around its module key.
func findModule(task *yaml.Node) (string, map[string]interface{}, handlerFunc) {
	for i := 0; i+1 < len(task.Content); i += 2 {
		key := task.Content[i].Value
		if reservedTaskKeys[key] {
			continue
		}
		handler := lookupAnsibleHandler(key)
		if handler == nil {
			continue
		}
		return key, decodeMap(task.Content[i+1]), handler
	}
	return "", nil, nil
}

// lookupAnsibleHandler resolves a module name against the per-cloud
// tables. Modules without an entry are outside the priced universe,
// whatever their prefix.
func lookupAnsibleHandler(module string) handlerFunc {
	if h, ok := awsAnsibleModules[module]; ok {
		return h
	}
	if h, ok := gcpAnsibleModules[module]; ok {
		return h
	}
	if h, ok := azureAnsibleModules[module]; ok {
		return h
	}
	return nil
}

// ansibleRegion resolves the region parameter with cloud defaults.
func ansibleRegion(module string, params map[string]interface{}) string {
	if region := paramString(params, "", "region", "location"); region != "" {
		return region
	}
	if zone := paramString(params, "", "zone"); zone != "" {
		if strings.HasPrefix(module, "gcp_") || strings.HasPrefix(module, "gce_") {
			return normalizeGCPZone(zone)
		}
		return zone
	}
	switch {
	case strings.HasPrefix(module, "gcp_"), strings.HasPrefix(module, "gce_"):
		return defaultGCPRegion
	case strings.HasPrefix(module, "azure_"), strings.HasPrefix(module, "azurerm_"):
		return defaultAzureRegion
	default:
		return defaultAWSRegion
	}
}

// mergeVars overlays task vars on playbook vars.
func mergeVars(playVars, taskVars map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(playVars)+len(taskVars))
	for k, v := range playVars {
		merged[k] = v
	}
	for k, v := range taskVars {
		merged[k] = v
	}
	return merged
}

// substituteVars applies simple {{ var }} substitution to string
// parameter values. Filtered or dotted templates stay untouched.
func substituteVars(params, vars map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for key, value := range params {
		if s, ok := value.(string); ok {
			out[key] = substituteString(s, vars)
		} else {
			out[key] = value
		}
	}
	return out
}

func substituteString(s string, vars map[string]interface{}) interface{} {
	// A value that is exactly one template resolves to the raw var,
	// preserving numbers and maps.
	if m := simpleTemplate.FindStringSubmatch(strings.TrimSpace(s)); m != nil && strings.TrimSpace(s) == m[0] {
		if v, ok := vars[m[1]]; ok {
			return v
		}
		return s
	}
	return simpleTemplate.ReplaceAllStringFunc(s, func(match string) string {
		name := simpleTemplate.FindStringSubmatch(match)[1]
		if v, ok := vars[name]; ok {
			if str, ok := v.(string); ok {
				return str
			}
		}
		return match
	})
}

// mappingValue returns the value node for a key of a mapping node.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// decodeMap decodes a mapping node into a plain map. Non-mapping or
// absent nodes yield an empty map.
func decodeMap(node *yaml.Node) map[string]interface{} {
	out := map[string]interface{}{}
	if node == nil {
		return out
	}
	if err := node.Decode(&out); err != nil {
		return map[string]interface{}{}
	}
	return out
}
