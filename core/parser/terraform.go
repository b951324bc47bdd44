// Package parser - Terraform HCL front-end
package parser

import (
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/zap"

	"finopsguard/core/types"
	"finopsguard/internal/logging"
)

// Provider default regions applied when the document declares no
// provider block region.
const (
	defaultAWSRegion   = "us-east-1"
	defaultGCPRegion   = "us-central1"
	defaultAzureRegion = "eastus"
)

// terraformParser extracts canonical resources from HCL text.
type terraformParser struct {
	log *zap.Logger
}

func newTerraformParser() *terraformParser {
	return &terraformParser{log: logging.Named("parser.terraform")}
}

// Parse scans the HCL document. Malformed input returns whatever
// resources parsed successfully; a fully broken document yields an
// empty model.
func (p *terraformParser) Parse(payload string) *types.CanonicalResourceModel {
	model := &types.CanonicalResourceModel{Resources: []types.CanonicalResource{}}

	file, diags := hclparse.NewParser().ParseHCL([]byte(payload), "input.tf")
	if file == nil || file.Body == nil {
		p.log.Warn("failed to parse terraform payload", zap.String("error", diags.Error()))
		return model
	}
	if diags.HasErrors() {
		p.log.Warn("terraform payload has syntax errors, keeping parseable blocks",
			zap.String("error", diags.Error()))
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return model
	}

	defaults := p.providerRegions(body)

	for _, block := range body.Blocks {
		if block.Type != "resource" || len(block.Labels) < 2 {
			continue
		}
		kind := block.Labels[0]
		name := block.Labels[1]

		handler, cloud := lookupTerraformHandler(kind)
		if handler == nil {
			// Outside the priced universe
			continue
		}

		params := attributesToParams(block.Body)
		region := p.resolveRegion(cloud, params, defaults)
		count := paramInt(params, 1, "count")

		resource := handler(rawResource{
			Kind:   kind,
			Name:   name,
			Region: region,
			Count:  count,
			Params: params,
		})
		model.Resources = append(model.Resources, resource)
	}

	return model
}

// providerRegions scrapes provider block regions for each cloud.
func (p *terraformParser) providerRegions(body *hclsyntax.Body) map[string]string {
	defaults := map[string]string{
		"aws":     defaultAWSRegion,
		"google":  defaultGCPRegion,
		"azurerm": defaultAzureRegion,
	}
	for _, block := range body.Blocks {
		if block.Type != "provider" || len(block.Labels) < 1 {
			continue
		}
		cloud := block.Labels[0]
		params := attributesToParams(block.Body)
		if region := paramString(params, "", "region", "location"); region != "" {
			defaults[cloud] = region
		}
	}
	return defaults
}

// resolveRegion applies per-resource region/location/zone overrides over
// the provider default. GCP zones normalize to their region by stripping
// the trailing zone letter.
func (p *terraformParser) resolveRegion(cloud string, params map[string]interface{}, defaults map[string]string) string {
	region := defaults[cloud]
	if override := paramString(params, "", "region", "location"); override != "" {
		region = override
	}
	if zone := paramString(params, "", "zone"); zone != "" {
		if cloud == "google" {
			region = normalizeGCPZone(zone)
		} else {
			region = zone
		}
	}
	return region
}

// normalizeGCPZone turns us-central1-a into us-central1.
func normalizeGCPZone(zone string) string {
	idx := strings.LastIndex(zone, "-")
	if idx > 0 && len(zone)-idx == 2 {
		return zone[:idx]
	}
	return zone
}

// lookupTerraformHandler resolves the handler and owning provider name
// for a Terraform resource kind.
func lookupTerraformHandler(kind string) (handlerFunc, string) {
	switch {
	case strings.HasPrefix(kind, "aws_"):
		return awsTerraformHandlers[kind], "aws"
	case strings.HasPrefix(kind, "google_"):
		return gcpTerraformHandlers[kind], "google"
	case strings.HasPrefix(kind, "azurerm_"):
		return azureTerraformHandlers[kind], "azurerm"
	default:
		return nil, ""
	}
}

// attributesToParams flattens a block body into a parameter map.
// Expressions that need evaluation context (references, functions)
// are skipped; the handlers fall back to their defaults.
func attributesToParams(body *hclsyntax.Body) map[string]interface{} {
	params := make(map[string]interface{}, len(body.Attributes))
	for name, attr := range body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			continue
		}
		if converted, ok := ctyToGo(val); ok {
			params[name] = converted
		}
	}
	// One level of nested blocks covers the common cases
	// (settings { tier = ... }, cluster_config { ... }).
	for _, nested := range body.Blocks {
		inner := attributesToParams(nested.Body)
		for k, v := range inner {
			if _, exists := params[k]; !exists {
				params[k] = v
			}
		}
	}
	return params
}

// ctyToGo converts an evaluated cty value into plain Go values.
func ctyToGo(val cty.Value) (interface{}, bool) {
	if val.IsNull() || !val.IsKnown() {
		return nil, false
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), true
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, true
	case ty == cty.Bool:
		return val.True(), true
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var out []interface{}
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			if converted, ok := ctyToGo(elem); ok {
				out = append(out, converted)
			}
		}
		return out, true
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]interface{})
		for it := val.ElementIterator(); it.Next(); {
			key, elem := it.Element()
			if converted, ok := ctyToGo(elem); ok {
				out[key.AsString()] = converted
			}
		}
		return out, true
	default:
		return nil, false
	}
}
