// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions.
package types

// Cloud represents a cloud provider
type Cloud string

const (
	CloudAWS     Cloud = "aws"
	CloudGCP     Cloud = "gcp"
	CloudAzure   Cloud = "azure"
	CloudUnknown Cloud = "unknown"
)

// String returns the string representation of the cloud
func (c Cloud) String() string {
	return string(c)
}

// IsValid checks if the cloud is a known provider
func (c Cloud) IsValid() bool {
	switch c {
	case CloudAWS, CloudGCP, CloudAzure:
		return true
	default:
		return false
	}
}

// IaCType identifies the input document format
type IaCType string

const (
	IaCTerraform IaCType = "terraform"
	IaCAnsible   IaCType = "ansible"
)

// CanonicalResource is the cloud-neutral unit of analysis extracted
// from an IaC document.
type CanonicalResource struct {
	// ID is unique within a model, composed as {name}-{kindtag}-{region}
	ID string `json:"id"`

	// Type is the discriminator, e.g. aws_instance, gcp_compute_instance
	Type string `json:"type"`

	// Name is the source-local identifier from the IaC document
	Name string `json:"name"`

	// Region is a cloud-specific region string; "global" is permitted
	Region string `json:"region"`

	// Size is a free-form SKU/tier string, e.g. t3.medium
	Size string `json:"size"`

	// Count is the declared replica count; 0 means declared but not deployed
	Count int `json:"count"`

	// Tags carries resource tags when the document declares them
	Tags map[string]string `json:"tags,omitempty"`

	// Metadata carries SKU-specific inputs such as DynamoDB capacities
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// CanonicalResourceModel is an ordered sequence of canonical resources.
// Order reflects parse order.
type CanonicalResourceModel struct {
	Resources []CanonicalResource `json:"resources"`
}

// TotalCount sums the declared counts across all resources
func (m *CanonicalResourceModel) TotalCount() int {
	total := 0
	for _, r := range m.Resources {
		total += r.Count
	}
	return total
}

// Cloud infers the cloud for a canonical resource type
func (r *CanonicalResource) Cloud() Cloud {
	switch {
	case hasPrefix(r.Type, "aws_"):
		return CloudAWS
	case hasPrefix(r.Type, "gcp_"), hasPrefix(r.Type, "google_"):
		return CloudGCP
	case hasPrefix(r.Type, "azure_"), hasPrefix(r.Type, "azurerm_"):
		return CloudAzure
	default:
		return CloudUnknown
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
