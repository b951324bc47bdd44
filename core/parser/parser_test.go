// Package parser - Canonical model extraction tests
package parser

import (
	"testing"

	"finopsguard/core/types"
)

func TestTerraformSingleInstance(t *testing.T) {
	payload := `
provider "aws" {
  region = "us-east-1"
}

resource "aws_instance" "web" {
  instance_type = "t3.medium"
}
`
	model := Parse(payload, types.IaCTerraform)
	if len(model.Resources) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(model.Resources))
	}

	r := model.Resources[0]
	if r.Type != "aws_instance" {
		t.Errorf("Expected type aws_instance, got %s", r.Type)
	}
	if r.Name != "web" {
		t.Errorf("Expected name web, got %s", r.Name)
	}
	if r.Region != "us-east-1" {
		t.Errorf("Expected region us-east-1, got %s", r.Region)
	}
	if r.Size != "t3.medium" {
		t.Errorf("Expected size t3.medium, got %s", r.Size)
	}
	if r.Count != 1 {
		t.Errorf("Expected count 1, got %d", r.Count)
	}
	if r.ID != "web-ec2-us-east-1" {
		t.Errorf("Expected id web-ec2-us-east-1, got %s", r.ID)
	}
}

func TestTerraformProviderDefaultRegion(t *testing.T) {
	payload := `
resource "aws_instance" "web" {
  instance_type = "m5.large"
}
`
	model := Parse(payload, types.IaCTerraform)
	if len(model.Resources) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(model.Resources))
	}
	if model.Resources[0].Region != "us-east-1" {
		t.Errorf("Expected default region us-east-1, got %s", model.Resources[0].Region)
	}
}

func TestTerraformResourceRegionOverride(t *testing.T) {
	payload := `
provider "aws" {
  region = "us-east-1"
}

resource "aws_db_instance" "db" {
  instance_class = "db.t3.medium"
  region         = "eu-west-1"
}
`
	model := Parse(payload, types.IaCTerraform)
	if len(model.Resources) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(model.Resources))
	}
	if model.Resources[0].Region != "eu-west-1" {
		t.Errorf("Expected region eu-west-1, got %s", model.Resources[0].Region)
	}
}

func TestTerraformGCPZoneNormalization(t *testing.T) {
	payload := `
resource "google_compute_instance" "vm" {
  machine_type = "e2-medium"
  zone         = "us-central1-a"
  count        = 2
}
`
	model := Parse(payload, types.IaCTerraform)
	if len(model.Resources) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(model.Resources))
	}

	r := model.Resources[0]
	if r.Region != "us-central1" {
		t.Errorf("Expected zone normalized to us-central1, got %s", r.Region)
	}
	if r.Count != 2 {
		t.Errorf("Expected count 2, got %d", r.Count)
	}
	if r.Type != "gcp_compute_instance" {
		t.Errorf("Expected type gcp_compute_instance, got %s", r.Type)
	}
}

func TestTerraformCountZeroPreserved(t *testing.T) {
	payload := `
resource "aws_instance" "spare" {
  instance_type = "t3.micro"
  count         = 0
}
`
	model := Parse(payload, types.IaCTerraform)
	if len(model.Resources) != 1 {
		t.Fatalf("Expected resource to be extracted even at count 0, got %d resources", len(model.Resources))
	}
	if model.Resources[0].Count != 0 {
		t.Errorf("Expected count 0, got %d", model.Resources[0].Count)
	}
}

func TestTerraformUnknownKindsSkipped(t *testing.T) {
	payload := `
resource "aws_iam_role" "role" {
  name = "deploy"
}

resource "aws_instance" "web" {
  instance_type = "t3.small"
}
`
	model := Parse(payload, types.IaCTerraform)
	if len(model.Resources) != 1 {
		t.Fatalf("Expected only the instance to survive, got %d resources", len(model.Resources))
	}
	if model.Resources[0].Type != "aws_instance" {
		t.Errorf("Expected aws_instance, got %s", model.Resources[0].Type)
	}
}

func TestTerraformMalformedYieldsEmptyModel(t *testing.T) {
	model := Parse(`resource "aws_instance" {{{ broken`, types.IaCTerraform)
	if model == nil {
		t.Fatal("Expected non-nil model for malformed input")
	}
	if len(model.Resources) != 0 {
		t.Errorf("Expected empty model, got %d resources", len(model.Resources))
	}
}

func TestTerraformDynamoDBMetadata(t *testing.T) {
	payload := `
resource "aws_dynamodb_table" "events" {
  billing_mode   = "PROVISIONED"
  read_capacity  = 10
  write_capacity = 20
}
`
	model := Parse(payload, types.IaCTerraform)
	if len(model.Resources) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(model.Resources))
	}

	r := model.Resources[0]
	if got := r.Metadata["billing_mode"]; got != "PROVISIONED" {
		t.Errorf("Expected billing_mode PROVISIONED, got %v", got)
	}
	if got := r.Metadata["read_capacity"]; got != 10 {
		t.Errorf("Expected read_capacity 10, got %v", got)
	}
	if got := r.Metadata["write_capacity"]; got != 20 {
		t.Errorf("Expected write_capacity 20, got %v", got)
	}
}

func TestTerraformUnresolvableReferencesSkipped(t *testing.T) {
	// instance_type references a variable with no evaluation context;
	// the handler falls back to its default size.
	payload := `
resource "aws_instance" "web" {
  instance_type = var.instance_type
}
`
	model := Parse(payload, types.IaCTerraform)
	if len(model.Resources) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(model.Resources))
	}
	if model.Resources[0].Size != "t3.micro" {
		t.Errorf("Expected fallback size t3.micro, got %s", model.Resources[0].Size)
	}
}

func TestAnsibleSingleTask(t *testing.T) {
	payload := `
- name: provision
  hosts: localhost
  tasks:
    - name: launch instance
      ec2_instance:
        name: worker
        instance_type: t3.medium
        region: us-east-1
`
	model := Parse(payload, types.IaCAnsible)
	if len(model.Resources) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(model.Resources))
	}

	r := model.Resources[0]
	if r.Type != "aws_instance" {
		t.Errorf("Expected type aws_instance, got %s", r.Type)
	}
	if r.Name != "worker" {
		t.Errorf("Expected name worker, got %s", r.Name)
	}
	if r.Size != "t3.medium" {
		t.Errorf("Expected size t3.medium, got %s", r.Size)
	}
	if r.Region != "us-east-1" {
		t.Errorf("Expected region us-east-1, got %s", r.Region)
	}
}

func TestAnsibleVarSubstitution(t *testing.T) {
	payload := `
- name: provision
  hosts: localhost
  vars:
    size: t3.large
    replicas: 3
  tasks:
    - name: launch
      ec2_instance:
        name: pool
        instance_type: "{{ size }}"
        count: "{{ replicas }}"
`
	model := Parse(payload, types.IaCAnsible)
	if len(model.Resources) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(model.Resources))
	}

	r := model.Resources[0]
	if r.Size != "t3.large" {
		t.Errorf("Expected substituted size t3.large, got %s", r.Size)
	}
	if r.Count != 3 {
		t.Errorf("Expected substituted count 3, got %d", r.Count)
	}
}

func TestAnsibleTaskVarsOverridePlayVars(t *testing.T) {
	payload := `
- name: provision
  hosts: localhost
  vars:
    size: t3.micro
  tasks:
    - name: launch
      vars:
        size: m5.large
      ec2_instance:
        name: big
        instance_type: "{{ size }}"
`
	model := Parse(payload, types.IaCAnsible)
	if len(model.Resources) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(model.Resources))
	}
	if model.Resources[0].Size != "m5.large" {
		t.Errorf("Expected task var to win, got %s", model.Resources[0].Size)
	}
}

func TestAnsibleTaskDirectivesDoNotShadowModule(t *testing.T) {
	payload := `
- name: provision
  hosts: localhost
  tasks:
    - name: launch instance
      become: true
      delegate_to: localhost
      ec2_instance:
        name: worker
        instance_type: t3.medium
      environment:
        AWS_PROFILE: ci
`
	// Directive keys surround the module key; detection must settle on
	// the module every time.
	for i := 0; i < 50; i++ {
		model := Parse(payload, types.IaCAnsible)
		if len(model.Resources) != 1 {
			t.Fatalf("Expected 1 resource on parse %d, got %d", i, len(model.Resources))
		}
		r := model.Resources[0]
		if r.Type != "aws_instance" {
			t.Fatalf("Expected type aws_instance on parse %d, got %s", i, r.Type)
		}
		if r.Size != "t3.medium" {
			t.Fatalf("Expected size t3.medium on parse %d, got %s", i, r.Size)
		}
	}
}

func TestAnsibleNonComputeAWSModuleSkipped(t *testing.T) {
	payload := `
- name: networking
  hosts: localhost
  tasks:
    - name: create vpc
      ec2_vpc_net:
        name: main
        cidr_block: 10.0.0.0/16
    - name: open ports
      ec2_security_group:
        name: web
        rules:
          - proto: tcp
            ports: [443]
`
	model := Parse(payload, types.IaCAnsible)
	if len(model.Resources) != 0 {
		t.Errorf("Expected non-compute modules to be skipped, got %d resources", len(model.Resources))
	}
}

func TestAnsibleUnknownModuleSkipped(t *testing.T) {
	payload := `
- name: config
  hosts: all
  tasks:
    - name: copy config
      copy:
        src: app.conf
        dest: /etc/app.conf
`
	model := Parse(payload, types.IaCAnsible)
	if len(model.Resources) != 0 {
		t.Errorf("Expected non-infrastructure module to be skipped, got %d resources", len(model.Resources))
	}
}

func TestAnsibleMalformedYieldsEmptyModel(t *testing.T) {
	model := Parse("tasks: [unclosed", types.IaCAnsible)
	if model == nil {
		t.Fatal("Expected non-nil model for malformed input")
	}
	if len(model.Resources) != 0 {
		t.Errorf("Expected empty model, got %d resources", len(model.Resources))
	}
}

func TestUnknownFormatYieldsEmptyModel(t *testing.T) {
	model := Parse("whatever", types.IaCType("pulumi"))
	if len(model.Resources) != 0 {
		t.Errorf("Expected empty model for unknown format, got %d resources", len(model.Resources))
	}
}

func TestParseIsDeterministic(t *testing.T) {
	payload := `
resource "aws_instance" "a" {
  instance_type = "t3.medium"
}

resource "aws_s3_bucket" "b" {}

resource "aws_lb" "c" {
  load_balancer_type = "application"
}
`
	first := Parse(payload, types.IaCTerraform)
	second := Parse(payload, types.IaCTerraform)

	if len(first.Resources) != len(second.Resources) {
		t.Fatalf("Resource counts differ across runs: %d vs %d", len(first.Resources), len(second.Resources))
	}
	for i := range first.Resources {
		if first.Resources[i].ID != second.Resources[i].ID {
			t.Errorf("Resource order changed at index %d: %s vs %s",
				i, first.Resources[i].ID, second.Resources[i].ID)
		}
	}
}

func TestContentHashStableAndFormatScoped(t *testing.T) {
	payload := `resource "aws_instance" "web" {}`
	if ContentHash(payload, types.IaCTerraform) != ContentHash(payload, types.IaCTerraform) {
		t.Error("Expected identical hashes for identical input")
	}
	if ContentHash(payload, types.IaCTerraform) == ContentHash(payload, types.IaCAnsible) {
		t.Error("Expected format to influence the hash")
	}
}

func TestNormalizeGCPZone(t *testing.T) {
	cases := map[string]string{
		"us-central1-a":   "us-central1",
		"europe-west1-b":  "europe-west1",
		"us-central1":     "us-central1",
		"asia-northeast1": "asia-northeast1",
	}
	for zone, want := range cases {
		if got := normalizeGCPZone(zone); got != want {
			t.Errorf("normalizeGCPZone(%s) = %s, want %s", zone, got, want)
		}
	}
}
