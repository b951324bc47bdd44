// Package parser - AWS resource handlers
package parser

import (
	"fmt"

	"finopsguard/core/types"
)

// awsTerraformHandlers routes Terraform resource kinds to handlers.
// ALB and classic ELB both normalize to aws_lb so downstream pricing
// treats them uniformly.
var awsTerraformHandlers = map[string]handlerFunc{
	"aws_instance":                 awsInstance,
	"aws_autoscaling_group":        awsAutoscalingGroup,
	"aws_lambda_function":          awsLambda,
	"aws_db_instance":              awsRDS,
	"aws_rds_cluster_instance":     awsRDS,
	"aws_dynamodb_table":           awsDynamoDB,
	"aws_s3_bucket":                awsS3,
	"aws_lb":                       awsLoadBalancer,
	"aws_alb":                      awsLoadBalancer,
	"aws_elb":                      awsLoadBalancer,
	"aws_eks_cluster":              awsEKS,
	"aws_elasticache_cluster":      awsElastiCache,
	"aws_redshift_cluster":         awsRedshift,
	"aws_opensearch_domain":        awsOpenSearch,
	"aws_elasticsearch_domain":     awsOpenSearch,
	"aws_neptune_cluster_instance": awsNeptune,
	"aws_docdb_cluster_instance":   awsDocDB,
	"aws_msk_cluster":              awsMSK,
}

// awsAnsibleModules routes Ansible module names to handlers.
var awsAnsibleModules = map[string]handlerFunc{
	"ec2_instance":       awsInstance,
	"ec2":                awsInstance,
	"aws_instance":       awsInstance,
	"lambda_function":    awsLambda,
	"rds_instance":       awsRDS,
	"rds":                awsRDS,
	"s3_bucket":          awsS3,
	"aws_s3":             awsS3,
	"elb_application_lb": awsLoadBalancer,
	"aws_eks_cluster":    awsEKS,
}

func awsInstance(raw rawResource) types.CanonicalResource {
	size := paramString(raw.Params, "t3.micro", "instance_type", "type")
	r := newResource(raw, "aws_instance", "ec2", size)
	r.Tags = paramTags(raw.Params, "tags")
	return r
}

func awsAutoscalingGroup(raw rawResource) types.CanonicalResource {
	size := paramString(raw.Params, "t3.micro", "instance_type")
	desired := paramInt(raw.Params, raw.Count, "desired_capacity")
	r := newResource(raw, "aws_autoscaling_group", "asg", size)
	r.Count = desired
	r.Metadata = map[string]interface{}{
		"min_size": paramInt(raw.Params, 1, "min_size"),
		"max_size": paramInt(raw.Params, desired, "max_size"),
	}
	return r
}

func awsLambda(raw rawResource) types.CanonicalResource {
	memory := paramInt(raw.Params, 128, "memory_size", "memory")
	runtime := paramString(raw.Params, "python3.11", "runtime")
	size := fmt.Sprintf("%dMB-%s", memory, runtime)
	r := newResource(raw, "aws_lambda_function", "lambda", size)
	r.Metadata = map[string]interface{}{"memory_mb": memory, "runtime": runtime}
	return r
}

func awsRDS(raw rawResource) types.CanonicalResource {
	size := paramString(raw.Params, "db.t3.micro", "instance_class", "db_instance_class")
	r := newResource(raw, "aws_db_instance", "rds", size)
	r.Metadata = map[string]interface{}{
		"engine":     paramString(raw.Params, "postgres", "engine"),
		"storage_gb": paramInt(raw.Params, 20, "allocated_storage", "size"),
	}
	return r
}

func awsDynamoDB(raw rawResource) types.CanonicalResource {
	billing := paramString(raw.Params, "PROVISIONED", "billing_mode")
	r := newResource(raw, "aws_dynamodb_table", "dynamodb", billing)
	r.Metadata = map[string]interface{}{
		"billing_mode":   billing,
		"read_capacity":  paramInt(raw.Params, 5, "read_capacity"),
		"write_capacity": paramInt(raw.Params, 5, "write_capacity"),
	}
	return r
}

func awsS3(raw rawResource) types.CanonicalResource {
	tier := paramString(raw.Params, "standard", "storage_class")
	r := newResource(raw, "aws_s3_bucket", "s3", tier)
	r.Tags = paramTags(raw.Params, "tags")
	return r
}

func awsLoadBalancer(raw rawResource) types.CanonicalResource {
	kind := paramString(raw.Params, "application", "load_balancer_type", "type")
	return newResource(raw, "aws_lb", "lb", kind)
}

func awsEKS(raw rawResource) types.CanonicalResource {
	version := paramString(raw.Params, "latest", "version")
	return newResource(raw, "aws_eks_cluster", "eks", version)
}

func awsElastiCache(raw rawResource) types.CanonicalResource {
	size := paramString(raw.Params, "cache.t3.micro", "node_type", "cache_node_type")
	r := newResource(raw, "aws_elasticache_cluster", "elasticache", size)
	r.Count = paramInt(raw.Params, raw.Count, "num_cache_nodes")
	return r
}

func awsRedshift(raw rawResource) types.CanonicalResource {
	size := paramString(raw.Params, "dc2.large", "node_type")
	r := newResource(raw, "aws_redshift_cluster", "redshift", size)
	r.Count = paramInt(raw.Params, raw.Count, "number_of_nodes")
	return r
}

func awsOpenSearch(raw rawResource) types.CanonicalResource {
	size := paramString(raw.Params, "t3.small.search", "instance_type")
	r := newResource(raw, "aws_opensearch_domain", "opensearch", size)
	r.Count = paramInt(raw.Params, raw.Count, "instance_count")
	return r
}

func awsNeptune(raw rawResource) types.CanonicalResource {
	size := paramString(raw.Params, "db.t3.medium", "instance_class")
	return newResource(raw, "aws_neptune_cluster_instance", "neptune", size)
}

func awsDocDB(raw rawResource) types.CanonicalResource {
	size := paramString(raw.Params, "db.t3.medium", "instance_class")
	return newResource(raw, "aws_docdb_cluster_instance", "docdb", size)
}

func awsMSK(raw rawResource) types.CanonicalResource {
	size := paramString(raw.Params, "kafka.t3.small", "instance_type", "broker_instance_type")
	r := newResource(raw, "aws_msk_cluster", "msk", size)
	r.Count = paramInt(raw.Params, raw.Count, "number_of_broker_nodes")
	return r
}
