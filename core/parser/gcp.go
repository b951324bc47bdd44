// Package parser - GCP resource handlers
package parser

import (
	"fmt"

	"finopsguard/core/types"
)

// gcpTerraformHandlers routes google_* Terraform kinds to handlers.
// Canonical types carry the gcp_ prefix regardless of source vocabulary.
var gcpTerraformHandlers = map[string]handlerFunc{
	"google_compute_instance":         gcpComputeInstance,
	"google_sql_database_instance":    gcpSQLInstance,
	"google_storage_bucket":           gcpStorageBucket,
	"google_container_cluster":        gcpGKECluster,
	"google_cloud_run_service":        gcpCloudRun,
	"google_cloud_run_v2_service":     gcpCloudRun,
	"google_cloudfunctions_function":  gcpCloudFunction,
	"google_cloudfunctions2_function": gcpCloudFunction,
	"google_redis_instance":           gcpRedis,
	"google_spanner_instance":         gcpSpanner,
}

// gcpAnsibleModules routes gcp_*/gce_* Ansible modules to handlers.
var gcpAnsibleModules = map[string]handlerFunc{
	"gcp_compute_instance":  gcpComputeInstance,
	"gce_instance":          gcpComputeInstance,
	"gcp_sql_instance":      gcpSQLInstance,
	"gcp_storage_bucket":    gcpStorageBucket,
	"gcp_container_cluster": gcpGKECluster,
	"gcp_cloudfunctions":    gcpCloudFunction,
	"gcp_redis_instance":    gcpRedis,
	"gcp_spanner_instance":  gcpSpanner,
}

func gcpComputeInstance(raw rawResource) types.CanonicalResource {
	size := paramString(raw.Params, "e2-medium", "machine_type")
	r := newResource(raw, "gcp_compute_instance", "gce", size)
	r.Tags = paramTags(raw.Params, "labels")
	return r
}

func gcpSQLInstance(raw rawResource) types.CanonicalResource {
	size := paramString(raw.Params, "db-f1-micro", "tier", "settings.tier")
	r := newResource(raw, "gcp_sql_database_instance", "cloudsql", size)
	r.Metadata = map[string]interface{}{
		"database_version": paramString(raw.Params, "POSTGRES_15", "database_version"),
	}
	return r
}

func gcpStorageBucket(raw rawResource) types.CanonicalResource {
	tier := paramString(raw.Params, "STANDARD", "storage_class")
	return newResource(raw, "gcp_storage_bucket", "gcs", tier)
}

func gcpGKECluster(raw rawResource) types.CanonicalResource {
	return newResource(raw, "gcp_gke_cluster", "gke", "standard")
}

func gcpCloudRun(raw rawResource) types.CanonicalResource {
	return newResource(raw, "gcp_cloud_run", "run", "managed")
}

func gcpCloudFunction(raw rawResource) types.CanonicalResource {
	memory := paramInt(raw.Params, 256, "available_memory_mb", "memory")
	runtime := paramString(raw.Params, "python311", "runtime")
	size := fmt.Sprintf("%dMB-%s", memory, runtime)
	return newResource(raw, "gcp_cloud_function", "func", size)
}

func gcpRedis(raw rawResource) types.CanonicalResource {
	tier := paramString(raw.Params, "BASIC", "tier")
	memory := paramInt(raw.Params, 1, "memory_size_gb")
	size := fmt.Sprintf("%s-%dGB", tier, memory)
	r := newResource(raw, "gcp_redis_instance", "memorystore", size)
	r.Metadata = map[string]interface{}{"memory_gb": memory}
	return r
}

func gcpSpanner(raw rawResource) types.CanonicalResource {
	r := newResource(raw, "gcp_spanner_instance", "spanner", "node")
	r.Count = paramInt(raw.Params, raw.Count, "num_nodes")
	return r
}
