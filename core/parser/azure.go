// Package parser - Azure resource handlers
package parser

import (
	"fmt"

	"finopsguard/core/types"
)

// azureTerraformHandlers routes azurerm_* Terraform kinds to handlers.
var azureTerraformHandlers = map[string]handlerFunc{
	"azurerm_virtual_machine":         azureVM,
	"azurerm_linux_virtual_machine":   azureVM,
	"azurerm_windows_virtual_machine": azureVM,
	"azurerm_sql_database":            azureSQLDatabase,
	"azurerm_mssql_database":          azureSQLDatabase,
	"azurerm_sql_managed_instance":    azureSQLManagedInstance,
	"azurerm_storage_account":         azureStorageAccount,
	"azurerm_kubernetes_cluster":      azureAKS,
	"azurerm_function_app":            azureFunctionApp,
	"azurerm_linux_function_app":      azureFunctionApp,
	"azurerm_redis_cache":             azureRedis,
	"azurerm_cosmosdb_account":        azureCosmos,
	"azurerm_app_service_plan":        azureAppServicePlan,
	"azurerm_service_plan":            azureAppServicePlan,
}

// azureAnsibleModules routes azure_*/azurerm_* Ansible modules to handlers.
var azureAnsibleModules = map[string]handlerFunc{
	"azure_rm_virtualmachine":  azureVM,
	"azure_vm":                 azureVM,
	"azure_rm_sqldatabase":     azureSQLDatabase,
	"azure_rm_storageaccount":  azureStorageAccount,
	"azure_rm_aks":             azureAKS,
	"azure_rm_functionapp":     azureFunctionApp,
	"azure_rm_rediscache":      azureRedis,
	"azure_rm_cosmosdbaccount": azureCosmos,
}

func azureVM(raw rawResource) types.CanonicalResource {
	size := paramString(raw.Params, "Standard_B1s", "size", "vm_size")
	r := newResource(raw, "azurerm_virtual_machine", "vm", size)
	r.Tags = paramTags(raw.Params, "tags")
	return r
}

func azureSQLDatabase(raw rawResource) types.CanonicalResource {
	sku := paramString(raw.Params, "Basic", "sku_name", "edition")
	return newResource(raw, "azurerm_sql_database", "sql", sku)
}

func azureSQLManagedInstance(raw rawResource) types.CanonicalResource {
	sku := paramString(raw.Params, "GP_Gen5_4", "sku_name")
	return newResource(raw, "azurerm_sql_managed_instance", "sqlmi", sku)
}

func azureStorageAccount(raw rawResource) types.CanonicalResource {
	tier := paramString(raw.Params, "Standard", "account_tier")
	replication := paramString(raw.Params, "LRS", "account_replication_type")
	size := fmt.Sprintf("%s_%s", tier, replication)
	return newResource(raw, "azurerm_storage_account", "storage", size)
}

func azureAKS(raw rawResource) types.CanonicalResource {
	tier := paramString(raw.Params, "Free", "sku_tier")
	return newResource(raw, "azurerm_kubernetes_cluster", "aks", tier)
}

func azureFunctionApp(raw rawResource) types.CanonicalResource {
	return newResource(raw, "azurerm_function_app", "func", "consumption")
}

func azureRedis(raw rawResource) types.CanonicalResource {
	family := paramString(raw.Params, "C", "family")
	capacity := paramInt(raw.Params, 0, "capacity")
	size := fmt.Sprintf("%s%d", family, capacity)
	return newResource(raw, "azurerm_redis_cache", "redis", size)
}

func azureCosmos(raw rawResource) types.CanonicalResource {
	r := newResource(raw, "azurerm_cosmosdb_account", "cosmos", "provisioned")
	r.Metadata = map[string]interface{}{
		"throughput": paramInt(raw.Params, 400, "throughput"),
	}
	return r
}

func azureAppServicePlan(raw rawResource) types.CanonicalResource {
	sku := paramString(raw.Params, "B1", "sku_name", "sku")
	return newResource(raw, "azurerm_app_service_plan", "appsvc", sku)
}
