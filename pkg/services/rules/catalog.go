package rules

import (
	"context"
	"fmt"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/services/pricing"
)

// Azure resource type strings as stored on ingested resources.
const (
	TypeVirtualMachine = "virtualMachines"
	TypeStorageAccount = "storageAccounts"
	TypeSQLDatabase    = "sqlDatabases"
	TypeAppServicePlan = "serverFarms"
)

// Catalog is the fixed, ordered rule set. Per-organization behavior
// comes from overrides resolved by the registry; the definitions
// themselves are never mutated at runtime.
func Catalog() []Definition {
	return []Definition{
		{
			ID:    "azure.vm.rightsize",
			Label: "Rightsize underutilized virtual machines",
			Defaults: Config{
				Enabled: true,
				Thresholds: map[string]float64{
					"cpuPercent":   20,
					"lookbackDays": 30,
					"minImpact":    25,
				},
			},
			Run: runVMRightsize,
		},
		{
			ID:    "azure.disk.unattached",
			Label: "Downgrade long-unattached managed disks",
			Defaults: Config{
				Enabled: true,
				Thresholds: map[string]float64{
					"minAgeDays": 7,
					"minImpact":  10,
				},
			},
			Run: runUnattachedDisks,
		},
		{
			ID:    "azure.storage.tier",
			Label: "Cool down rarely accessed storage accounts",
			Defaults: Config{
				Enabled: true,
				Thresholds: map[string]float64{
					"txnPerDay":    1000,
					"lookbackDays": 30,
					"minImpact":    5,
				},
			},
			Run: runStorageTier,
		},
		{
			ID:    "azure.sql.rightsize",
			Label: "Rightsize underutilized SQL databases",
			Defaults: Config{
				Enabled: true,
				Thresholds: map[string]float64{
					"dtuPercent":   30,
					"lookbackDays": 30,
					"minImpact":    20,
				},
			},
			Run: runSQLRightsize,
		},
		{
			ID:    "azure.appservice.rightsize",
			Label: "Rightsize underutilized App Service plans",
			Defaults: Config{
				Enabled: true,
				Thresholds: map[string]float64{
					"cpuPercent":   25,
					"lookbackDays": 30,
					"minImpact":    15,
				},
			},
			Run: runAppServiceRightsize,
		},
	}
}

func runVMRightsize(ctx context.Context, rc Context, cfg Config) ([]domain.RecommendationPayload, error) {
	resources, err := rc.Resources.ListByOrgAndType(ctx, rc.OrgID, TypeVirtualMachine)
	if err != nil {
		return nil, fmt.Errorf("list virtual machines: %w", err)
	}

	var payloads []domain.RecommendationPayload
	for _, res := range resources {
		size, ok := res.Tag(vmSizeTagKeys...)
		if !ok {
			continue
		}

		cpu := signalFor(ctx, rc, res, "Percentage CPU", int(cfg.Threshold("lookbackDays")), cpuMetricFallbackKeys)
		if cpu == nil || *cpu >= cfg.Threshold("cpuPercent") {
			continue
		}

		target, ok := pricing.VMSize.RecommendedTier(size)
		if !ok {
			continue
		}
		impact := pricing.VMSize.EstimateSavings(size, target)
		if impact < cfg.Threshold("minImpact") {
			continue
		}

		payloads = append(payloads, domain.RecommendationPayload{
			Title:         fmt.Sprintf("Rightsize VM %s to %s", res.Name, target),
			Description:   describeDowngrade("VM", res.Name, size, target, *cpu, "% CPU"),
			ImpactMonthly: impact,
			Confidence:    confidenceFor(*cpu, cfg.Threshold("cpuPercent")),
			Details:       payloadDetails(res, "rightsize", size, target),
		})
	}
	return payloads, nil
}

func runUnattachedDisks(ctx context.Context, rc Context, cfg Config) ([]domain.RecommendationPayload, error) {
	disks, err := rc.Provider.ListUnattachedDisks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unattached disks: %w", err)
	}

	var payloads []domain.RecommendationPayload
	for _, disk := range disks {
		// Whole days, recomputed fresh from wall clock each run.
		ageDays := int(rc.Now().Sub(disk.CreatedAt).Hours() / 24)
		if float64(ageDays) < cfg.Threshold("minAgeDays") {
			continue
		}

		target, ok := pricing.DiskSKU.RecommendedTier(disk.SKU)
		if !ok {
			continue
		}
		impact := pricing.DiskSKU.EstimateSavingsForSize(disk.SKU, target, disk.SizeGB)
		if impact < cfg.Threshold("minImpact") {
			continue
		}

		details := map[string]string{
			"resourceId": disk.ID,
			"action":     "downgrade_disk",
			"currentSku": disk.SKU,
			"targetSku":  target,
			"ageDays":    fmt.Sprintf("%d", ageDays),
		}
		if repo, ok := lookupTag(disk.Tags, repoTagKeys); ok {
			details["repo"] = repo
		}

		payloads = append(payloads, domain.RecommendationPayload{
			Title: fmt.Sprintf("Downgrade unattached disk %s to %s", disk.Name, target),
			Description: fmt.Sprintf(
				"Disk %q has been unattached for %d days; moving %s -> %s saves %.0f GB of premium storage spend.",
				disk.Name, ageDays, disk.SKU, target, disk.SizeGB,
			),
			ImpactMonthly: impact,
			Confidence:    0.95,
			Details:       details,
		})
	}
	return payloads, nil
}

func runStorageTier(ctx context.Context, rc Context, cfg Config) ([]domain.RecommendationPayload, error) {
	resources, err := rc.Resources.ListByOrgAndType(ctx, rc.OrgID, TypeStorageAccount)
	if err != nil {
		return nil, fmt.Errorf("list storage accounts: %w", err)
	}

	var payloads []domain.RecommendationPayload
	for _, res := range resources {
		tier, ok := res.Tag(accessTierTagKeys...)
		if !ok {
			continue
		}

		txn := signalFor(ctx, rc, res, "Transactions", int(cfg.Threshold("lookbackDays")), txnMetricFallbackKeys)
		if txn == nil || *txn >= cfg.Threshold("txnPerDay") {
			continue
		}

		capacity := res.Metric(capacityMetricKeys...)
		if capacity == nil {
			continue
		}

		target, ok := pricing.StorageTier.RecommendedTier(tier)
		if !ok {
			continue
		}
		impact := pricing.StorageTier.EstimateSavingsForSize(tier, target, *capacity)
		if impact < cfg.Threshold("minImpact") {
			continue
		}

		payloads = append(payloads, domain.RecommendationPayload{
			Title:         fmt.Sprintf("Move storage account %s to the %s tier", res.Name, target),
			Description:   describeDowngrade("Storage account", res.Name, tier, target, *txn, "transactions/day"),
			ImpactMonthly: impact,
			Confidence:    confidenceFor(*txn, cfg.Threshold("txnPerDay")),
			Details:       payloadDetails(res, "retier_storage", tier, target),
		})
	}
	return payloads, nil
}

func runSQLRightsize(ctx context.Context, rc Context, cfg Config) ([]domain.RecommendationPayload, error) {
	resources, err := rc.Resources.ListByOrgAndType(ctx, rc.OrgID, TypeSQLDatabase)
	if err != nil {
		return nil, fmt.Errorf("list sql databases: %w", err)
	}

	var payloads []domain.RecommendationPayload
	for _, res := range resources {
		objective, ok := res.Tag(sqlTierTagKeys...)
		if !ok {
			continue
		}

		dtu := signalFor(ctx, rc, res, "dtu_consumption_percent", int(cfg.Threshold("lookbackDays")), dtuMetricFallbackKeys)
		if dtu == nil || *dtu >= cfg.Threshold("dtuPercent") {
			continue
		}

		target, ok := pricing.SQLTier.RecommendedTier(objective)
		if !ok {
			continue
		}
		impact := pricing.SQLTier.EstimateSavings(objective, target)
		if impact < cfg.Threshold("minImpact") {
			continue
		}

		payloads = append(payloads, domain.RecommendationPayload{
			Title:         fmt.Sprintf("Rightsize SQL database %s to %s", res.Name, target),
			Description:   describeDowngrade("SQL database", res.Name, objective, target, *dtu, "% DTU"),
			ImpactMonthly: impact,
			Confidence:    confidenceFor(*dtu, cfg.Threshold("dtuPercent")),
			Details:       payloadDetails(res, "rightsize_sql", objective, target),
		})
	}
	return payloads, nil
}

func runAppServiceRightsize(ctx context.Context, rc Context, cfg Config) ([]domain.RecommendationPayload, error) {
	resources, err := rc.Resources.ListByOrgAndType(ctx, rc.OrgID, TypeAppServicePlan)
	if err != nil {
		return nil, fmt.Errorf("list app service plans: %w", err)
	}

	var payloads []domain.RecommendationPayload
	for _, res := range resources {
		sku, ok := res.Tag(appPlanTagKeys...)
		if !ok {
			continue
		}

		cpu := signalFor(ctx, rc, res, "CpuPercentage", int(cfg.Threshold("lookbackDays")), planMetricFallbackKeys)
		if cpu == nil || *cpu >= cfg.Threshold("cpuPercent") {
			continue
		}

		target, ok := pricing.AppPlanTier.RecommendedTier(sku)
		if !ok {
			continue
		}
		impact := pricing.AppPlanTier.EstimateSavings(sku, target)
		if impact < cfg.Threshold("minImpact") {
			continue
		}

		payloads = append(payloads, domain.RecommendationPayload{
			Title:         fmt.Sprintf("Rightsize App Service plan %s to %s", res.Name, target),
			Description:   describeDowngrade("App Service plan", res.Name, sku, target, *cpu, "% CPU"),
			ImpactMonthly: impact,
			Confidence:    confidenceFor(*cpu, cfg.Threshold("cpuPercent")),
			Details:       payloadDetails(res, "rightsize_plan", sku, target),
		})
	}
	return payloads, nil
}

func lookupTag(tags map[string]string, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := tags[k]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}
