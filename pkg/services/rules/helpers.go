package rules

import (
	"context"
	"fmt"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Accepted key aliases for semantic tag/metric fields, probed in
// priority order. Providers and older ingest versions wrote different
// spellings; new code should only ever add to the tail of a list.
var (
	vmSizeTagKeys      = []string{"vmSize", "vm_size", "size"}
	accessTierTagKeys  = []string{"accessTier", "access_tier", "tier"}
	sqlTierTagKeys     = []string{"serviceObjective", "service_objective", "sku"}
	appPlanTagKeys     = []string{"planSku", "plan_sku", "sku"}
	repoTagKeys        = []string{"costpilot:repo", "iac_repo", "repo"}
	capacityMetricKeys = []string{"used_capacity_gb", "usedCapacityGb", "capacity_gb"}

	cpuMetricFallbackKeys  = []string{"cpu_avg_30d", "cpuAvg30d", "avg_cpu_percent"}
	txnMetricFallbackKeys  = []string{"transactions_avg_30d", "txnAvg30d"}
	dtuMetricFallbackKeys  = []string{"dtu_avg_30d", "dtuAvg30d", "avg_dtu_percent"}
	planMetricFallbackKeys = []string{"plan_cpu_avg_30d", "planCpuAvg30d"}
)

// signalFor obtains a utilization signal for a resource: a live metric
// query first, then the metric cached on the resource record if the
// live call fails. A nil result means no signal is determinable and the
// resource must be skipped, never treated as zero.
func signalFor(
	ctx context.Context,
	rc Context,
	res domain.CloudResource,
	metricName string,
	lookbackDays int,
	fallbackKeys []string,
) *float64 {
	value, err := rc.Provider.GetMetricAverage(ctx, res.ID, metricName, lookbackDays)
	if err == nil {
		return value
	}

	zerolog.Ctx(ctx).Warn().
		Err(err).
		Str("resource", res.ID).
		Str("metric", metricName).
		Msg("live metric query failed, falling back to cached value")

	return res.Metric(fallbackKeys...)
}

// payloadDetails assembles the mandatory and conventional detail keys
// for a payload emitted against a stored resource.
func payloadDetails(res domain.CloudResource, action, currentSKU, targetSKU string) map[string]string {
	details := map[string]string{
		"resourceId": res.ID,
		"action":     action,
		"currentSku": currentSKU,
		"targetSku":  targetSKU,
	}
	if res.SubscriptionID != "" {
		details["subscriptionId"] = res.SubscriptionID
	}
	if repo, ok := res.Tag(repoTagKeys...); ok {
		details["repo"] = repo
	}
	return details
}

// confidenceFor grades how far below the threshold the signal sits.
func confidenceFor(signal, threshold float64) float64 {
	if threshold > 0 && signal < threshold/2 {
		return 0.9
	}
	return 0.7
}

func describeDowngrade(kind, name, current, target string, signal float64, metric string) string {
	return fmt.Sprintf(
		"%s %q averaged %.1f %s over the evaluation window; moving %s -> %s reduces monthly spend.",
		kind, name, signal, metric, current, target,
	)
}
