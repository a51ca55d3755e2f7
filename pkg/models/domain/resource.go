package domain

import "strings"

// CloudResource is a discovered unit of billed infrastructure, refreshed
// on every sync cycle. Tags and metrics are provider-shaped free-form
// maps; MonthlyCost is nil until the first cost sync covers the resource.
type CloudResource struct {
	ID             string
	Name           string
	Type           string
	Tags           map[string]string
	Metrics        map[string]float64
	MonthlyCost    *float64
	SubscriptionID string
	OrgID          string
}

// Tag probes the resource tag map for the first of the given keys,
// case-insensitively. Provider tag keys are not normalized on ingest,
// so semantic fields carry several legacy aliases.
func (r CloudResource) Tag(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := r.Tags[k]; ok && v != "" {
			return v, true
		}
	}
	for _, k := range keys {
		for tk, v := range r.Tags {
			if v != "" && strings.EqualFold(tk, k) {
				return v, true
			}
		}
	}
	return "", false
}

// Metric probes the metric map for the first of the given keys. A nil
// return means no value was recorded under any alias.
func (r CloudResource) Metric(keys ...string) *float64 {
	for _, k := range keys {
		if v, ok := r.Metrics[k]; ok {
			val := v
			return &val
		}
	}
	return nil
}
