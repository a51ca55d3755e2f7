package rules

import (
	"context"
	"time"

	"github.com/de-tools/costpilot/pkg/models/domain"
)

// Config is a rule's effective configuration after the registry merged
// the catalog defaults with the organization's overrides.
type Config struct {
	Enabled    bool
	Thresholds map[string]float64
}

// Threshold returns a named threshold value. Merged configs always carry
// every default key, so a missing name yields zero.
func (c Config) Threshold(name string) float64 {
	return c.Thresholds[name]
}

// ResourceStore is the slice of the persistent store rules read from.
type ResourceStore interface {
	ListByOrgAndType(ctx context.Context, orgID, resourceType string) ([]domain.CloudResource, error)
}

// UnattachedDisk is a managed disk the provider reports as not attached
// to any VM.
type UnattachedDisk struct {
	ID        string
	Name      string
	SKU       string
	SizeGB    float64
	CreatedAt time.Time
	Tags      map[string]string
}

// Provider is the cloud-provider surface rules query live signals from.
// GetMetricAverage returns nil (without error) when the provider has no
// data for the window; an error means the call itself failed and the
// caller may fall back to cached metrics.
type Provider interface {
	GetMetricAverage(ctx context.Context, resourceID, metricName string, lookbackDays int) (*float64, error)
	ListUnattachedDisks(ctx context.Context) ([]UnattachedDisk, error)
}

// Context is the shared evaluation context handed to every rule in a run.
type Context struct {
	OrgID     string
	Resources ResourceStore
	Provider  Provider
	Now       func() time.Time
}

// Executor evaluates one rule against the org's current data.
type Executor func(ctx context.Context, rc Context, cfg Config) ([]domain.RecommendationPayload, error)

// Definition is an immutable catalog entry: identity, label, default
// configuration, and the evaluation procedure. Per-org behavior comes
// exclusively from configuration overrides layered on the defaults.
type Definition struct {
	ID       string
	Label    string
	Defaults Config
	Run      Executor
}
