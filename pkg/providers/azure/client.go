package azure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/services/rules"
)

// fullResourceTypes maps the short type names used by the rule catalog
// to the provider's namespaced resource types.
var fullResourceTypes = map[string]string{
	"virtualMachines": "Microsoft.Compute/virtualMachines",
	"disks":           "Microsoft.Compute/disks",
	"storageAccounts": "Microsoft.Storage/storageAccounts",
	"sqlDatabases":    "Microsoft.Sql/servers/databases",
	"serverFarms":     "Microsoft.Web/serverFarms",
}

// Client reads resource inventory, utilization metrics and spend for a
// single subscription. Each client owns its token cache.
type Client struct {
	subscriptionID string
	scope          string

	resources   *armresources.Client
	metrics     *armmonitor.MetricsClient
	disks       *armcompute.DisksClient
	costFactory *armcostmanagement.ClientFactory
}

func NewClient(cred azcore.TokenCredential, subscriptionID string) (*Client, error) {
	if subscriptionID == "" {
		return nil, fmt.Errorf("subscription ID is required")
	}
	cached := newCachedCredential(cred)

	resources, err := armresources.NewClient(subscriptionID, cached, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create resources client: %w", err)
	}
	metrics, err := armmonitor.NewMetricsClient(subscriptionID, cached, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}
	disks, err := armcompute.NewDisksClient(subscriptionID, cached, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create disks client: %w", err)
	}
	costFactory, err := armcostmanagement.NewClientFactory(cached, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client factory: %w", err)
	}

	return &Client{
		subscriptionID: subscriptionID,
		scope:          fmt.Sprintf("/subscriptions/%s", subscriptionID),
		resources:      resources,
		metrics:        metrics,
		disks:          disks,
		costFactory:    costFactory,
	}, nil
}

// ListAllResources walks the subscription's resource inventory.
func (c *Client) ListAllResources(ctx context.Context) ([]domain.CloudResource, error) {
	return c.list(ctx, nil)
}

// ListResourcesOfType lists the resources of one short type, e.g.
// "virtualMachines".
func (c *Client) ListResourcesOfType(ctx context.Context, resourceType string) ([]domain.CloudResource, error) {
	fullType, ok := fullResourceTypes[resourceType]
	if !ok {
		fullType = resourceType
	}
	filter := fmt.Sprintf("resourceType eq '%s'", fullType)
	return c.list(ctx, &armresources.ClientListOptions{Filter: to.Ptr(filter)})
}

func (c *Client) list(ctx context.Context, opts *armresources.ClientListOptions) ([]domain.CloudResource, error) {
	var result []domain.CloudResource

	pager := c.resources.NewListPager(opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list resources: %w", err)
		}
		for _, res := range page.Value {
			if res == nil || res.ID == nil {
				continue
			}
			result = append(result, c.toCloudResource(res))
		}
	}

	return result, nil
}

func (c *Client) toCloudResource(res *armresources.GenericResourceExpanded) domain.CloudResource {
	resource := domain.CloudResource{
		ID:             *res.ID,
		SubscriptionID: c.subscriptionID,
		Tags:           map[string]string{},
		Metrics:        map[string]float64{},
	}
	if res.Name != nil {
		resource.Name = *res.Name
	}
	if res.Type != nil {
		resource.Type = shortType(*res.Type)
	}
	for k, v := range res.Tags {
		if v != nil {
			resource.Tags[k] = *v
		}
	}
	// The SKU name doubles as the sizing tag the rule catalog reads.
	if res.SKU != nil && res.SKU.Name != nil {
		resource.Tags["sku"] = *res.SKU.Name
		if resource.Type == "virtualMachines" {
			resource.Tags["vmSize"] = *res.SKU.Name
		}
	}
	return resource
}

// GetMetricAverage averages a platform metric over the lookback window.
// A nil value with a nil error means the platform reported no data
// points for the window.
func (c *Client) GetMetricAverage(ctx context.Context, resourceID, metricName string, lookbackDays int) (*float64, error) {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -lookbackDays)
	timespan := fmt.Sprintf("%s/%s", start.Format(time.RFC3339), end.Format(time.RFC3339))

	resp, err := c.metrics.List(ctx, resourceID, &armmonitor.MetricsClientListOptions{
		Timespan:    to.Ptr(timespan),
		Interval:    to.Ptr("P1D"),
		Metricnames: to.Ptr(metricName),
		Aggregation: to.Ptr(string(armmonitor.AggregationTypeAverage)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query metric %s: %w", metricName, err)
	}

	var sum float64
	var count int
	for _, metric := range resp.Value {
		if metric == nil {
			continue
		}
		for _, series := range metric.Timeseries {
			if series == nil {
				continue
			}
			for _, point := range series.Data {
				if point == nil || point.Average == nil {
					continue
				}
				sum += *point.Average
				count++
			}
		}
	}
	if count == 0 {
		return nil, nil
	}
	avg := sum / float64(count)
	return &avg, nil
}

// ListUnattachedDisks returns the subscription's managed disks that are
// not attached to any VM.
func (c *Client) ListUnattachedDisks(ctx context.Context) ([]rules.UnattachedDisk, error) {
	var result []rules.UnattachedDisk

	pager := c.disks.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list disks: %w", err)
		}
		for _, disk := range page.Value {
			if disk == nil || disk.ID == nil || disk.Properties == nil {
				continue
			}
			if disk.Properties.DiskState == nil || *disk.Properties.DiskState != armcompute.DiskStateUnattached {
				continue
			}

			unattached := rules.UnattachedDisk{ID: *disk.ID}
			if disk.Name != nil {
				unattached.Name = *disk.Name
			}
			if disk.SKU != nil && disk.SKU.Name != nil {
				unattached.SKU = string(*disk.SKU.Name)
			}
			if disk.Properties.DiskSizeGB != nil {
				unattached.SizeGB = float64(*disk.Properties.DiskSizeGB)
			}
			if disk.Properties.TimeCreated != nil {
				unattached.CreatedAt = *disk.Properties.TimeCreated
			}
			result = append(result, unattached)
		}
	}

	return result, nil
}

// GetMonthlySpendByResource returns month-to-date actual cost keyed by
// resource ID.
func (c *Client) GetMonthlySpendByResource(ctx context.Context) (map[string]float64, error) {
	client := c.costFactory.NewQueryClient()

	exportType := armcostmanagement.ExportTypeActualCost
	timeframe := armcostmanagement.TimeframeTypeMonthToDate
	dimension := armcostmanagement.QueryColumnTypeDimension
	sum := armcostmanagement.FunctionTypeSum

	params := armcostmanagement.QueryDefinition{
		Type:      &exportType,
		Timeframe: &timeframe,
		Dataset: &armcostmanagement.QueryDataset{
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("Cost"),
					Function: &sum,
				},
			},
			Grouping: []*armcostmanagement.QueryGrouping{
				{
					Name: to.Ptr("ResourceId"),
					Type: &dimension,
				},
			},
		},
	}

	result, err := client.Usage(ctx, c.scope, params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query costs: %w", err)
	}

	costIdx, resourceIdx := -1, -1
	for i, col := range result.Properties.Columns {
		if col == nil || col.Name == nil {
			continue
		}
		switch {
		case strings.EqualFold(*col.Name, "Cost"), strings.EqualFold(*col.Name, "totalCost"):
			costIdx = i
		case strings.EqualFold(*col.Name, "ResourceId"):
			resourceIdx = i
		}
	}
	if costIdx < 0 || resourceIdx < 0 {
		return nil, fmt.Errorf("cost query result missing expected columns")
	}

	costs := make(map[string]float64)
	for _, row := range result.Properties.Rows {
		if len(row) <= costIdx || len(row) <= resourceIdx {
			continue
		}
		cost, ok := row[costIdx].(float64)
		if !ok {
			continue
		}
		resourceID := fmt.Sprintf("%v", row[resourceIdx])
		costs[resourceID] += cost
	}

	return costs, nil
}

// GetMonthlySpend returns the subscription's total month-to-date cost.
func (c *Client) GetMonthlySpend(ctx context.Context) (float64, error) {
	byResource, err := c.GetMonthlySpendByResource(ctx)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, cost := range byResource {
		total += cost
	}
	return total, nil
}

func shortType(fullType string) string {
	for short, full := range fullResourceTypes {
		if strings.EqualFold(full, fullType) {
			return short
		}
	}
	if idx := strings.LastIndex(fullType, "/"); idx >= 0 {
		return fullType[idx+1:]
	}
	return fullType
}
