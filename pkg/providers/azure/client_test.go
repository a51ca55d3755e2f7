package azure

import (
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/stretchr/testify/assert"
)

func TestToCloudResource_MapsSKUIntoSizingTags(t *testing.T) {
	c := &Client{subscriptionID: "sub-1"}

	resource := c.toCloudResource(&armresources.GenericResourceExpanded{
		ID:   to.Ptr("/subscriptions/sub-1/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/web-1"),
		Name: to.Ptr("web-1"),
		Type: to.Ptr("Microsoft.Compute/virtualMachines"),
		Tags: map[string]*string{"env": to.Ptr("prod")},
		SKU:  &armresources.SKU{Name: to.Ptr("Standard_D8s_v3")},
	})

	assert.Equal(t, "virtualMachines", resource.Type)
	assert.Equal(t, "sub-1", resource.SubscriptionID)
	assert.Equal(t, "prod", resource.Tags["env"])
	assert.Equal(t, "Standard_D8s_v3", resource.Tags["vmSize"])
	assert.Equal(t, "Standard_D8s_v3", resource.Tags["sku"])
}

func TestShortType(t *testing.T) {
	assert.Equal(t, "sqlDatabases", shortType("Microsoft.Sql/servers/databases"))
	assert.Equal(t, "serverFarms", shortType("Microsoft.Web/serverFarms"))
	assert.Equal(t, "virtualMachines", shortType("virtualMachines"))
	assert.Equal(t, "publicIPAddresses", shortType("Microsoft.Network/publicIPAddresses"))
}
