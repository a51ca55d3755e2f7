package azure

import (
	"context"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

// refreshSkew treats a token as expired this long before its reported
// expiry, so in-flight requests never ride a token about to lapse.
const refreshSkew = 60 * time.Second

// cachedCredential wraps a token credential with an instance-scoped
// cache. One cache per client; nothing is shared across organizations.
type cachedCredential struct {
	inner azcore.TokenCredential

	mu    sync.Mutex
	token azcore.AccessToken
}

func newCachedCredential(inner azcore.TokenCredential) *cachedCredential {
	return &cachedCredential{inner: inner}
}

func (c *cachedCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Token != "" && time.Until(c.token.ExpiresOn) > refreshSkew {
		return c.token, nil
	}

	token, err := c.inner.GetToken(ctx, opts)
	if err != nil {
		return azcore.AccessToken{}, err
	}
	c.token = token
	return token, nil
}
