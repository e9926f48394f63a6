//go:build integration

package ebay_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/ebaybuy/internal/ebay"
)

// sandboxClient talks to the eBay sandbox with the credentials in
// EBAYBUY_CLIENT_ID and EBAYBUY_CLIENT_SECRET, skipping the test when
// either is unset.
//
//	go test -tags=integration ./internal/ebay/...
func sandboxClient(t *testing.T) *ebay.BrowseClient {
	t.Helper()

	id, secret := os.Getenv("EBAYBUY_CLIENT_ID"), os.Getenv("EBAYBUY_CLIENT_SECRET")
	if id == "" || secret == "" {
		t.Skip("EBAYBUY_CLIENT_ID and EBAYBUY_CLIENT_SECRET are not set")
	}
	return ebay.NewBrowseClient(ebay.NewTokenManager(ebay.NewCredential(id, secret, nil, true)))
}

func TestSandbox_SearchAndFollow(t *testing.T) {
	client := sandboxClient(t)
	assert.Equal(t, "sandbox", client.Tokens().Environment())

	first, err := client.Search(t.Context(), ebay.NewSearch().Keywords("drone").Limit(3))
	require.NoError(t, err)
	assert.Same(t, client.Tokens(), first.Tokens())
	for _, item := range first.Items() {
		assert.NotEmpty(t, item.ItemID)
		assert.NotEmpty(t, item.Title)
	}

	if !first.HasNext() {
		t.Skip("sandbox returned a single page")
	}
	second, err := first.Next(t.Context())
	require.NoError(t, err)
	assert.Equal(t, first.Offset()+first.Limit(), second.Offset())
	assert.True(t, second.HasPrevious())

	res, err := ebay.Collect(t.Context(), first, 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.PagesUsed, 2)
	assert.Len(t, res.Pages, res.PagesUsed)
}

func TestSandbox_BrowseQuota(t *testing.T) {
	client := sandboxClient(t)

	q, err := client.BrowseQuota(t.Context())
	require.NoError(t, err)
	assert.Positive(t, q.Limit)
	assert.LessOrEqual(t, q.Remaining, q.Limit)
	assert.False(t, q.ResetAt.IsZero())
}
