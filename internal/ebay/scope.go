package ebay

// OAuth scopes for application (client credentials) tokens.
const (
	// ScopePublic grants access to the Buy APIs, including Browse search.
	ScopePublic = "https://api.ebay.com/oauth/api_scope"

	ScopeInventory   = "https://api.ebay.com/oauth/api_scope/sell.inventory"
	ScopeMarketing   = "https://api.ebay.com/oauth/api_scope/sell.marketing"
	ScopeAccount     = "https://api.ebay.com/oauth/api_scope/sell.account"
	ScopeFulfillment = "https://api.ebay.com/oauth/api_scope/sell.fulfillment"
)
