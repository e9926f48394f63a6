package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/ebaybuy/internal/ebay"
)

// ebayError maps client errors onto HTTP statuses. Order matters: a
// timeout also matches ErrTransport.
func ebayError(err error) error {
	switch {
	case errors.Is(err, ebay.ErrInvalidQuery):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, ebay.ErrDailyLimitReached):
		return huma.Error429TooManyRequests("eBay daily API limit reached: " + err.Error())
	case errors.Is(err, ebay.ErrPagination):
		return huma.Error409Conflict("page not available: " + err.Error())
	case errors.Is(err, ebay.ErrAuthentication):
		return huma.Error502BadGateway("eBay authentication failed: " + err.Error())
	case errors.Is(err, ebay.ErrTimeout):
		return huma.Error504GatewayTimeout("eBay API timeout: " + err.Error())
	default:
		return huma.Error502BadGateway("eBay API error: " + err.Error())
	}
}
