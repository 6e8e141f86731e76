// Package serp fetches organic search results from the ValueSERP API.
package serp

import (
	"context"

	"serp-comparator/internal/models"
)

// Provider returns the ordered organic results for one keyword.
// Failures are *errors.ProviderError.
type Provider interface {
	Search(ctx context.Context, keyword string, params models.SearchParams) ([]models.Result, error)
}
