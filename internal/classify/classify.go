// Package classify maps customer query text to a fixed support category.
package classify

import (
	"strings"

	"github.com/fleetline/rentassist/internal/models"
)

// categoryBucket pairs a category with its trigger keywords. Buckets are
// evaluated in priority order; the first match wins and unmatched queries
// fall through to the general category.
type categoryBucket struct {
	name     string
	keywords []string
}

var categoryBuckets = []categoryBucket{
	{models.CategoryPricing, []string{"precio", "tarifa", "costo", "cuesta"}},
	{models.CategoryBooking, []string{"reservar", "reserva", "booking"}},
	{models.CategoryVehicleInfo, []string{"vehículo", "coche", "auto"}},
	{models.CategoryDamage, []string{"daño", "accidente", "reparación"}},
	{models.CategoryClaims, []string{"reclamo", "queja", "problema"}},
}

// Categorize returns the category name for a query. Classification never
// fails: ambiguity resolves via first-match-wins and unmatched text returns
// the general category.
func Categorize(query string) string {
	lower := strings.ToLower(query)
	for _, b := range categoryBuckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.name
			}
		}
	}
	return models.CategoryGeneral
}
