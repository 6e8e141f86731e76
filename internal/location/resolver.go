// Package location turns a free-text location into the canonical
// "City,Region,Country" form the SERP API expects.
package location

import (
	"context"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"serp-comparator/pkg/logging"
)

// Resolver canonicalises a location. It never fails a request: on any problem
// the input comes back unchanged.
type Resolver interface {
	Resolve(ctx context.Context, location, country string) (string, error)
}

// PassThrough returns the trimmed input. Used when no geocoding key is set.
type PassThrough struct{}

func (PassThrough) Resolve(_ context.Context, location, _ string) (string, error) {
	return strings.TrimSpace(location), nil
}

// GeocodingResolver resolves locations with the Google Geocoding API.
type GeocodingResolver struct {
	client  *maps.Client
	timeout time.Duration
	logger  *logging.ComponentLogger
}

var (
	_ Resolver = PassThrough{}
	_ Resolver = (*GeocodingResolver)(nil)
)

// NewGeocodingResolver builds a resolver. Extra client options (e.g. a base URL)
// are passed to the maps client.
func NewGeocodingResolver(apiKey string, timeout time.Duration, logger *logging.Logger, opts ...maps.ClientOption) (*GeocodingResolver, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &GeocodingResolver{client: client, timeout: timeout, logger: logger.WithComponent("location")}, nil
}

// Resolve geocodes location biased to country. Failures are logged and the
// input is returned as is.
func (g *GeocodingResolver) Resolve(ctx context.Context, location, country string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", nil
	}
	log := g.logger.Ctx(ctx)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: location,
		Region:  strings.ToLower(country),
	})
	if err != nil {
		log.Warn("geocoding failed, using location as typed",
			logging.String("location", location), logging.Duration("duration", time.Since(start)), logging.String("error", err.Error()))
		return location, nil
	}
	if len(results) == 0 {
		log.Info("geocoding returned no results", logging.String("location", location))
		return location, nil
	}

	canonical := Canonical(results[0].AddressComponents)
	if canonical == "" {
		return location, nil
	}
	log.Debug("location resolved", logging.String("location", location), logging.String("canonical", canonical))
	return canonical, nil
}

// Canonical joins the locality, first-level admin area and country long names.
// Missing parts are skipped.
func Canonical(components []maps.AddressComponent) string {
	var city, region, country string
	for _, c := range components {
		for _, t := range c.Types {
			switch t {
			case "locality", "postal_town":
				if city == "" {
					city = c.LongName
				}
			case "administrative_area_level_1":
				region = c.LongName
			case "country":
				country = c.LongName
			}
		}
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{city, region, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ",")
}
