package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sj14/astral/pkg/astral"
)

// The python astral package ships a geocoder database; its Go port does not.
// This table covers the cities we expect to run in. Anything else must be
// configured with explicit coordinates.

var ErrUnknownLocation = errors.New("unknown city/region, set explicit coordinates")

type namedLocation struct {
	city      string
	region    string
	latitude  float64
	longitude float64
}

var gazetteer = []namedLocation{
	{"amsterdam", "netherlands", 52.3676, 4.9041},
	{"athens", "greece", 37.9838, 23.7275},
	{"barcelona", "spain", 41.3874, 2.1686},
	{"berlin", "germany", 52.5200, 13.4050},
	{"brussels", "belgium", 50.8476, 4.3572},
	{"bucharest", "romania", 44.4268, 26.1025},
	{"budapest", "hungary", 47.4979, 19.0402},
	{"copenhagen", "denmark", 55.6761, 12.5683},
	{"dublin", "ireland", 53.3498, -6.2603},
	{"helsinki", "finland", 60.1699, 24.9384},
	{"lisbon", "portugal", 38.7223, -9.1393},
	{"london", "england", 51.5072, -0.1276},
	{"madrid", "spain", 40.4168, -3.7038},
	{"milan", "italy", 45.4642, 9.1900},
	{"munich", "germany", 48.1351, 11.5820},
	{"oslo", "norway", 59.9139, 10.7522},
	{"paris", "france", 48.8566, 2.3522},
	{"prague", "czech republic", 50.0755, 14.4378},
	{"rome", "italy", 41.9028, 12.4964},
	{"seville", "spain", 37.3891, -5.9845},
	{"stockholm", "sweden", 59.3293, 18.0686},
	{"valencia", "spain", 39.4699, -0.3763},
	{"vienna", "austria", 48.2082, 16.3738},
	{"warsaw", "poland", 52.2297, 21.0122},
	{"zurich", "switzerland", 47.3769, 8.5417},
}

// ResolveCity maps a city/region pair to an observer. The region narrows the
// match when two entries share a city name; an empty region matches the first
// city entry found.
func ResolveCity(cityName, regionName string) (astral.Observer, error) {
	city := strings.ToLower(strings.TrimSpace(cityName))
	region := strings.ToLower(strings.TrimSpace(regionName))
	for _, loc := range gazetteer {
		if loc.city != city {
			continue
		}
		if region == "" || loc.region == region {
			return astral.Observer{Latitude: loc.latitude, Longitude: loc.longitude}, nil
		}
	}
	return astral.Observer{}, fmt.Errorf("%w: %s/%s", ErrUnknownLocation, cityName, regionName)
}
