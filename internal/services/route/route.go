package route

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"
)

// MaxRouteLen bounds the number of labels BuildRoute returns.
const MaxRouteLen = 10

type Rand interface {
	Intn(n int) int
}

var majorCities = []string{
	"New York", "Los Angeles", "Chicago", "Houston", "Phoenix",
	"Philadelphia", "San Antonio", "San Diego", "Dallas", "Denver",
	"Atlanta", "Memphis", "Louisville", "Indianapolis", "Columbus",
	"Salt Lake City", "Kansas City", "Nashville", "Seattle", "Miami",
}

// Generic labels by step, used when the route endpoints are unknown.
var stepFacilities = []string{
	"Processing Center",
	"Fulfillment Center",
	"Packing Facility",
	"Origin Facility",
	"Distribution Hub",
	"Local Delivery Station",
	"Destination",
}

var facilityLabels = []string{
	"Sorting Facility",
	"Distribution Hub",
	"Regional Hub",
	"Transit Center",
	"Processing Center",
	"Delivery Station",
}

var facilityTypes = []string{
	"Distribution Center",
	"Sorting Facility",
	"Regional Hub",
	"Airport Gateway",
	"Rail Terminal",
}

type Synthesizer struct {
	r Rand
}

func New(r Rand) *Synthesizer {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthesizer{r: r}
}

// Seeded returns a synthesizer whose output only depends on key.
func Seeded(key string) *Synthesizer {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return New(rand.New(rand.NewSource(int64(h.Sum64()))))
}

// BuildRoute returns [origin, hubs..., destination] with at most MaxRouteLen
// labels. Without both endpoints it falls back to the generic step labels.
// A same-city order is delivered locally and its route is the destination.
func (s *Synthesizer) BuildRoute(origin, destination string) []string {
	origin = cityOf(origin)
	destination = cityOf(destination)
	if origin == "" || destination == "" {
		return append([]string{}, stepFacilities...)
	}
	if strings.EqualFold(origin, destination) {
		return []string{destination}
	}

	route := []string{origin}
	used := map[string]struct{}{
		strings.ToLower(origin):      {},
		strings.ToLower(destination): {},
	}

	pool := make([]string, 0, len(majorCities))
	for _, c := range majorCities {
		if _, ok := used[strings.ToLower(c)]; !ok {
			pool = append(pool, c)
		}
	}

	maxHubs := MaxRouteLen - 2
	if maxHubs > len(pool) {
		maxHubs = len(pool)
	}
	hubs := 0
	if maxHubs > 0 {
		hubs = 1 + s.r.Intn(min(maxHubs, 4))
	}
	for i := 0; i < hubs; i++ {
		j := s.r.Intn(len(pool))
		route = append(route, pool[j])
		pool = append(pool[:j], pool[j+1:]...)
	}

	return append(route, destination)
}

// LocationForStep returns the generic facility label for a 1-based step.
func LocationForStep(step int) string {
	if step < 1 {
		return stepFacilities[0]
	}
	if step > len(stepFacilities) {
		return stepFacilities[len(stepFacilities)-1]
	}
	return stepFacilities[step-1]
}

// RandomLocation produces an ad-hoc location: a generic facility label 70% of
// the time, "{facility type} - {city}" otherwise.
func (s *Synthesizer) RandomLocation() string {
	if s.r.Intn(100) < 70 {
		return facilityLabels[s.r.Intn(len(facilityLabels))]
	}
	return fmt.Sprintf("%s - %s", facilityTypes[s.r.Intn(len(facilityTypes))], majorCities[s.r.Intn(len(majorCities))])
}

// cityOf extracts the city part of a "City, State, Country" address.
func cityOf(address string) string {
	address = strings.TrimSpace(address)
	if i := strings.Index(address, ","); i >= 0 {
		address = address[:i]
	}
	return strings.TrimSpace(address)
}
