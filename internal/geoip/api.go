package geoip

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/units"
	"github.com/2beens/fitcoach/pkg"

	"github.com/ipinfo/go/v2/ipinfo"
	"github.com/ipinfo/go/v2/ipinfo/cache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// countries where imperial units are the everyday default
var imperialCountries = map[string]bool{
	"US": true,
	"LR": true,
	"MM": true,
}

type ipLookup interface {
	GetIPInfo(ip net.IP) (*ipinfo.Core, error)
}

type Api struct {
	lookup ipLookup
}

func NewApi(token string, httpClient *http.Client, cacheTTL time.Duration) *Api {
	ipCache := ipinfo.NewCache(cache.NewInMemory().WithExpiration(cacheTTL))
	return &Api{
		lookup: ipinfo.NewClient(httpClient, ipCache, token),
	}
}

// Country returns the ISO alpha-2 code for the ip, or an empty string for local addresses.
func (a *Api) Country(ctx context.Context, ip string) (country string, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "geoIp.country")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("user.ip", ip))

	if ip == "" || ip == "localhost" {
		return "", nil
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("invalid ip: %s", ip)
	}

	core, err := a.lookup.GetIPInfo(parsed)
	if err != nil {
		return "", fmt.Errorf("ipinfo lookup %s: %w", ip, err)
	}
	if core == nil {
		return "", nil
	}

	return strings.ToUpper(core.Country), nil
}

// DefaultUnitSystem guesses the unit system for a new user from the request origin.
// Any lookup failure falls back to metric.
func (a *Api) DefaultUnitSystem(ctx context.Context, r *http.Request) units.System {
	ip, err := pkg.ReadUserIP(r)
	if err != nil {
		log.Debugf("geoip: read user ip: %s", err)
		return units.Metric
	}

	country, err := a.Country(ctx, ip)
	if err != nil {
		log.Warnf("geoip: %s", err)
		return units.Metric
	}

	return UnitSystemForCountry(country)
}

func UnitSystemForCountry(country string) units.System {
	if imperialCountries[strings.ToUpper(country)] {
		return units.Imperial
	}
	return units.Metric
}
