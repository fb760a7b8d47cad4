package clients

import (
	"casehub-auth-svc/src/internal/config"
	"casehub-auth-svc/src/internal/session"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"
)

const unknownLocation = "Unknown"

// GeoClient resolves IPs against an external geolocation service. Any
// failure degrades to Unknown values; session creation never waits past
// the configured timeout.
type GeoClient struct {
	baseURL    string
	enabled    bool
	httpClient *http.Client
}

func NewGeoClient(cfg *config.GeoConfig) *GeoClient {
	return &GeoClient{
		baseURL: cfg.Url,
		enabled: cfg.Enabled,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

func (c *GeoClient) Lookup(ctx context.Context, ip string) session.Location {
	unknown := session.Location{City: unknownLocation, Country: unknownLocation}

	if !c.enabled || !isPublicIP(ip) {
		return unknown
	}

	url := fmt.Sprintf("%s/%s?fields=city,country", c.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return unknown
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).WithField("ip", ip).Debug("Geo lookup failed")
		return unknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unknown
	}

	var response struct {
		City    string `json:"city"`
		Country string `json:"country"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		log.WithError(err).WithField("ip", ip).Debug("Failed to decode geo response")
		return unknown
	}

	loc := unknown
	if response.City != "" {
		loc.City = response.City
	}
	if response.Country != "" {
		loc.Country = response.Country
	}
	return loc
}

func isPublicIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return !parsed.IsLoopback() && !parsed.IsPrivate() && !parsed.IsUnspecified()
}
