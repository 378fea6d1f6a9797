// Package ipinfo resolves the host's public IP/geolocation and detects
// changes between successive lookups.
package ipinfo

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Info is one public-IP lookup result.
type Info struct {
	IP          string
	Country     string
	CountryCode string
}

// Change describes a detected public-IP change.
type Change struct {
	OldIP       string
	NewIP       string
	Country     string
	CountryCode string
}

type lookupResponse struct {
	Query       string `json:"query"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
}

// Checker queries a public IP-geolocation API and tracks the
// previously observed IP to detect changes across calls.
type Checker struct {
	client      *http.Client
	endpoint    string
	previousIP  string
	hasPrevious bool
}

func NewChecker() *Checker {
	return NewCheckerWithEndpoint("http://ip-api.com/json/")
}

// NewCheckerWithEndpoint builds a Checker against a custom
// geolocation endpoint, primarily for tests.
func NewCheckerWithEndpoint(endpoint string) *Checker {
	return &Checker{
		client:   &http.Client{Timeout: 3 * time.Second},
		endpoint: endpoint,
	}
}

// Lookup fetches the current public IP, country, and country code.
// On any failure it returns an "Error" IP/country with ok=false.
func (c *Checker) Lookup(ctx context.Context) (Info, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return Info{IP: "Error", Country: "Error"}, false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Info{IP: "Error", Country: "Error"}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Info{IP: "Error", Country: "Error"}, false
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Info{IP: "Error", Country: "Error"}, false
	}

	ip := body.Query
	if ip == "" {
		ip = "N/A"
	}
	country := body.Country
	if country == "" {
		country = "N/A"
	}
	return Info{IP: ip, Country: country, CountryCode: body.CountryCode}, true
}

// CheckChange records info as the new known IP and returns a Change if
// it differs from the previously recorded IP.
func (c *Checker) CheckChange(info Info) *Change {
	if !c.hasPrevious || info.IP == "Error" {
		c.previousIP = info.IP
		c.hasPrevious = true
		return nil
	}
	if info.IP == c.previousIP {
		return nil
	}
	old := c.previousIP
	c.previousIP = info.IP
	return &Change{OldIP: old, NewIP: info.IP, Country: info.Country, CountryCode: info.CountryCode}
}

// PreviousIP returns the last recorded IP, if any.
func (c *Checker) PreviousIP() (string, bool) {
	return c.previousIP, c.hasPrevious
}
