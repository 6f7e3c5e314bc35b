package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// GeoData is the location record returned by the GeoIP service.
type GeoData struct {
	IP        string  `json:"ip"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Located reports whether the record carries usable coordinates.
func (g GeoData) Located() bool {
	return g.Latitude != 0 || g.Longitude != 0
}

// GeoIPClient resolves public IP addresses to locations. Results are cached
// for the process lifetime; private, loopback, link-local, and multicast
// addresses are never sent to the service.
type GeoIPClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger

	mu    sync.RWMutex
	cache map[string]GeoData
}

// NewGeoIPClient creates a client for the GeoIP service at baseURL.
func NewGeoIPClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *GeoIPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GeoIPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		cache:   make(map[string]GeoData),
	}
}

// Lookup resolves one IP. Non-routable addresses resolve to an empty record
// without touching the network; a service failure is an error the caller can
// treat as missing data.
func (c *GeoIPClient) Lookup(ctx context.Context, ip string) (GeoData, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return GeoData{}, fmt.Errorf("invalid IP %q: %w", ip, err)
	}
	if !routable(addr) {
		return GeoData{IP: ip}, nil
	}

	c.mu.RLock()
	cached, ok := c.cache[ip]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geoip/"+ip, nil)
	if err != nil {
		return GeoData{}, fmt.Errorf("failed to build geoip request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return GeoData{}, fmt.Errorf("geoip lookup for %s failed: %w", ip, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GeoData{}, fmt.Errorf("geoip service returned status %d for %s", resp.StatusCode, ip)
	}

	var data GeoData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return GeoData{}, fmt.Errorf("failed to decode geoip response: %w", err)
	}
	if data.IP == "" {
		data.IP = ip
	}

	c.mu.Lock()
	c.cache[ip] = data
	c.mu.Unlock()
	return data, nil
}

// CacheSize returns the number of resolved entries held.
func (c *GeoIPClient) CacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func routable(addr netip.Addr) bool {
	return !(addr.IsPrivate() ||
		addr.IsLoopback() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified())
}
