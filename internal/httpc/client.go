// Package httpc provides a shared HTTP client for station API calls.
// Use this instead of http.DefaultClient so every request carries a timeout.
package httpc

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Timeouts sized for LAN calls to a station.
const (
	DefaultTimeout        = 10 * time.Second
	DefaultConnectTimeout = 3 * time.Second
	DefaultKeepAlive      = 30 * time.Second
)

// Client is the shared HTTP client.
var Client = NewClient(DefaultTimeout)

// NewClient creates an HTTP client with the given overall timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DefaultConnectTimeout,
				KeepAlive: DefaultKeepAlive,
			}).DialContext,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// GetJSON fetches url with the shared client and decodes the body into v.
func GetJSON(url string, v interface{}) error {
	resp, err := Client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// PostJSON posts an empty body to url and decodes the JSON reply into v.
// The station's control endpoints carry their errors in the reply body, so
// a non-2xx status is not itself an error here.
func PostJSON(url string, v interface{}) error {
	resp, err := Client.Post(url, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
