/*
Package scrape fetches per-claim detail from the fulfillment portal.

PURPOSE:
  The exports carry status codes but not the operational detail an
  agent needs in front of a customer (schedule, addresses, shipment
  numbers). That detail lives only in the portal UI, so it is
  scraped on demand behind the Fetcher interface; everything above
  this package sees a Detail struct and nothing of the browser.

SEE ALSO:
  - portal.go: rod-backed implementation
  - cache.go:  TTL caching wrapper
*/
package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Detail is everything the portal shows for one claim.
type Detail struct {
	ReferenceID     string    `json:"referenceId"`
	DeviceInfo      string    `json:"deviceInfo"`
	ActionStatus    string    `json:"actionStatus"`
	ActionDate      string    `json:"actionDate"`
	ServiceCenter   string    `json:"serviceCenter"`
	Schedule        string    `json:"schedule"`
	DeliveryAddress string    `json:"deliveryAddress"`
	ReturnAddress   string    `json:"returnAddress"`
	ShippingDetails string    `json:"shippingDetails"`
	ScrapedAt       time.Time `json:"scrapedAt"`
}

// Fetcher retrieves a claim's detail. Implementations must be safe
// for concurrent use.
type Fetcher interface {
	FetchDetail(ctx context.Context, claimID string) (*Detail, error)
}

// ErrNotFound is returned when the portal has no page for the claim.
var ErrNotFound = errors.New("claim not found in portal")

// FetchError wraps a portal failure with the request identity so
// the log line and the API response can be correlated.
type FetchError struct {
	RequestID string
	ClaimID   string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (request %s): %v", e.ClaimID, e.RequestID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
