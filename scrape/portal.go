/*
portal.go - Browser-backed portal fetcher

PURPOSE:
  Drives a headless browser against the fulfillment portal's claim
  page and extracts the detail fields. The portal renders everything
  client-side, so plain HTTP gets an empty shell; a real browser is
  the only interface it offers.

EXTRACTION:
  Field locations are a selector table (data, not code). Fields the
  selectors miss are extracted from the page text by labeled-line
  patterns, since the portal renders some values as bare text after
  a label rather than in addressable nodes.

POLITENESS:
  All page loads go through a shared rate limiter. The portal is a
  production system serving agents; the scraper must never be the
  reason it slows down.

SEE ALSO:
  - detail.go: Output contract
  - cache.go:  Put this behind the cache in servers
*/
package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Selectors maps detail fields to CSS selectors on the claim page.
type Selectors struct {
	DeviceInfo      string
	ActionStatus    string
	ActionDate      string
	ServiceCenter   string
	DeliveryAddress string
	ReturnAddress   string
}

// DefaultSelectors matches the current portal markup.
func DefaultSelectors() Selectors {
	return Selectors{
		DeviceInfo:      ".device-info .device-name",
		ActionStatus:    ".action-status .status-text",
		ActionDate:      ".action-status .status-date",
		ServiceCenter:   ".service-center-name",
		DeliveryAddress: ".delivery-address .address-body",
		ReturnAddress:   ".return-address .address-body",
	}
}

// Text patterns for values the portal renders as labeled lines.
var (
	schedulePattern = regexp.MustCompile(`Request Scheduled for\s*([^\n]+)`)
	shippingPattern = regexp.MustCompile(`For Sending Replacement[\s\S]*?AWB Number\s*[:\s]\s*(\S+)`)
	notFoundPattern = regexp.MustCompile(`(?i)no (claim|record) found`)
)

// Config holds the portal fetcher settings.
type Config struct {
	// BaseURL is the portal root; the claim page is BaseURL/claims/{id}.
	BaseURL string

	// Headless toggles headless launch. Off is useful when
	// debugging selector drift.
	Headless bool

	// PageTimeout bounds one claim page load and extraction.
	PageTimeout time.Duration

	// RequestsPerMinute paces page loads.
	RequestsPerMinute int

	// ReadyAttempts and ReadyInterval bound the post-load poll for
	// the client-rendered detail pane.
	ReadyAttempts int
	ReadyInterval time.Duration

	Selectors Selectors
}

// DefaultConfig returns production defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		Headless:          true,
		PageTimeout:       45 * time.Second,
		RequestsPerMinute: 12,
		ReadyAttempts:     10,
		ReadyInterval:     500 * time.Millisecond,
		Selectors:         DefaultSelectors(),
	}
}

// PortalFetcher implements Fetcher against the live portal.
type PortalFetcher struct {
	cfg      Config
	limiter  *rate.Limiter
	logger   *zap.Logger
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewPortalFetcher launches the browser and connects. Call Close
// when done.
func NewPortalFetcher(cfg Config, logger *zap.Logger) (*PortalFetcher, error) {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 45 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 12
	}
	if cfg.ReadyAttempts <= 0 {
		cfg.ReadyAttempts = 10
	}
	if cfg.ReadyInterval <= 0 {
		cfg.ReadyInterval = 500 * time.Millisecond
	}

	l := launcher.New().Headless(cfg.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &PortalFetcher{
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1),
		logger:   logger,
		browser:  browser,
		launcher: l,
	}, nil
}

// Close shuts the browser down.
func (f *PortalFetcher) Close() error {
	err := f.browser.Close()
	f.launcher.Cleanup()
	return err
}

// FetchDetail loads the claim page and extracts its detail.
func (f *PortalFetcher) FetchDetail(ctx context.Context, claimID string) (*Detail, error) {
	requestID := uuid.NewString()
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return nil, &FetchError{RequestID: requestID, ClaimID: claimID, Err: ErrNotFound}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{RequestID: requestID, ClaimID: claimID, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.PageTimeout)
	defer cancel()

	f.logger.Info("fetching claim detail",
		zap.String("request_id", requestID),
		zap.String("claim_id", claimID))

	url := strings.TrimRight(f.cfg.BaseURL, "/") + "/claims/" + claimID
	page, err := f.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, &FetchError{RequestID: requestID, ClaimID: claimID, Err: err}
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.WaitLoad(); err != nil {
		return nil, &FetchError{RequestID: requestID, ClaimID: claimID, Err: err}
	}
	if err := f.waitReady(ctx, page); err != nil {
		return nil, &FetchError{RequestID: requestID, ClaimID: claimID, Err: err}
	}

	text, err := pageText(page)
	if err != nil {
		return nil, &FetchError{RequestID: requestID, ClaimID: claimID, Err: err}
	}
	if notFoundPattern.MatchString(text) {
		return nil, &FetchError{RequestID: requestID, ClaimID: claimID, Err: ErrNotFound}
	}

	detail := &Detail{
		ReferenceID:     claimID,
		DeviceInfo:      f.selectorText(page, f.cfg.Selectors.DeviceInfo),
		ActionStatus:    f.selectorText(page, f.cfg.Selectors.ActionStatus),
		ActionDate:      f.selectorText(page, f.cfg.Selectors.ActionDate),
		ServiceCenter:   f.selectorText(page, f.cfg.Selectors.ServiceCenter),
		DeliveryAddress: f.selectorText(page, f.cfg.Selectors.DeliveryAddress),
		ReturnAddress:   f.selectorText(page, f.cfg.Selectors.ReturnAddress),
		Schedule:        firstGroup(schedulePattern, text),
		ShippingDetails: firstGroup(shippingPattern, text),
		ScrapedAt:       time.Now().UTC(),
	}
	return detail, nil
}

// waitReady polls until either the detail pane or the not-found
// banner has rendered. The portal paints the page shell first and
// fills the detail in later, so load completion alone proves
// nothing. The poll is bounded; a budget miss falls through to
// extraction, where absent fields degrade to "".
func (f *PortalFetcher) waitReady(ctx context.Context, page *rod.Page) error {
	for i := 0; i < f.cfg.ReadyAttempts; i++ {
		if has, _, err := page.Has(f.cfg.Selectors.ActionStatus); err == nil && has {
			return nil
		}
		if text, err := pageText(page); err == nil && notFoundPattern.MatchString(text) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.cfg.ReadyInterval):
		}
	}
	return nil
}

// selectorText reads one element's text, tolerating its absence.
// Selector drift degrades a field to "", not the whole fetch.
func (f *PortalFetcher) selectorText(page *rod.Page, selector string) string {
	if selector == "" {
		return ""
	}
	el, err := page.Element(selector)
	if err != nil {
		f.logger.Debug("selector missed", zap.String("selector", selector))
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func pageText(page *rod.Page) (string, error) {
	el, err := page.Element("body")
	if err != nil {
		return "", err
	}
	return el.Text()
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
