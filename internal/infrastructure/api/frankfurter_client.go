package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/logger"
	"github.com/avast/retry-go"
)

const frankfurterBaseURL = "https://api.frankfurter.app"

// errBadResponse marks responses that are not worth retrying.
var errBadResponse = errors.New("unusable rate response")

// FrankfurterClient resolves historical rates from a Frankfurter-style
// endpoint: GET {base}/{YYYY-MM-DD}?from=X&to=Y returning rates keyed by
// target currency code.
//
// The client never returns an error. Same-currency pairs resolve to 1 without
// a request, and any failure (transport, status, malformed body, missing or
// non-positive rate) falls back to 1 so the foreign amount degrades to face
// value in the reporting currency. The fallback is deliberate and silent
// toward the caller; it is only visible in the log. Rates are not cached:
// repeated identical calls re-query the source.
type FrankfurterClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewFrankfurterClient creates a new Frankfurter API client
func NewFrankfurterClient(baseURL string, httpClient *http.Client, log logger.Logger) *FrankfurterClient {
	if baseURL == "" {
		baseURL = frankfurterBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &FrankfurterClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     log,
	}
}

// frankfurterResponse represents the response structure from the rate API
type frankfurterResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// GetRate retrieves the historical rate converting one unit of from into to
// at the given date, falling back to 1 on any failure.
func (c *FrankfurterClient) GetRate(ctx context.Context, from, to entity.Currency, date time.Time) float64 {
	if from == to {
		return 1
	}

	reqURL := fmt.Sprintf("%s/%s?from=%s&to=%s", c.baseURL, date.Format("2006-01-02"), from, to)

	fetched, err := c.fetchRate(ctx, reqURL, from, to, date)
	if err != nil {
		c.logger.Warn("Rate lookup failed, falling back to 1:1", map[string]interface{}{
			"from":  from,
			"to":    to,
			"date":  date.Format("2006-01-02"),
			"error": err.Error(),
		})
		return 1
	}

	c.logger.Debug("Rate resolved", map[string]interface{}{
		"from": fetched.From,
		"to":   fetched.To,
		"date": fetched.Date.Format("2006-01-02"),
		"rate": fetched.Rate,
	})

	return fetched.Rate
}

func (c *FrankfurterClient) fetchRate(ctx context.Context, reqURL string, from, to entity.Currency, date time.Time) (*entity.ExchangeRate, error) {
	var body []byte

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return fmt.Errorf("%w: %v", errBadResponse, err)
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("server status %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("%w: status %d", errBadResponse, resp.StatusCode)
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read body: %w", err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			// Bad responses stay bad; only transport and 5xx are transient.
			return !errors.Is(err, errBadResponse) && ctx.Err() == nil
		}),
	)
	if err != nil {
		return nil, err
	}

	var parsed frankfurterResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	rate, ok := parsed.Rates[string(to)]
	if !ok {
		return nil, fmt.Errorf("no rate for %s in response", to)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("invalid rate value: %f", rate)
	}

	return &entity.ExchangeRate{
		From: from,
		To:   to,
		Date: date,
		Rate: rate,
	}, nil
}
