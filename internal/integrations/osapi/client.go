package osapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"osdashboard/internal/domain"
)

const (
	DefaultAuthTimeout   = 10 * time.Second
	DefaultFetchTimeout  = 60 * time.Second
	DefaultDetailTimeout = 15 * time.Second
	DefaultDetailDelay   = 20 * time.Millisecond
	DefaultProgressEvery = 50
)

type Options struct {
	AuthTimeout   time.Duration
	FetchTimeout  time.Duration
	DetailTimeout time.Duration
	// DetailDelay is the fixed pause between two detail requests.
	DetailDelay   time.Duration
	ProgressEvery int
}

// Client talks to the maintenance work-order API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	opts       Options
	sleep      func(time.Duration)
}

func NewClient(baseURL string, httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = DefaultAuthTimeout
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.DetailTimeout <= 0 {
		opts.DetailTimeout = DefaultDetailTimeout
	}
	if opts.DetailDelay < 0 {
		opts.DetailDelay = 0
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		opts:       opts,
		sleep:      time.Sleep,
	}
}

// Authenticate exchanges credentials for the token sent in the Authorization
// header of every other call. There is no retry.
func (c *Client) Authenticate(ctx context.Context, login, password string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.AuthTimeout)
	defer cancel()

	payload, err := json.Marshal(authRequest{Login: login, Password: password})
	if err != nil {
		return "", &AuthError{Reason: "encoding request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/V1", bytes.NewReader(payload))
	if err != nil {
		return "", &AuthError{Reason: "creating request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Reason: "request failed", Err: err}
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", &AuthError{Reason: "reading response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &AuthError{Reason: fmt.Sprintf("API returned %d: %s", resp.StatusCode, truncate(body, 200))}
	}

	var out authResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &AuthError{Reason: "parsing response", Err: err}
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", &AuthError{Reason: "token not found in response"}
	}
	return out.Token, nil
}

// FetchAllSince loads every work-order header updated since epochDate
// (YYYY-MM-DD). Headers without a usable order number are dropped; the
// second return value counts them.
func (c *Client) FetchAllSince(ctx context.Context, epochDate, token string) ([]domain.WorkOrder, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()

	apiURL := c.baseURL + "/os/V1/find/last-update/" + url.PathEscape(epochDate)
	log.Printf("osapi fetch headers since=%s", epochDate)

	body, status, err := c.get(ctx, apiURL, token)
	if err != nil {
		return nil, 0, &FetchError{Reason: "request failed", Err: err}
	}
	if status < 200 || status > 299 {
		return nil, 0, &FetchError{Reason: fmt.Sprintf("API returned %d: %s", status, truncate(body, 200))}
	}

	var out lastUpdateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, 0, &FetchError{Reason: "parsing response", Err: err}
	}

	orders := make([]domain.WorkOrder, 0, len(out.Data))
	dropped := 0
	for _, r := range out.Data {
		wo, ok := r.toDomain()
		if !ok {
			dropped++
			continue
		}
		orders = append(orders, wo)
	}
	log.Printf("osapi fetch headers done total=%d dropped=%d", len(orders), dropped)
	return orders, dropped, nil
}

// FetchDetails loads the detail lines of each order, one request per order
// with a fixed delay in between. A failing order never stops the batch; its
// outcome is recorded in the returned DetailBatch. The batch is not
// interrupted by cancellation of ctx once started.
func (c *Client) FetchDetails(ctx context.Context, orderNumbers []int64, token string, onProgress func(done, total int)) DetailBatch {
	ctx = context.WithoutCancel(ctx)
	total := len(orderNumbers)
	batch := DetailBatch{Results: make([]DetailResult, 0, total)}

	for i, number := range orderNumbers {
		batch.add(c.fetchDetail(ctx, number, token))

		done := i + 1
		if onProgress != nil && (done%c.opts.ProgressEvery == 0 || done == total) {
			onProgress(done, total)
		}
		if done < total && c.opts.DetailDelay > 0 {
			c.sleep(c.opts.DetailDelay)
		}
	}
	log.Printf("osapi fetch details done requested=%d fetched=%d skipped=%d failed=%d",
		total, batch.Fetched, batch.Skipped, batch.Failed)
	return batch
}

func (c *Client) fetchDetail(ctx context.Context, number int64, token string) DetailResult {
	ctx, cancel := context.WithTimeout(ctx, c.opts.DetailTimeout)
	defer cancel()

	result := DetailResult{OrderNumber: number}
	apiURL := c.baseURL + "/os/V1/find/os-details/" + strconv.FormatInt(number, 10)

	body, status, err := c.get(ctx, apiURL, token)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = &DetailFetchError{OrderNumber: number, Err: err}
		return result
	}
	if status < 200 || status > 299 {
		result.Outcome = OutcomeSkipped
		result.Reason = fmt.Sprintf("status %d", status)
		return result
	}

	var out detailsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		result.Outcome = OutcomeFailed
		result.Err = &DetailFetchError{OrderNumber: number, Err: fmt.Errorf("parsing response: %w", err)}
		return result
	}
	if !truthy(out.Status) {
		result.Outcome = OutcomeSkipped
		result.Reason = "status flag not set"
		return result
	}

	result.Outcome = OutcomeFetched
	for _, line := range out.Data {
		if line == nil {
			continue
		}
		result.Lines = append(result.Lines, domain.DetailLine{
			OrderNumber:   number,
			Material:      line.Material.String(),
			Quantity:      line.Quantity.String(),
			UnitValue:     line.UnitValue.String(),
			TotalValue:    line.TotalValue.String(),
			StockQuantity: line.StockQuantity.String(),
		})
	}
	return result
}

func (c *Client) get(ctx context.Context, apiURL, token string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func truncate(body []byte, limit int) string {
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
