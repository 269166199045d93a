// Package ledger talks to the stock-ledger service that books a posted
// shift report's production into stock.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Request struct {
	ReportID int64  `json:"report_id"`
	PostedBy string `json:"posted_by"`
}

// Result lists how many ledger entries were created per posting step
// together with non-fatal warnings.
type Result struct {
	EntryCounts []int    `json:"entry_counts"`
	Warnings    []string `json:"warnings"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retryDelay time.Duration
	log        logrus.FieldLogger
}

func NewClient(baseURL string, timeout, retryDelay time.Duration, log logrus.FieldLogger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
		retryDelay: retryDelay,
		log:        log,
	}
}

// Post books a report. Each attempt is bounded by the client timeout;
// a failed attempt is retried once after the retry delay.
func (c *Client) Post(ctx context.Context, reportID int64, postedBy string) (*Result, error) {
	body, err := json.Marshal(Request{ReportID: reportID, PostedBy: postedBy})
	if err != nil {
		return nil, err
	}

	res, err := c.attempt(ctx, body)
	if err == nil {
		return res, nil
	}
	c.log.WithError(err).WithField("report_id", reportID).Warn("stock ledger post failed, retrying")

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.retryDelay):
	}

	res, err = c.attempt(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("post report %d to stock ledger: %w", reportID, err)
	}
	return res, nil
}

func (c *Client) attempt(ctx context.Context, body []byte) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/post-dpr", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stock ledger returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode stock ledger response: %w", err)
	}
	return &res, nil
}
