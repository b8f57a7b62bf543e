package horizon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/piflow/piflow-backend/internal/domain"
	"github.com/rs/zerolog"
)

const defaultTimeout = 10 * time.Second

// Client is a minimal Horizon API client covering the three calls the
// transfer engine needs: account lookup, base fee, and submission.
// It is safe for concurrent use; the underlying http.Client is shared.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a Horizon client for the given base URL.
// A non-positive timeout falls back to 10 seconds.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "horizon_client").Logger(),
	}
}

// GetAccount fetches the account record for the given address.
// Returns domain.ErrAccountNotFound when Horizon responds 404.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/accounts/"+url.PathEscape(accountID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrAccountNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch account: horizon returned status %d", resp.StatusCode)
	}

	var account domain.Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &account, nil
}

// feeStats is the subset of Horizon's /fee_stats response we consume.
// Horizon encodes the fee as a decimal string.
type feeStats struct {
	LastLedgerBaseFee string `json:"last_ledger_base_fee"`
}

// FetchBaseFee returns the base fee of the last closed ledger in stroops.
func (c *Client) FetchBaseFee(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/fee_stats", nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch base fee: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch base fee: horizon returned status %d", resp.StatusCode)
	}

	var stats feeStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return 0, fmt.Errorf("decode fee stats: %w", err)
	}

	fee, err := strconv.ParseInt(stats.LastLedgerBaseFee, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse base fee %q: %w", stats.LastLedgerBaseFee, err)
	}
	return fee, nil
}

// submissionBody mirrors the fields Horizon returns for a transaction
// submission, successful or not.
type submissionBody struct {
	Hash   string `json:"hash"`
	Extras *struct {
		ResultCodes *domain.TransactionResultCodes `json:"result_codes"`
	} `json:"extras"`
}

// SubmitTransaction posts a base64 transaction envelope to Horizon.
// The response is classified structurally, never retried; a returned
// error means no classifiable response was received at all.
func (c *Client) SubmitTransaction(ctx context.Context, xdr string) (*domain.SubmissionResponse, error) {
	form := url.Values{"tx": {xdr}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit transaction: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read submission response: %w", err)
	}

	var body submissionBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("parse submission response: %w", err)
	}

	result := &domain.SubmissionResponse{
		StatusCode: resp.StatusCode,
		Hash:       body.Hash,
		RawBody:    string(raw),
	}
	if body.Extras != nil {
		result.ResultCodes = body.Extras.ResultCodes
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("hash", body.Hash).
		Msg("Transaction submitted")

	return result, nil
}
