package horizon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dafibh/piflow/piflow-backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 2*time.Second, zerolog.Nop())
}

func TestGetAccount_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/GTEST", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"account_id": "GTEST",
			"sequence": "103420918407103888",
			"balances": [
				{"asset_type": "credit_alphanum4", "balance": "12.0"},
				{"asset_type": "native", "balance": "100.5000000"}
			]
		}`))
	})

	account, err := client.GetAccount(context.Background(), "GTEST")
	require.NoError(t, err)

	assert.Equal(t, "GTEST", account.AccountID)
	assert.Equal(t, int64(103420918407103888), account.Sequence)
	require.Len(t, account.Balances, 2)
	assert.Equal(t, "native", account.Balances[1].AssetType)
	assert.Equal(t, "100.5000000", account.Balances[1].Balance)
}

func TestGetAccount_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"title":"Resource Missing","status":404}`))
	})

	_, err := client.GetAccount(context.Background(), "GMISSING")
	assert.True(t, errors.Is(err, domain.ErrAccountNotFound))
}

func TestGetAccount_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetAccount(context.Background(), "GTEST")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrAccountNotFound))
}

func TestFetchBaseFee(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fee_stats", r.URL.Path)
		w.Write([]byte(`{"last_ledger_base_fee": "100", "last_ledger": "12345"}`))
	})

	fee, err := client.FetchBaseFee(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), fee)
}

func TestFetchBaseFee_BadPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"last_ledger_base_fee": "not-a-number"}`))
	})

	_, err := client.FetchBaseFee(context.Background())
	assert.Error(t, err)
}

func TestSubmitTransaction_Accepted(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "AAAAtestenvelope", r.PostFormValue("tx"))
		w.Write([]byte(`{"hash": "deadbeef", "ledger": 42}`))
	})

	resp, err := client.SubmitTransaction(context.Background(), "AAAAtestenvelope")
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.Equal(t, "deadbeef", resp.Hash)
	assert.Nil(t, resp.ResultCodes)
}

func TestSubmitTransaction_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{
			"title": "Transaction Failed",
			"extras": {
				"result_codes": {
					"transaction": "tx_failed",
					"operations": ["op_underfunded"]
				}
			}
		}`))
	})

	resp, err := client.SubmitTransaction(context.Background(), "AAAA")
	require.NoError(t, err)

	assert.False(t, resp.OK())
	assert.Empty(t, resp.Hash)
	require.NotNil(t, resp.ResultCodes)
	assert.Equal(t, "tx_failed", resp.ResultCodes.Transaction)
	assert.Equal(t, []string{"op_underfunded"}, resp.ResultCodes.Operations)
}

func TestSubmitTransaction_UnparseableBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})

	_, err := client.SubmitTransaction(context.Background(), "AAAA")
	assert.Error(t, err)
}

func TestSubmitTransaction_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on
	client := NewClient(server.URL, time.Second, zerolog.Nop())

	_, err := client.SubmitTransaction(context.Background(), "AAAA")
	assert.Error(t, err)
}
