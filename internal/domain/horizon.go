package domain

import "context"

// Balance is one balance line of a ledger account.
type Balance struct {
	AssetType string `json:"asset_type"`
	Balance   string `json:"balance"`
}

// Account is the subset of a Horizon account record the engine needs.
type Account struct {
	AccountID string    `json:"account_id"`
	Sequence  int64     `json:"sequence,string"`
	Balances  []Balance `json:"balances"`
}

// TransactionResultCodes carries the structured rejection codes Horizon
// returns for a failed submission.
type TransactionResultCodes struct {
	Transaction string   `json:"transaction,omitempty"`
	Operations  []string `json:"operations,omitempty"`
}

// SubmissionResponse is the classified-but-uninterpreted outcome of one
// transaction submission. The transfer engine turns it into a
// TransactionResult; transport failures surface as errors instead.
type SubmissionResponse struct {
	StatusCode  int
	Hash        string
	ResultCodes *TransactionResultCodes
	RawBody     string
}

// OK reports whether the submission was accepted at the HTTP level.
func (r *SubmissionResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// HorizonClient is the ledger service the engine talks to. All calls are
// suspension points with bounded timeouts; none are retried.
type HorizonClient interface {
	// GetAccount fetches the account record for the given address.
	// Returns ErrAccountNotFound when the account does not exist.
	GetAccount(ctx context.Context, accountID string) (*Account, error)

	// FetchBaseFee returns the network's current base fee in stroops.
	FetchBaseFee(ctx context.Context) (int64, error)

	// SubmitTransaction posts a signed transaction envelope. A non-nil
	// error means the submission never produced a classifiable response.
	SubmitTransaction(ctx context.Context, xdr string) (*SubmissionResponse, error)
}
