package domain

import (
	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of fractional digits the ledger accepts.
// Every amount embedded in a transaction is rounded to this precision first.
const AmountPrecision = 7

// EstimatedFee is the typical per-transaction network fee in native units,
// used when gating a source account's balance before building a transaction.
var EstimatedFee = decimal.RequireFromString("0.00001")

// TransferRequest describes one fan-out run: send Amount from every seed
// in Seeds to Destination. Immutable for the duration of a run.
type TransferRequest struct {
	Destination string          `json:"destination"`
	Amount      decimal.Decimal `json:"amount"`
	Seeds       []string        `json:"seeds"`
}

type ResultStatus string

const (
	ResultStatusSuccess ResultStatus = "success"
	ResultStatusFailed  ResultStatus = "failed"
)

// FailureCategory classifies why a per-seed transfer attempt failed.
type FailureCategory string

const (
	FailureInvalidSeed       FailureCategory = "invalid_seed"
	FailureAccountNotFound   FailureCategory = "account_not_found"
	FailureInsufficientFunds FailureCategory = "insufficient_funds"
	FailureBalanceCheck      FailureCategory = "balance_check_failed"
	FailureBuild             FailureCategory = "build_failed"
	FailureSubmission        FailureCategory = "submission_failed"
	FailureBatch             FailureCategory = "batch_failed"
)

// TransactionResult is the terminal outcome for one source account.
// Results are always reported in the same order as the request's seeds.
type TransactionResult struct {
	PublicKey string          `json:"publicKey,omitempty"`
	Status    ResultStatus    `json:"status"`
	Hash      string          `json:"hash,omitempty"`
	Category  FailureCategory `json:"category,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// SignedTransaction is a built and signed transaction ready for submission.
// It embeds a sequence number and a validity window, so it is consumed at
// most once and never rebuilt from.
type SignedTransaction struct {
	PublicKey string
	XDR       string
}

// SuccessResult builds a success outcome for a source account.
func SuccessResult(publicKey, hash string) TransactionResult {
	return TransactionResult{
		PublicKey: publicKey,
		Status:    ResultStatusSuccess,
		Hash:      hash,
	}
}

// FailureResult builds a failure outcome for a source account.
func FailureResult(publicKey string, category FailureCategory, message string) TransactionResult {
	return TransactionResult{
		PublicKey: publicKey,
		Status:    ResultStatusFailed,
		Category:  category,
		Message:   message,
	}
}
