package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dafibh/piflow/piflow-backend/internal/domain"
	"github.com/dafibh/piflow/piflow-backend/internal/util"
	"github.com/dafibh/piflow/piflow-backend/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
)

const (
	// transferMemo is attached to every payment transaction
	transferMemo = "PI Transfer"

	// transactionTimeout bounds a transaction's validity window in seconds,
	// so a stale signed envelope cannot be replayed indefinitely
	transactionTimeout = 30

	// DefaultBatchSize is how many source accounts one batch processes
	DefaultBatchSize = 6

	// DefaultBatchDelay is the pause between consecutive batches
	DefaultBatchDelay = 100 * time.Millisecond
)

// TransferConfig holds the tunables of the transfer engine
type TransferConfig struct {
	NetworkPassphrase string
	MinimumReserve    decimal.Decimal
	FeePercent        decimal.Decimal
	BatchSize         int
	BatchDelay        time.Duration
}

// TransferService fans one destination transfer out across many source
// accounts: per batch it builds and signs transactions concurrently, then
// submits the signed ones concurrently, and reports one ordered result per
// source account.
type TransferService struct {
	horizonClient  domain.HorizonClient
	keypairService *KeypairService
	eventPublisher websocket.EventPublisher
	config         TransferConfig
	logger         zerolog.Logger
}

// NewTransferService creates a new TransferService
func NewTransferService(horizonClient domain.HorizonClient, keypairService *KeypairService, config TransferConfig, logger zerolog.Logger) *TransferService {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.BatchDelay <= 0 {
		config.BatchDelay = DefaultBatchDelay
	}

	return &TransferService{
		horizonClient:  horizonClient,
		keypairService: keypairService,
		config:         config,
		logger:         logger.With().Str("component", "transfer_service").Logger(),
	}
}

// SetEventPublisher sets the event publisher for real-time progress updates
func (s *TransferService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *TransferService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// ValidateRequest rejects malformed transfer requests before any network
// call is made. Per-seed problems are not validated here; they surface as
// per-seed failure results instead.
func (s *TransferService) ValidateRequest(req *domain.TransferRequest) error {
	if req == nil {
		return fmt.Errorf("%w: missing request body", domain.ErrInvalidInput)
	}
	if _, err := keypair.ParseAddress(req.Destination); err != nil {
		return fmt.Errorf("%w: destination is not a valid address", domain.ErrInvalidInput)
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if len(req.Seeds) == 0 {
		return fmt.Errorf("%w: at least one seed is required", domain.ErrInvalidInput)
	}
	if len(req.Seeds) > domain.MaxSeedsPerRequest {
		return fmt.Errorf("%w: at most %d seeds per request", domain.ErrInvalidInput, domain.MaxSeedsPerRequest)
	}
	return nil
}

// NetAmount applies the configured platform fee and rounds to the ledger's
// fractional precision.
func (s *TransferService) NetAmount(amount decimal.Decimal) decimal.Decimal {
	net := amount.Mul(decimal.NewFromInt(1).Sub(s.config.FeePercent))
	return net.Round(domain.AmountPrecision)
}

// RunSummary is reported when a full run completes.
type RunSummary struct {
	Total     int     `json:"total"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	Seconds   float64 `json:"seconds"`
}

// ProcessAll partitions the request's seeds into fixed-size batches and
// processes them strictly one after another, pausing the configured delay
// between batches to bound request rate against Horizon. The returned
// results are in seed order. The context is consulted only at batch
// boundaries; work already in flight always completes.
func (s *TransferService) ProcessAll(ctx context.Context, req *domain.TransferRequest) []domain.TransactionResult {
	start := time.Now()
	total := len(req.Seeds)
	results := make([]domain.TransactionResult, 0, total)

	s.publishEvent(websocket.RunStarted(map[string]interface{}{
		"seeds":       total,
		"destination": req.Destination,
	}))

	for offset, batchIndex := 0, 0; offset < total; offset, batchIndex = offset+s.config.BatchSize, batchIndex+1 {
		end := offset + s.config.BatchSize
		if end > total {
			end = total
		}
		batch := req.Seeds[offset:end]

		batchResults := s.processBatch(ctx, batch, req.Destination, req.Amount, batchIndex)
		results = append(results, batchResults...)

		s.publishEvent(websocket.BatchCompleted(map[string]interface{}{
			"batch":   batchIndex + 1,
			"results": batchResults,
		}))

		// Pace requests against Horizon; also where cancellation between
		// batches is observed. Work already in flight is never aborted.
		select {
		case <-ctx.Done():
			if len(results) < total {
				s.logger.Info().
					Int("processed", len(results)).
					Int("total", total).
					Msg("Run cancelled between batches")
			}
			return results
		case <-time.After(s.config.BatchDelay):
		}
	}

	summary := summarize(results, time.Since(start))
	s.logger.Info().
		Int("seeds", total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Float64("seconds", summary.Seconds).
		Msg("Processed transfer run")

	s.publishEvent(websocket.RunCompleted(summary))
	return results
}

// processBatch runs the two-phase pipeline for one batch. A panic anywhere
// in the batch is converted into one batch-failed result per seed, so the
// run continues and the caller still gets one result per input seed.
func (s *TransferService) processBatch(ctx context.Context, seeds []string, destination string, amount decimal.Decimal, batchIndex int) (results []domain.TransactionResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Int("batch", batchIndex+1).
				Interface("panic", r).
				Msg("Batch failed")

			results = make([]domain.TransactionResult, len(seeds))
			message := fmt.Sprintf("batch %d failed: %v", batchIndex+1, r)
			for i := range seeds {
				results[i] = domain.FailureResult("", domain.FailureBatch, message)
			}
		}
	}()

	results = make([]domain.TransactionResult, len(seeds))
	signed := make([]*domain.SignedTransaction, len(seeds))

	// Phase 1: build and sign concurrently, one independent pipeline per
	// seed. Failures, including panics, stay in their own slot and never
	// touch siblings.
	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		go func(i int, seed string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = domain.FailureResult("", domain.FailureBatch, fmt.Sprintf("unexpected error: %v", r))
				}
			}()
			tx, failure := s.buildSigned(ctx, seed, destination, amount)
			if failure != nil {
				results[i] = *failure
				return
			}
			signed[i] = tx
		}(i, seed)
	}
	wg.Wait()

	// Phase 2: submit everything phase 1 produced, again concurrently.
	// Seeds that already failed are skipped.
	for i, tx := range signed {
		if tx == nil {
			continue
		}
		wg.Add(1)
		go func(i int, tx *domain.SignedTransaction) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = domain.FailureResult(tx.PublicKey, domain.FailureBatch, fmt.Sprintf("unexpected error: %v", r))
				}
			}()
			results[i] = s.submit(ctx, tx)
		}(i, tx)
	}
	wg.Wait()

	return results
}

// buildSigned runs the per-seed half of phase 1: derive the keypair, gate
// on the account's balance, apply the fee, then build and sign the payment.
// Every failure is terminal for this seed only.
func (s *TransferService) buildSigned(ctx context.Context, seed, destination string, amount decimal.Decimal) (*domain.SignedTransaction, *domain.TransactionResult) {
	kp, err := s.keypairService.Derive(seed)
	if err != nil {
		failure := domain.FailureResult("", domain.FailureInvalidSeed, err.Error())
		return nil, &failure
	}

	if failure := s.checkBalance(ctx, kp.Address(), amount); failure != nil {
		return nil, failure
	}

	netAmount := s.NetAmount(amount)

	tx, err := s.buildTransaction(ctx, kp, destination, netAmount)
	if err != nil {
		s.logger.Debug().
			Str("account", util.ShortKey(kp.Address())).
			Err(err).
			Msg("Failed to build transaction")
		failure := domain.FailureResult(kp.Address(), domain.FailureBuild, err.Error())
		return nil, &failure
	}

	return tx, nil
}

// checkBalance fetches the account and verifies its native balance covers
// amount + estimated network fee + minimum reserve. A nil return means the
// gate passed.
func (s *TransferService) checkBalance(ctx context.Context, publicKey string, amount decimal.Decimal) *domain.TransactionResult {
	account, err := s.horizonClient.GetAccount(ctx, publicKey)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			failure := domain.FailureResult(publicKey, domain.FailureAccountNotFound, "account not found")
			return &failure
		}
		failure := domain.FailureResult(publicKey, domain.FailureBalanceCheck, fmt.Sprintf("error checking balance: %v", err))
		return &failure
	}

	balance := nativeBalance(account)
	required := amount.Add(domain.EstimatedFee).Add(s.config.MinimumReserve)
	if balance.LessThan(required) {
		failure := domain.FailureResult(publicKey, domain.FailureInsufficientFunds,
			fmt.Sprintf("insufficient balance (%s) for amount (%s) + fee + reserve", balance, amount))
		return &failure
	}

	return nil
}

// nativeBalance extracts the native asset balance, defaulting to zero when
// the account holds none.
func nativeBalance(account *domain.Account) decimal.Decimal {
	for _, b := range account.Balances {
		if b.AssetType == "native" {
			if parsed, err := decimal.NewFromString(b.Balance); err == nil {
				return parsed
			}
		}
	}
	return decimal.Zero
}

// buildTransaction fetches the source account's sequence number and the
// network base fee, then assembles and signs a single native payment with
// a bounded validity window. The two Horizon reads are independent and run
// concurrently.
func (s *TransferService) buildTransaction(ctx context.Context, kp *keypair.Full, destination string, netAmount decimal.Decimal) (*domain.SignedTransaction, error) {
	var (
		account *domain.Account
		baseFee int64
		accErr  error
		feeErr  error
		wg      sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		account, accErr = s.horizonClient.GetAccount(ctx, kp.Address())
	}()
	go func() {
		defer wg.Done()
		baseFee, feeErr = s.horizonClient.FetchBaseFee(ctx)
	}()
	wg.Wait()

	if accErr != nil {
		return nil, fmt.Errorf("load account: %w", accErr)
	}
	if feeErr != nil {
		return nil, fmt.Errorf("fetch base fee: %w", feeErr)
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount: &txnbuild.SimpleAccount{
			AccountID: kp.Address(),
			Sequence:  account.Sequence,
		},
		IncrementSequenceNum: true,
		BaseFee:              baseFee,
		Memo:                 txnbuild.MemoText(transferMemo),
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(transactionTimeout),
		},
		Operations: []txnbuild.Operation{
			&txnbuild.Payment{
				Destination: destination,
				Amount:      netAmount.StringFixed(domain.AmountPrecision),
				Asset:       txnbuild.NativeAsset{},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}

	tx, err = tx.Sign(s.config.NetworkPassphrase, kp)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	xdr, err := tx.Base64()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}

	return &domain.SignedTransaction{PublicKey: kp.Address(), XDR: xdr}, nil
}

// submit posts one signed transaction and classifies the outcome. Every
// outcome is terminal; nothing is retried.
func (s *TransferService) submit(ctx context.Context, tx *domain.SignedTransaction) domain.TransactionResult {
	resp, err := s.horizonClient.SubmitTransaction(ctx, tx.XDR)
	if err != nil {
		return domain.FailureResult(tx.PublicKey, domain.FailureSubmission, err.Error())
	}

	switch {
	case resp.OK() && resp.Hash != "":
		s.logger.Info().
			Str("account", util.ShortKey(tx.PublicKey)).
			Str("hash", resp.Hash).
			Msg("Transfer succeeded")
		return domain.SuccessResult(tx.PublicKey, resp.Hash)

	case resp.OK():
		return domain.FailureResult(tx.PublicKey, domain.FailureSubmission,
			fmt.Sprintf("incomplete response: %s", resp.RawBody))

	case resp.ResultCodes != nil:
		return domain.FailureResult(tx.PublicKey, domain.FailureSubmission, formatResultCodes(resp.ResultCodes))

	default:
		return domain.FailureResult(tx.PublicKey, domain.FailureSubmission,
			fmt.Sprintf("submission failed with status %d: %s", resp.StatusCode, resp.RawBody))
	}
}

func formatResultCodes(codes *domain.TransactionResultCodes) string {
	if len(codes.Operations) == 0 {
		return fmt.Sprintf("transaction failed: %s", codes.Transaction)
	}
	return fmt.Sprintf("transaction failed: %s, operations: %v", codes.Transaction, codes.Operations)
}

func summarize(results []domain.TransactionResult, elapsed time.Duration) RunSummary {
	summary := RunSummary{
		Total:   len(results),
		Seconds: elapsed.Seconds(),
	}
	for _, r := range results {
		if r.Status == domain.ResultStatusSuccess {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary
}
