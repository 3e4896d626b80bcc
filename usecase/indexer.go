package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/1IxI1/sc-indexer/domain"
	"github.com/1IxI1/sc-indexer/interface/exporter"

	"github.com/alitto/pond/v2"
	"golang.org/x/time/rate"
)

// CandidateStore lists accounts of registered contract types changed after
// a given second.
type CandidateStore interface {
	FindCandidateAccounts(codeHashes []string, since int64) ([]domain.AccountState, error)
}

// CheckpointStore persists the index watermark. It has a single writer: the
// index interactor, after a whole batch has joined.
type CheckpointStore interface {
	Read() (int64, error)
	Write(second int64) error
}

// IndexInteractor drives indexing cycles: it discovers candidate accounts
// above the checkpoint, fans them out to handlers under bounded concurrency
// and a bounded start rate, and advances the checkpoint once the whole
// batch is done.
type IndexInteractor struct {
	registry   *Registry
	archive    CandidateStore
	checkpoint CheckpointStore
	limiter    *rate.Limiter
	workers    pond.Pool
}

func NewIndexInteractor(registry *Registry, archive CandidateStore, checkpoint CheckpointStore, limiter *rate.Limiter, maxInFlight int) *IndexInteractor {
	return &IndexInteractor{
		registry:   registry,
		archive:    archive,
		checkpoint: checkpoint,
		limiter:    limiter,
		workers:    pond.NewPool(maxInFlight),
	}
}

// RunCycle executes one indexing cycle. Per-account failures never abort
// the batch; only checkpoint I/O errors are returned, and those are fatal
// to the process because indexing cannot proceed without a trustworthy
// watermark.
func (interactor *IndexInteractor) RunCycle() error {
	since, err := interactor.checkpoint.Read()
	if err != nil {
		return fmt.Errorf("reading checkpoint: %w", err)
	}

	codeHashes := interactor.registry.CodeHashes()
	log.Printf("Start handling %v contract types from second %v.\n", len(codeHashes), since)

	accounts, err := interactor.archive.FindCandidateAccounts(codeHashes, since)
	if err != nil {
		log.Printf("🔴 finding candidate accounts - %v\n", err.Error())
		return nil
	}
	log.Printf("Found %v accounts of described types.\n", len(accounts))

	if len(accounts) == 0 {
		log.Printf("Finished index cycle. Nothing since the second %v.\n", since)
		return nil
	}

	startedAt := time.Now()
	group := interactor.workers.NewGroup()
	for _, account := range accounts {
		// Every task in the cycle reconstructs from the same horizon, the
		// checkpoint, not from its own state timestamp.
		task := domain.AccountTask{
			Address:  account.Account,
			Balance:  account.Balance,
			CodeHash: account.CodeHash,
			DataHash: account.DataHash,
			AsOf:     since,
		}
		group.Submit(func() {
			interactor.limiter.Wait(context.Background())
			if err := interactor.registry.Dispatch(task); err == nil {
				exporter.IncProcessedCount()
			}
		})
	}
	group.Wait()

	elapsed := time.Since(startedAt).Seconds()
	exporter.ObserveCycleSeconds(elapsed)
	log.Printf("Processed %v accounts in %.2fs (%.2f/sec)\n",
		len(accounts), elapsed, float64(len(accounts))/elapsed)

	watermark := since
	for _, account := range accounts {
		if account.Timestamp > watermark {
			watermark = account.Timestamp
		}
	}
	if err := interactor.checkpoint.Write(watermark); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	log.Printf("Finished index cycle and saved second %v.\n", watermark)
	return nil
}
