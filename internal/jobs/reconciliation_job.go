package jobs

import (
	"context"
	"log"
	"time"

	"github.com/freightlink/backend/internal/repository"
)

// DriftScanner finds profiles whose cached balance disagrees with the ledger
type DriftScanner interface {
	ListDriftedProfiles(ctx context.Context) ([]repository.BalanceDrift, error)
}

// ReconciliationJob reports balance drift for manual reconciliation. It never
// rewrites balances.
type ReconciliationJob struct {
	scanner DriftScanner
	timeout time.Duration
}

// NewReconciliationJob creates a new reconciliation job
func NewReconciliationJob(scanner DriftScanner) *ReconciliationJob {
	return &ReconciliationJob{scanner: scanner, timeout: 5 * time.Minute}
}

// Run scans once and returns the drifted profiles
func (j *ReconciliationJob) Run(ctx context.Context) ([]repository.BalanceDrift, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	drifts, err := j.scanner.ListDriftedProfiles(ctx)
	if err != nil {
		log.Printf("[reconciliation] scan failed: %v", err)
		return nil, err
	}

	for _, d := range drifts {
		log.Printf("[reconciliation] integrity error: user %s cached balance %d, ledger sum %d (diff %d)",
			d.UserID, d.Cached, d.LedgerSum, d.Cached-d.LedgerSum)
	}
	if len(drifts) == 0 {
		log.Printf("[reconciliation] all balances match their ledgers")
	}
	return drifts, nil
}
