package jobs

import (
	"context"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
)

// AuditLedgers compares every member's balances with the sums of their
// transaction logs. Mismatches are logged at error level and left for a
// human to correct with an adjustment.
func (jr *JobRunner) AuditLedgers() {
	jr.runWithRecovery("AuditLedgers", func(ctx context.Context) {
		if _, err := jr.auditLedgers(ctx); err != nil {
			logger.Error("Failed to audit ledgers", "error", err)
		}
	})
}

func (jr *JobRunner) auditLedgers(ctx context.Context) ([]domain.LedgerAudit, error) {
	audits, err := jr.services.Ledger.AuditAll(ctx)
	if err != nil {
		return nil, err
	}

	var mismatched []domain.LedgerAudit
	for _, a := range audits {
		if a.Consistent() {
			continue
		}
		mismatched = append(mismatched, a)
		logger.Error("Ledger mismatch",
			"member_id", a.MemberID,
			"points", a.Points,
			"points_log_sum", a.PointsLogSum,
			"wallet_balance", a.WalletBalance.String(),
			"wallet_log_sum", a.WalletLogSum.String())
	}

	logger.Info("Completed ledger audit",
		"members_audited", len(audits),
		"mismatches", len(mismatched))
	return mismatched, nil
}
