// Package quota admits or rejects gated requests against the metered
// access plans. Admission resolves the presented access key to a plan,
// then atomically bumps the plan's counter for the current calendar month
// while it holds the key's mutex shard, so concurrent requests on the same
// key serialize and the tier cap is enforced without lost updates.
package quota

import (
	"context"
	"errors"
	"time"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/infrastructure/repository"
	"dinnerd/internal/shared/db"
	apperrors "dinnerd/internal/shared/errors"
	"dinnerd/internal/shared/keymutex"
	"dinnerd/internal/shared/logger"
)

// Admission is the outcome of a successful admit: the plan that paid for
// the request and the tally after this request was counted.
type Admission struct {
	Plan   *models.AccessPlanModel
	Amount uint64
}

// Service meters gated requests against access plans.
type Service struct {
	plans  repository.AccessPlanRepository
	txMgr  *db.TransactionManager
	locks  *keymutex.KeyMutex
	now    func() time.Time
	logger logger.Interface
}

func NewService(plans repository.AccessPlanRepository, txMgr *db.TransactionManager, log logger.Interface) *Service {
	return &Service{
		plans:  plans,
		txMgr:  txMgr,
		locks:  keymutex.New(0),
		now:    time.Now,
		logger: log,
	}
}

// Admit charges one request against the plan identified by key. It returns
// a too-many-requests error when the key is empty, unknown, or the plan's
// monthly cap is exhausted, and a conflict error when the counter write
// fails. The cap is checked against the tally before this request, so a
// capped tier admits cap+1 requests in a month before rejecting.
func (s *Service) Admit(ctx context.Context, key string) (*Admission, error) {
	if key == "" {
		return nil, apperrors.NewTooManyRequestsError("missing access key")
	}

	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	plan, err := s.plans.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		s.logger.Warnw("unknown access key presented", "key", key)
		return nil, apperrors.NewTooManyRequestsError("unknown access key")
	}

	now := s.now()
	year := int16(now.Year())
	month := int8(now.Month())

	var admission *Admission
	err = s.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		counter, err := s.plans.GetCounter(txCtx, plan.ID, year, month)
		if err != nil {
			return err
		}
		if counter == nil {
			counter = &models.AccessCounterModel{
				AccessPlanID: plan.ID,
				Year:         year,
				Month:        month,
			}
		}

		if limit := plan.Variant.Limit(); limit != nil && counter.Amount > *limit {
			s.logger.Infow("monthly quota exhausted",
				"plan_id", plan.ID,
				"variant", plan.Variant,
				"amount", counter.Amount)
			return apperrors.NewTooManyRequestsError("monthly quota exhausted")
		}

		counter.Amount++
		if err := s.plans.SaveCounter(txCtx, counter); err != nil {
			s.logger.Warnw("counter write failed", "plan_id", plan.ID, "error", err)
			return apperrors.NewConflictError("concurrent access-plan update")
		}

		admission = &Admission{Plan: plan, Amount: counter.Amount}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.NewConflictError("concurrent access-plan update")
	}

	return admission, nil
}
