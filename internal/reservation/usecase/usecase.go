package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/reservation"
	"github.com/fekuna/omnipos-stock-service/internal/reservation/dto"
	"github.com/fekuna/omnipos-stock-service/internal/uow"
)

type reservationUseCase struct {
	repo    reservation.Repository
	ledger  ledger.UseCase
	tx      uow.Transactor
	policy  model.ReservationPolicy
	logger  logger.ZapLogger
	retries int
}

func NewReservationUseCase(
	repo reservation.Repository,
	ledgerUC ledger.UseCase,
	tx uow.Transactor,
	policy model.ReservationPolicy,
	log logger.ZapLogger,
	retries int,
) reservation.UseCase {
	if !policy.IsValid() {
		policy = model.ReservationStrict
	}
	return &reservationUseCase{
		repo:    repo,
		ledger:  ledgerUC,
		tx:      tx,
		policy:  policy,
		logger:  log,
		retries: retries,
	}
}

func (uc *reservationUseCase) Reserve(ctx context.Context, input *dto.ReserveInput) ([]model.Reservation, error) {
	if input.Reference == "" {
		return nil, apperr.Validation("reference is required")
	}
	if len(input.Lines) == 0 {
		return nil, apperr.Validation("at least one line is required")
	}
	policy := uc.policy
	if input.Policy != "" {
		if !input.Policy.IsValid() {
			return nil, apperr.Validation("unknown reservation policy %q", input.Policy)
		}
		policy = input.Policy
	}

	// one reservation per tuple; repeated tuples in a request are summed
	totals := make(map[model.StockKey]decimal.Decimal, len(input.Lines))
	for i, line := range input.Lines {
		if !line.Quantity.IsPositive() {
			return nil, apperr.Validation("line %d: quantity must be greater than zero", i+1)
		}
		key := line.Key.WithDefaults()
		if err := key.Validate(); err != nil {
			return nil, apperr.Validation("line %d: %s", i+1, err.Error())
		}
		totals[key] = totals[key].Add(line.Quantity)
	}
	keys := make([]model.StockKey, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	var out []model.Reservation
	err := uow.Run(ctx, uc.tx, uc.retries, func(ctx context.Context) error {
		out = out[:0]
		now := time.Now().UTC()
		for _, key := range keys {
			rec, err := uc.ledger.AdjustReserved(ctx, &ledgerdto.ReservedInput{
				Key:     key,
				Delta:   totals[key],
				Enforce: policy == model.ReservationStrict,
				Actor:   input.Actor,
			})
			if err != nil {
				return err
			}
			if rec.QuantityReserved.GreaterThan(rec.QuantityOnHand) {
				uc.logger.Warn("advisory reservation exceeds on-hand stock",
					zap.String("reference", input.Reference),
					zap.String("stock_key", key.String()),
					zap.String("on_hand", rec.QuantityOnHand.String()),
					zap.String("reserved", rec.QuantityReserved.String()),
				)
			}

			r := model.Reservation{
				ID:        uuid.New().String(),
				StockKey:  key,
				Reference: input.Reference,
				Quantity:  totals[key],
				CreatedBy: input.Actor,
				CreatedAt: now,
			}
			if err := uc.repo.Insert(ctx, &r); err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *reservationUseCase) Release(ctx context.Context, reference, actor string) (int, error) {
	if reference == "" {
		return 0, apperr.Validation("reference is required")
	}

	var released int
	err := uow.Run(ctx, uc.tx, uc.retries, func(ctx context.Context) error {
		rows, err := uc.repo.FindByReference(ctx, reference)
		if err != nil {
			return err
		}
		released = len(rows)
		if released == 0 {
			return nil
		}

		totals := make(map[model.StockKey]decimal.Decimal)
		for _, r := range rows {
			totals[r.StockKey] = totals[r.StockKey].Add(r.Quantity)
		}
		keys := make([]model.StockKey, 0, len(totals))
		for k := range totals {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

		for _, key := range keys {
			if _, err := uc.ledger.AdjustReserved(ctx, &ledgerdto.ReservedInput{
				Key:   key,
				Delta: totals[key].Neg(),
				Actor: actor,
			}); err != nil {
				return err
			}
		}
		_, err = uc.repo.DeleteByReference(ctx, reference)
		return err
	})
	if err != nil {
		return 0, err
	}

	if released > 0 {
		uc.logger.Info("reservations released", zap.String("reference", reference), zap.Int("count", released))
	}
	return released, nil
}

func (uc *reservationUseCase) Available(ctx context.Context, key model.StockKey) (decimal.Decimal, error) {
	key = key.WithDefaults()
	if err := key.Validate(); err != nil {
		return decimal.Zero, apperr.Validation("%s", err.Error())
	}
	// on-hand and the reserved sum come from one transaction, past the cache
	var available decimal.Decimal
	err := uow.Run(ctx, uc.tx, uc.retries, func(ctx context.Context) error {
		onHand, err := uc.ledger.GetQuantity(ctx, key)
		if err != nil {
			return err
		}
		reserved, err := uc.repo.SumByKey(ctx, key)
		if err != nil {
			return err
		}
		available = onHand.Sub(reserved)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return available, nil
}

func (uc *reservationUseCase) ListByReference(ctx context.Context, reference string) ([]model.Reservation, error) {
	return uc.repo.FindByReference(ctx, reference)
}
