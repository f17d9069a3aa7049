package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/uow"
)

type ledgerUseCase struct {
	repo    ledger.Repository
	cache   ledger.Cache
	tx      uow.Transactor
	events  notify.Sink
	metrics *metrics.Metrics
	logger  logger.ZapLogger
	retries int
}

func NewLedgerUseCase(
	repo ledger.Repository,
	cache ledger.Cache,
	tx uow.Transactor,
	events notify.Sink,
	m *metrics.Metrics,
	log logger.ZapLogger,
	retries int,
) ledger.UseCase {
	return &ledgerUseCase{
		repo:    repo,
		cache:   cache,
		tx:      tx,
		events:  events,
		metrics: m,
		logger:  log,
		retries: retries,
	}
}

func normalizeKey(key model.StockKey) (model.StockKey, error) {
	key = key.WithDefaults()
	if err := key.Validate(); err != nil {
		return key, apperr.Validation("%s", err.Error())
	}
	return key, nil
}

func (uc *ledgerUseCase) Apply(ctx context.Context, input *dto.ApplyInput) (*dto.ApplyResult, error) {
	key, err := normalizeKey(input.Key)
	if err != nil {
		return nil, err
	}
	switch input.Mode {
	case dto.ModeDelta:
	case dto.ModeAbsolute:
		if input.Quantity.IsNegative() {
			return nil, apperr.Validation("absolute quantity must not be negative")
		}
	default:
		return nil, apperr.Validation("unknown apply mode %q", input.Mode)
	}
	if input.MovementType == "" {
		return nil, apperr.Validation("movement_type is required")
	}

	var result *dto.ApplyResult
	err = uow.Run(ctx, uc.tx, uc.retries, func(ctx context.Context) error {
		var err error
		result, err = uc.apply(ctx, key, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *ledgerUseCase) apply(ctx context.Context, key model.StockKey, input *dto.ApplyInput) (*dto.ApplyResult, error) {
	rec, err := uc.repo.LockByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	isNew := rec == nil
	if isNew {
		rec = &model.InventoryRecord{
			ID:        uuid.New().String(),
			StockKey:  key,
			CreatedBy: input.Actor,
			CreatedAt: now,
		}
	}

	before := rec.QuantityOnHand
	after := input.Quantity
	if input.Mode == dto.ModeDelta {
		after = before.Add(input.Quantity)
	}
	change := after.Sub(before)

	if after.IsNegative() {
		uc.metrics.RecordRejection(apperr.CodeNegativeStock)
		return nil, apperr.NegativeStock(key.String(), before.String(), change.String())
	}

	rec.QuantityOnHand = after
	rec.UpdatedBy = input.Actor
	rec.UpdatedAt = now
	rec.DeletedAt = nil
	if input.MovementType == model.MovementOpname {
		rec.LastCountedAt = &now
	}

	if isNew {
		err = uc.repo.Insert(ctx, rec)
	} else {
		err = uc.repo.Update(ctx, rec)
	}
	if err != nil {
		return nil, err
	}

	movement := &model.InventoryMovement{
		ID:             uuid.New().String(),
		StockKey:       key,
		MovementType:   input.MovementType,
		QuantityChange: change,
		QuantityBefore: before,
		QuantityAfter:  after,
		ReferenceType:  input.ReferenceType,
		ReferenceID:    input.ReferenceID,
		Notes:          input.Notes,
		CreatedBy:      input.Actor,
		CreatedAt:      now,
	}
	if err := uc.repo.LogMovement(ctx, movement); err != nil {
		return nil, err
	}

	below := change.IsNegative() && rec.ReorderPoint.IsPositive() && after.LessThanOrEqual(rec.ReorderPoint)
	snapshot := *rec
	uow.AfterCommit(ctx, func(ctx context.Context) {
		uc.cache.Invalidate(ctx, key, snapshot.Version)
		uc.metrics.RecordMovement(input.MovementType)
		if below {
			uc.events.Dispatch(model.NewDomainEvent(model.EventStockBelowThreshold, snapshot.ID, input.Actor, map[string]any{
				"stock_key":     key,
				"quantity":      after.String(),
				"reorder_point": snapshot.ReorderPoint.String(),
			}))
		}
	})

	return &dto.ApplyResult{
		Record:            &snapshot,
		Before:            before,
		After:             after,
		Change:            change,
		BelowReorderPoint: below,
	}, nil
}

func (uc *ledgerUseCase) AdjustReserved(ctx context.Context, input *dto.ReservedInput) (*model.InventoryRecord, error) {
	key, err := normalizeKey(input.Key)
	if err != nil {
		return nil, err
	}

	var out *model.InventoryRecord
	err = uow.Run(ctx, uc.tx, uc.retries, func(ctx context.Context) error {
		rec, err := uc.repo.LockByKey(ctx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		isNew := rec == nil
		if isNew {
			if !input.Delta.IsPositive() {
				out = &model.InventoryRecord{StockKey: key}
				return nil
			}
			rec = &model.InventoryRecord{
				ID:        uuid.New().String(),
				StockKey:  key,
				CreatedBy: input.Actor,
				CreatedAt: now,
			}
		}

		available := rec.Available()
		reserved := rec.QuantityReserved.Add(input.Delta)
		if reserved.IsNegative() {
			uc.logger.Warn("reserved quantity would drop below zero, clamping",
				zap.String("stock_key", key.String()),
				zap.String("reserved", rec.QuantityReserved.String()),
				zap.String("delta", input.Delta.String()),
			)
			reserved = decimal.Zero
		}
		if input.Enforce && input.Delta.IsPositive() && reserved.GreaterThan(rec.QuantityOnHand) {
			uc.metrics.RecordRejection(apperr.CodeInsufficientStock)
			return apperr.InsufficientStock(key.String(), available.String(), input.Delta.String())
		}

		rec.QuantityReserved = reserved
		rec.UpdatedBy = input.Actor
		rec.UpdatedAt = now
		if input.Delta.IsPositive() {
			rec.DeletedAt = nil
		}
		if isNew {
			err = uc.repo.Insert(ctx, rec)
		} else {
			err = uc.repo.Update(ctx, rec)
		}
		if err != nil {
			return err
		}

		c := *rec
		uow.AfterCommit(ctx, func(ctx context.Context) { uc.cache.Invalidate(ctx, key, c.Version) })
		out = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *ledgerUseCase) Adjust(ctx context.Context, input *dto.AdjustInput) (*model.InventoryRecord, error) {
	if input.Quantity.IsZero() {
		return nil, apperr.Validation("adjustment quantity must not be zero")
	}
	if input.Reason == "" {
		return nil, apperr.Validation("adjustment reason is required")
	}
	res, err := uc.Apply(ctx, &dto.ApplyInput{
		Key:           input.Key,
		Mode:          dto.ModeDelta,
		Quantity:      input.Quantity,
		MovementType:  model.MovementAdjustment,
		ReferenceType: model.ReferenceManual,
		Notes:         input.Reason,
		Actor:         input.Actor,
	})
	if err != nil {
		return nil, err
	}
	return res.Record, nil
}

func (uc *ledgerUseCase) SetReorderPoint(ctx context.Context, key model.StockKey, point decimal.Decimal, actor string) (*model.InventoryRecord, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	if point.IsNegative() {
		return nil, apperr.Validation("reorder_point must not be negative")
	}

	var out *model.InventoryRecord
	err = uow.Run(ctx, uc.tx, uc.retries, func(ctx context.Context) error {
		rec, err := uc.repo.LockByKey(ctx, key)
		if err != nil {
			return err
		}
		if rec == nil || rec.IsDeleted() {
			return apperr.NotFound("stock", key.String())
		}
		rec.ReorderPoint = point
		rec.UpdatedBy = actor
		rec.UpdatedAt = time.Now().UTC()
		if err := uc.repo.Update(ctx, rec); err != nil {
			return err
		}
		version := rec.Version
		uow.AfterCommit(ctx, func(ctx context.Context) { uc.cache.Invalidate(ctx, key, version) })
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *ledgerUseCase) Archive(ctx context.Context, key model.StockKey, actor string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	return uow.Run(ctx, uc.tx, uc.retries, func(ctx context.Context) error {
		rec, err := uc.repo.LockByKey(ctx, key)
		if err != nil {
			return err
		}
		if rec == nil || rec.IsDeleted() {
			return apperr.NotFound("stock", key.String())
		}
		if !rec.QuantityOnHand.IsZero() || !rec.QuantityReserved.IsZero() {
			return apperr.InvalidState("stock %s still holds quantity", key)
		}
		now := time.Now().UTC()
		rec.DeletedAt = &now
		rec.UpdatedBy = actor
		rec.UpdatedAt = now
		if err := uc.repo.Update(ctx, rec); err != nil {
			return err
		}
		version := rec.Version
		uow.AfterCommit(ctx, func(ctx context.Context) { uc.cache.Invalidate(ctx, key, version) })
		return nil
	})
}

func (uc *ledgerUseCase) LockStock(ctx context.Context, key model.StockKey) (*model.InventoryRecord, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	if !uow.Active(ctx) {
		return nil, apperr.Internal("lock stock outside a transaction", nil)
	}
	rec, err := uc.repo.LockByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.IsDeleted() {
		return &model.InventoryRecord{StockKey: key}, nil
	}
	return rec, nil
}

func (uc *ledgerUseCase) GetQuantity(ctx context.Context, key model.StockKey) (decimal.Decimal, error) {
	rec, err := uc.GetStock(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	return rec.QuantityOnHand, nil
}

func (uc *ledgerUseCase) GetStock(ctx context.Context, key model.StockKey) (*model.InventoryRecord, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}

	// reads inside a transaction must see its own writes
	inTx := uow.Active(ctx)
	if !inTx {
		if rec, ok := uc.cache.Get(ctx, key); ok {
			return rec, nil
		}
	}

	rec, err := uc.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &model.InventoryRecord{StockKey: key}, nil
	}
	if !inTx {
		uc.cache.Set(ctx, rec)
	}
	return rec, nil
}

func (uc *ledgerUseCase) ListStock(ctx context.Context, filters *dto.StockFilters) ([]model.InventoryRecord, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *ledgerUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}
