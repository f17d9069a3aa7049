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
	"github.com/fekuna/omnipos-stock-service/internal/masterdata"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/opname"
	"github.com/fekuna/omnipos-stock-service/internal/opname/dto"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/uow"
)

type opnameUseCase struct {
	repo    opname.Repository
	ledger  ledger.UseCase
	master  masterdata.Repository
	locker  opname.Locker
	tx      uow.Transactor
	events  notify.Sink
	policy  model.OpnameDriftPolicy
	lockTTL time.Duration
	logger  logger.ZapLogger
	retries int
}

func NewOpnameUseCase(
	repo opname.Repository,
	ledgerUC ledger.UseCase,
	master masterdata.Repository,
	locker opname.Locker,
	tx uow.Transactor,
	events notify.Sink,
	policy model.OpnameDriftPolicy,
	lockTTL time.Duration,
	log logger.ZapLogger,
	retries int,
) opname.UseCase {
	if !policy.IsValid() {
		policy = model.OpnameOverwrite
	}
	return &opnameUseCase{
		repo:    repo,
		ledger:  ledgerUC,
		master:  master,
		locker:  locker,
		tx:      tx,
		events:  events,
		policy:  policy,
		lockTTL: lockTTL,
		logger:  log,
		retries: retries,
	}
}

func (uc *opnameUseCase) validate(ctx context.Context, input *dto.SubmitInput) error {
	if input.ProductID == "" || input.LocationID == "" {
		return apperr.Validation("product_id and location_id are required")
	}
	if len(input.Lines) == 0 {
		return apperr.Validation("an opname needs at least one line")
	}
	seen := make(map[string]bool, len(input.Lines))
	for i, l := range input.Lines {
		if seen[l.SizeID] {
			return apperr.Validation("line %d: size %q counted twice", i+1, l.SizeID)
		}
		seen[l.SizeID] = true
		if l.QuantityPhysical.IsNegative() {
			return apperr.Validation("line %d: physical quantity must not be negative", i+1)
		}
		if l.QuantitySnapshot != nil && l.QuantitySnapshot.IsNegative() {
			return apperr.Validation("line %d: snapshot quantity must not be negative", i+1)
		}
	}
	if err := masterdata.CheckPlace(ctx, uc.master, input.LocationID, input.StorageLocationID); err != nil {
		return err
	}
	return masterdata.CheckProducts(ctx, uc.master, input.ProductID)
}

func (uc *opnameUseCase) Submit(ctx context.Context, input *dto.SubmitInput) (*model.OpnameHeader, error) {
	if err := uc.validate(ctx, input); err != nil {
		return nil, err
	}
	id := input.ID
	if id == "" {
		id = uuid.New().String()
	}

	if uc.locker != nil {
		lockKey := "lock:opname:" + id
		lockValue := uuid.New().String()
		ok, err := uc.locker.AcquireLock(ctx, lockKey, lockValue, uc.lockTTL)
		if err != nil {
			return nil, apperr.Internal("acquire opname lock", err)
		}
		if !ok {
			return nil, apperr.Conflict("opname %s is being submitted", id)
		}
		defer func() {
			if err := uc.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockValue); err != nil {
				uc.logger.Warn("failed to release opname lock", zap.String("opname_id", id), zap.Error(err))
			}
		}()
	}

	var out *model.OpnameHeader
	err := uow.Run(ctx, uc.tx, uc.retries, func(ctx context.Context) error {
		exists, err := uc.repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if exists {
			return apperr.InvalidState("opname %s was already submitted", id)
		}

		h := &model.OpnameHeader{
			ID:                id,
			ProductID:         input.ProductID,
			LocationID:        input.LocationID,
			StorageLocationID: input.StorageLocationID,
			UOMID:             input.UOMID,
			Remark:            input.Remark,
			CreatedBy:         input.Actor,
			CreatedAt:         time.Now().UTC(),
		}
		if err := uc.repo.Create(ctx, h); err != nil {
			return err
		}

		lines, err := uc.reconcile(ctx, h, input)
		if err != nil {
			return err
		}
		if err := uc.repo.CreateLines(ctx, lines); err != nil {
			return err
		}
		h.Lines = lines

		submitted := *h
		uow.AfterCommit(ctx, func(ctx context.Context) {
			uc.events.Dispatch(model.NewDomainEvent(model.EventOpnameSubmitted, submitted.ID, input.Actor, opnamePayload(&submitted)))
		})
		out = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("opname submitted",
		zap.String("opname_id", out.ID),
		zap.String("product_id", out.ProductID),
		zap.String("location_id", out.LocationID),
		zap.Int("lines", len(out.Lines)),
	)
	return out, nil
}

// reconcile locks every counted tuple in key order and then writes the
// counts to the ledger following the drift policy.
func (uc *opnameUseCase) reconcile(ctx context.Context, h *model.OpnameHeader, input *dto.SubmitInput) ([]model.OpnameLine, error) {
	order := make([]int, len(input.Lines))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return h.Key(input.Lines[order[a]].SizeID).Less(h.Key(input.Lines[order[b]].SizeID))
	})

	system := make([]decimal.Decimal, len(input.Lines))
	for _, i := range order {
		rec, err := uc.ledger.LockStock(ctx, h.Key(input.Lines[i].SizeID))
		if err != nil {
			return nil, err
		}
		system[i] = rec.QuantityOnHand
	}

	lines := make([]model.OpnameLine, 0, len(input.Lines))
	for i, l := range input.Lines {
		key := h.Key(l.SizeID)
		apply := &ledgerdto.ApplyInput{
			Key:           key,
			Mode:          ledgerdto.ModeAbsolute,
			Quantity:      l.QuantityPhysical,
			MovementType:  model.MovementOpname,
			ReferenceType: model.ReferenceOpname,
			ReferenceID:   h.ID,
			Notes:         l.Note,
			Actor:         input.Actor,
		}

		if l.QuantitySnapshot != nil && !l.QuantitySnapshot.Equal(system[i]) {
			switch uc.policy {
			case model.OpnameReject:
				return nil, apperr.Conflict("stock %s moved since it was counted (snapshot %s, now %s)",
					key, l.QuantitySnapshot, system[i]).
					WithDetail("size_id", l.SizeID).
					Permanent()
			case model.OpnameDelta:
				apply.Mode = ledgerdto.ModeDelta
				apply.Quantity = l.QuantityPhysical.Sub(*l.QuantitySnapshot)
			}
		}

		res, err := uc.ledger.Apply(ctx, apply)
		if err != nil {
			return nil, err
		}

		lines = append(lines, model.OpnameLine{
			ID:               uuid.New().String(),
			OpnameID:         h.ID,
			SizeID:           l.SizeID,
			QuantitySystem:   system[i],
			QuantityPhysical: l.QuantityPhysical,
			Difference:       res.Change,
			Note:             l.Note,
		})
	}
	return lines, nil
}

func (uc *opnameUseCase) Get(ctx context.Context, id string) (*model.OpnameHeader, error) {
	h, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apperr.NotFound("opname", id)
	}
	return h, nil
}

func (uc *opnameUseCase) List(ctx context.Context, filters *dto.OpnameFilters) ([]model.OpnameHeader, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func opnamePayload(h *model.OpnameHeader) map[string]any {
	lines := make([]map[string]any, len(h.Lines))
	for i, l := range h.Lines {
		lines[i] = map[string]any{
			"size_id":           l.SizeID,
			"quantity_system":   l.QuantitySystem.String(),
			"quantity_physical": l.QuantityPhysical.String(),
			"difference":        l.Difference.String(),
		}
	}
	return map[string]any{
		"opname_id":           h.ID,
		"product_id":          h.ProductID,
		"location_id":         h.LocationID,
		"storage_location_id": h.StorageLocationID,
		"uom_id":              h.UOMID,
		"lines":               lines,
	}
}
