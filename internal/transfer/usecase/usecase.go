package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/masterdata"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/transfer"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
	"github.com/fekuna/omnipos-stock-service/internal/uow"
)

type transferUseCase struct {
	repo    transfer.Repository
	indexer transfer.Indexer
	ledger  ledger.UseCase
	master  masterdata.Repository
	tx      uow.Transactor
	events  notify.Sink
	metrics *metrics.Metrics
	logger  logger.ZapLogger
	retries int
}

// NewTransferUseCase wires the workflow. indexer may be nil, in which case
// free-text listing is served by the repository.
func NewTransferUseCase(
	repo transfer.Repository,
	indexer transfer.Indexer,
	ledgerUC ledger.UseCase,
	master masterdata.Repository,
	tx uow.Transactor,
	events notify.Sink,
	m *metrics.Metrics,
	log logger.ZapLogger,
	retries int,
) transfer.UseCase {
	return &transferUseCase{
		repo:    repo,
		indexer: indexer,
		ledger:  ledgerUC,
		master:  master,
		tx:      tx,
		events:  events,
		metrics: m,
		logger:  log,
		retries: retries,
	}
}

func (uc *transferUseCase) validate(ctx context.Context, input *dto.CreateOrUpdateInput) error {
	if input.SourceLocationID == "" || input.DestinationLocationID == "" {
		return apperr.Validation("source and destination locations are required")
	}
	if input.SourceLocationID == input.DestinationLocationID {
		return apperr.Validation("source and destination must differ")
	}
	if len(input.Lines) == 0 {
		return apperr.Validation("a transfer needs at least one line")
	}

	seen := make(map[model.TransferLineKey]int, len(input.Lines))
	products := make([]string, 0, len(input.Lines))
	for i, l := range input.Lines {
		n := i + 1
		if l.ProductID == "" {
			return apperr.Validation("line %d: product_id is required", n)
		}
		if l.UOMID == "" {
			return apperr.Validation("line %d: uom_id is required", n)
		}
		if !l.Quantity.IsPositive() {
			return apperr.Validation("line %d: quantity must be greater than zero", n)
		}
		key := model.TransferLineKey{ProductID: l.ProductID, SizeID: l.SizeID, Variant: model.NormalizeVariant(l.Variant)}
		if prev, dup := seen[key]; dup {
			return apperr.Validation("line %d duplicates line %d", n, prev)
		}
		seen[key] = n
		products = append(products, l.ProductID)
	}

	for _, loc := range []string{input.SourceLocationID, input.DestinationLocationID} {
		if err := masterdata.CheckPlace(ctx, uc.master, loc, input.StorageLocationID); err != nil {
			return err
		}
	}
	return masterdata.CheckProducts(ctx, uc.master, products...)
}

func (uc *transferUseCase) CreateOrUpdate(ctx context.Context, input *dto.CreateOrUpdateInput) (*model.TransferHeader, error) {
	if err := uc.validate(ctx, input); err != nil {
		return nil, err
	}

	id := input.ID
	if id == "" {
		id = uuid.New().String()
	}
	transferDate := input.TransferDate
	if transferDate.IsZero() {
		transferDate = time.Now().UTC()
	}

	var out *model.TransferHeader
	err := uow.Run(ctx, uc.tx, uc.retries, func(ctx context.Context) error {
		now := time.Now().UTC()
		h, err := uc.repo.LockByID(ctx, id)
		if err != nil {
			return err
		}

		isNew := h == nil
		if isNew {
			h = &model.TransferHeader{
				ID:        id,
				Status:    model.TransferPending,
				CreatedBy: input.Actor,
				CreatedAt: now,
			}
		} else if h.Status != model.TransferPending {
			return apperr.InvalidState("transfer %s is %s and can no longer be edited", id, h.Status)
		}

		h.SourceLocationID = input.SourceLocationID
		h.DestinationLocationID = input.DestinationLocationID
		h.StorageLocationID = input.StorageLocationID
		h.TransferDate = transferDate
		h.Remark = input.Remark
		h.UpdatedBy = input.Actor
		h.UpdatedAt = now

		if isNew {
			err = uc.repo.Create(ctx, h)
		} else {
			err = uc.repo.Update(ctx, h)
		}
		if err != nil {
			return err
		}

		if err := uc.syncLines(ctx, id, input.Lines, now); err != nil {
			return err
		}

		h.Lines, err = uc.repo.ListLines(ctx, id)
		if err != nil {
			return err
		}
		out = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.index(ctx, out)
	return out, nil
}

// syncLines makes the stored lines of a transfer equal the submission:
// unknown keys are dropped, known keys updated in place, new keys inserted.
func (uc *transferUseCase) syncLines(ctx context.Context, transferID string, lines []dto.LineInput, now time.Time) error {
	submitted := make(map[model.TransferLineKey]bool, len(lines))
	for _, l := range lines {
		submitted[model.TransferLineKey{ProductID: l.ProductID, SizeID: l.SizeID, Variant: model.NormalizeVariant(l.Variant)}] = true
	}

	stored, err := uc.repo.ListLines(ctx, transferID)
	if err != nil {
		return err
	}
	var stale []string
	for _, l := range stored {
		if !submitted[l.Key()] {
			stale = append(stale, l.ID)
		}
	}
	if len(stale) > 0 {
		if err := uc.repo.DeleteLines(ctx, transferID, stale); err != nil {
			return err
		}
	}

	for _, l := range lines {
		line := &model.TransferLine{
			ID:         uuid.New().String(),
			TransferID: transferID,
			ProductID:  l.ProductID,
			UOMID:      l.UOMID,
			SizeID:     l.SizeID,
			Variant:    model.NormalizeVariant(l.Variant),
			Quantity:   l.Quantity,
			UpdatedAt:  now,
		}
		if err := uc.repo.UpsertLine(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

func (uc *transferUseCase) Accept(ctx context.Context, id, actor string) (*model.TransferHeader, error) {
	var out *model.TransferHeader
	err := uow.Run(ctx, uc.tx, uc.retries, func(ctx context.Context) error {
		h, err := uc.lockPending(ctx, id)
		if err != nil {
			return err
		}
		lines, err := uc.repo.ListLines(ctx, id)
		if err != nil {
			return err
		}

		if err := uc.lockTuples(ctx, h, lines); err != nil {
			return err
		}

		for i, l := range lines {
			if _, err := uc.ledger.Apply(ctx, &ledgerdto.ApplyInput{
				Key:           h.SourceKey(l),
				Mode:          ledgerdto.ModeDelta,
				Quantity:      l.Quantity.Neg(),
				MovementType:  model.MovementTransferOut,
				ReferenceType: model.ReferenceTransfer,
				ReferenceID:   h.ID,
				Actor:         actor,
			}); err != nil {
				return annotateLine(err, i+1, l)
			}
			if _, err := uc.ledger.Apply(ctx, &ledgerdto.ApplyInput{
				Key:           h.DestinationKey(l),
				Mode:          ledgerdto.ModeDelta,
				Quantity:      l.Quantity,
				MovementType:  model.MovementTransferIn,
				ReferenceType: model.ReferenceTransfer,
				ReferenceID:   h.ID,
				Actor:         actor,
			}); err != nil {
				return annotateLine(err, i+1, l)
			}
		}

		h.Status = model.TransferAccepted
		h.UpdatedBy = actor
		h.UpdatedAt = time.Now().UTC()
		if err := uc.repo.Update(ctx, h); err != nil {
			return err
		}
		h.Lines = lines

		accepted := *h
		uow.AfterCommit(ctx, func(ctx context.Context) {
			uc.metrics.RecordTransition(string(model.TransferAccepted))
			uc.events.Dispatch(model.NewDomainEvent(model.EventTransferAccepted, accepted.ID, actor, transferPayload(&accepted)))
		})
		out = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("transfer accepted", zap.String("transfer_id", id), zap.Int("lines", len(out.Lines)))
	uc.index(ctx, out)
	return out, nil
}

// lockTuples takes the row locks of every tuple the transfer touches in key
// order, so two accepts over overlapping tuples cannot deadlock.
func (uc *transferUseCase) lockTuples(ctx context.Context, h *model.TransferHeader, lines []model.TransferLine) error {
	set := make(map[model.StockKey]bool, 2*len(lines))
	for _, l := range lines {
		set[h.SourceKey(l)] = true
		set[h.DestinationKey(l)] = true
	}
	keys := make([]model.StockKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	for _, k := range keys {
		if _, err := uc.ledger.LockStock(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func annotateLine(err error, n int, l model.TransferLine) error {
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		return err
	}
	appErr.Message = fmt.Sprintf("line %d (product %s, size %s): %s", n, l.ProductID, l.SizeID, appErr.Message)
	return appErr.
		WithDetail("line_id", l.ID).
		WithDetail("line_no", fmt.Sprint(n))
}

func (uc *transferUseCase) Reject(ctx context.Context, id, actor, reason string) (*model.TransferHeader, error) {
	var out *model.TransferHeader
	err := uow.Run(ctx, uc.tx, uc.retries, func(ctx context.Context) error {
		h, err := uc.lockPending(ctx, id)
		if err != nil {
			return err
		}

		h.Status = model.TransferRejected
		h.RejectReason = reason
		h.UpdatedBy = actor
		h.UpdatedAt = time.Now().UTC()
		if err := uc.repo.Update(ctx, h); err != nil {
			return err
		}
		if h.Lines, err = uc.repo.ListLines(ctx, id); err != nil {
			return err
		}

		rejected := *h
		uow.AfterCommit(ctx, func(ctx context.Context) {
			uc.metrics.RecordTransition(string(model.TransferRejected))
			payload := transferPayload(&rejected)
			payload["reason"] = reason
			uc.events.Dispatch(model.NewDomainEvent(model.EventTransferRejected, rejected.ID, actor, payload))
		})
		out = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.index(ctx, out)
	return out, nil
}

func (uc *transferUseCase) lockPending(ctx context.Context, id string) (*model.TransferHeader, error) {
	h, err := uc.repo.LockByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apperr.NotFound("transfer", id)
	}
	if h.Status != model.TransferPending {
		return nil, apperr.InvalidState("transfer %s is already %s", id, h.Status)
	}
	return h, nil
}

func (uc *transferUseCase) Get(ctx context.Context, id string) (*model.TransferHeader, error) {
	h, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apperr.NotFound("transfer", id)
	}
	h.Lines, err = uc.repo.ListLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (uc *transferUseCase) List(ctx context.Context, filters *dto.TransferFilters) ([]model.TransferHeader, int, error) {
	if filters.Query != "" && uc.indexer != nil {
		items, total, err := uc.indexer.Search(ctx, filters)
		if err == nil {
			return items, total, nil
		}
		uc.logger.Error("transfer search failed, falling back to DB", zap.Error(err))
	}
	return uc.repo.FindAll(ctx, filters)
}

func (uc *transferUseCase) index(ctx context.Context, h *model.TransferHeader) {
	if uc.indexer == nil || h == nil {
		return
	}
	if err := uc.indexer.Index(ctx, h); err != nil {
		uc.logger.Warn("failed to index transfer", zap.String("transfer_id", h.ID), zap.Error(err))
	}
}

func transferPayload(h *model.TransferHeader) map[string]any {
	lines := make([]map[string]any, len(h.Lines))
	for i, l := range h.Lines {
		lines[i] = map[string]any{
			"product_id": l.ProductID,
			"uom_id":     l.UOMID,
			"size_id":    l.SizeID,
			"variant":    l.Variant,
			"quantity":   l.Quantity.String(),
		}
	}
	return map[string]any{
		"transfer_id":             h.ID,
		"source_location_id":      h.SourceLocationID,
		"destination_location_id": h.DestinationLocationID,
		"storage_location_id":     h.StorageLocationID,
		"lines":                   lines,
	}
}
