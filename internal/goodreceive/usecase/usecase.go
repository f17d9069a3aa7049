package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/goodreceive"
	"github.com/fekuna/omnipos-stock-service/internal/goodreceive/dto"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/masterdata"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/uow"
)

type goodReceiveUseCase struct {
	repo      goodreceive.Repository
	ledger    ledger.UseCase
	master    masterdata.Repository
	converter *masterdata.Converter
	tx        uow.Transactor
	events    notify.Sink
	logger    logger.ZapLogger
	retries   int
}

func NewGoodReceiveUseCase(
	repo goodreceive.Repository,
	ledgerUC ledger.UseCase,
	master masterdata.Repository,
	tx uow.Transactor,
	events notify.Sink,
	log logger.ZapLogger,
	retries int,
) goodreceive.UseCase {
	return &goodReceiveUseCase{
		repo:      repo,
		ledger:    ledgerUC,
		master:    master,
		converter: masterdata.NewConverter(master),
		tx:        tx,
		events:    events,
		logger:    log,
		retries:   retries,
	}
}

// items validates the input and resolves every conversion factor.
func (uc *goodReceiveUseCase) items(ctx context.Context, input *dto.ReceiveInput) ([]model.GoodReceiveItem, error) {
	switch input.SourceType {
	case model.ReceiveFromProduction, model.ReceiveFromPurchase:
	default:
		return nil, apperr.Validation("source_type must be %q or %q", model.ReceiveFromProduction, model.ReceiveFromPurchase)
	}
	if input.LocationID == "" {
		return nil, apperr.Validation("location_id is required")
	}
	if len(input.Items) == 0 {
		return nil, apperr.Validation("a receipt needs at least one item")
	}
	if err := masterdata.CheckPlace(ctx, uc.master, input.LocationID, input.StorageLocationID); err != nil {
		return nil, err
	}

	products := make([]string, 0, len(input.Items))
	items := make([]model.GoodReceiveItem, 0, len(input.Items))
	for i, it := range input.Items {
		n := i + 1
		if it.ProductID == "" || it.UOMID == "" {
			return nil, apperr.Validation("item %d: product_id and uom_id are required", n)
		}
		if !it.Qty.IsPositive() {
			return nil, apperr.Validation("item %d: qty must be greater than zero", n)
		}
		target := it.TargetUOMID
		if target == "" {
			target = it.UOMID
		}

		var factor, converted decimal.Decimal
		if it.QtyConvert != nil {
			if !it.QtyConvert.IsPositive() {
				return nil, apperr.Validation("item %d: qty_convert must be greater than zero", n)
			}
			factor = *it.QtyConvert
			converted = it.Qty.Mul(factor).Round(masterdata.QuantityScale)
		} else {
			var err error
			if factor, err = uc.converter.Factor(ctx, it.UOMID, target); err != nil {
				return nil, err
			}
			if converted, err = uc.converter.Convert(ctx, it.Qty, it.UOMID, target); err != nil {
				return nil, err
			}
		}

		products = append(products, it.ProductID)
		items = append(items, model.GoodReceiveItem{
			ID:           uuid.New().String(),
			ProductID:    it.ProductID,
			SizeID:       it.SizeID,
			UOMID:        it.UOMID,
			TargetUOMID:  target,
			Qty:          it.Qty,
			QtyConvert:   factor,
			QtyConverted: converted,
		})
	}
	if err := masterdata.CheckProducts(ctx, uc.master, products...); err != nil {
		return nil, err
	}
	return items, nil
}

func (uc *goodReceiveUseCase) Receive(ctx context.Context, input *dto.ReceiveInput) (*model.GoodReceiveHeader, error) {
	items, err := uc.items(ctx, input)
	if err != nil {
		return nil, err
	}

	id := input.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	h := &model.GoodReceiveHeader{
		ID:                id,
		SourceType:        input.SourceType,
		SourceReference:   input.SourceReference,
		LocationID:        input.LocationID,
		StorageLocationID: input.StorageLocationID,
		ReceivedDate:      input.ReceivedDate,
		Remark:            input.Remark,
		CreatedBy:         input.Actor,
		CreatedAt:         now,
	}
	if h.ReceivedDate.IsZero() {
		h.ReceivedDate = now
	}
	for i := range items {
		items[i].ReceiveID = id
	}

	err = uow.Run(ctx, uc.tx, uc.retries, func(ctx context.Context) error {
		exists, err := uc.repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if exists {
			return apperr.InvalidState("good receive %s was already applied", id)
		}
		if err := uc.repo.Create(ctx, h); err != nil {
			return err
		}
		if err := uc.lockTuples(ctx, h, items); err != nil {
			return err
		}

		for _, it := range items {
			if _, err := uc.ledger.Apply(ctx, &ledgerdto.ApplyInput{
				Key:           h.Key(it),
				Mode:          ledgerdto.ModeDelta,
				Quantity:      it.QtyConverted,
				MovementType:  model.MovementReceive,
				ReferenceType: model.ReferenceGoodReceive,
				ReferenceID:   id,
				Notes:         h.SourceType + " " + h.SourceReference,
				Actor:         input.Actor,
			}); err != nil {
				return err
			}
		}
		if err := uc.repo.CreateItems(ctx, items); err != nil {
			return err
		}

		received := *h
		received.Items = items
		uow.AfterCommit(ctx, func(ctx context.Context) {
			uc.events.Dispatch(model.NewDomainEvent(model.EventStockReceived, received.ID, input.Actor, receivePayload(&received)))
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.Items = items
	uc.logger.Info("goods received",
		zap.String("receive_id", id),
		zap.String("source_type", h.SourceType),
		zap.String("source_reference", h.SourceReference),
		zap.Int("items", len(items)),
	)
	return h, nil
}

// lockTuples takes the row locks of every receiving tuple in key order, so
// two receipts over overlapping tuples cannot deadlock.
func (uc *goodReceiveUseCase) lockTuples(ctx context.Context, h *model.GoodReceiveHeader, items []model.GoodReceiveItem) error {
	set := make(map[model.StockKey]bool, len(items))
	for _, it := range items {
		set[h.Key(it)] = true
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

func (uc *goodReceiveUseCase) Get(ctx context.Context, id string) (*model.GoodReceiveHeader, error) {
	h, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apperr.NotFound("good receive", id)
	}
	return h, nil
}

func (uc *goodReceiveUseCase) List(ctx context.Context, filters *dto.ReceiveFilters) ([]model.GoodReceiveHeader, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func receivePayload(h *model.GoodReceiveHeader) map[string]any {
	items := make([]map[string]any, len(h.Items))
	for i, it := range h.Items {
		items[i] = map[string]any{
			"product_id":    it.ProductID,
			"size_id":       it.SizeID,
			"uom_id":        it.TargetUOMID,
			"qty_converted": it.QtyConverted.String(),
		}
	}
	return map[string]any{
		"receive_id":          h.ID,
		"source_type":         h.SourceType,
		"source_reference":    h.SourceReference,
		"location_id":         h.LocationID,
		"storage_location_id": h.StorageLocationID,
		"items":               items,
	}
}
