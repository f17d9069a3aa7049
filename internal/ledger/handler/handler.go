package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/rpc"
)

const ServiceName = "omnipos.stock.v1.LedgerService"

type LedgerHandler struct {
	uc     ledger.UseCase
	logger logger.ZapLogger
}

func NewLedgerHandler(uc ledger.UseCase, log logger.ZapLogger) *LedgerHandler {
	return &LedgerHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *LedgerHandler) Register(s *grpc.Server) {
	s.RegisterService(rpc.NewServiceDesc(ServiceName,
		rpc.Method{Name: "GetStock", Handler: h.GetStock},
		rpc.Method{Name: "ListStock", Handler: h.ListStock},
		rpc.Method{Name: "ListMovements", Handler: h.ListMovements},
		rpc.Method{Name: "AdjustStock", Handler: h.AdjustStock},
		rpc.Method{Name: "SetReorderPoint", Handler: h.SetReorderPoint},
		rpc.Method{Name: "ArchiveStock", Handler: h.ArchiveStock},
	), h)
}

// StockView is a record plus its available-to-sell quantity.
type StockView struct {
	*model.InventoryRecord
	Available decimal.Decimal `json:"available"`
}

func view(rec *model.InventoryRecord) StockView {
	return StockView{InventoryRecord: rec, Available: rec.Available()}
}

type keyRequest struct {
	Key model.StockKey `json:"key"`
}

func (h *LedgerHandler) GetStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in keyRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	rec, err := h.uc.GetStock(ctx, in.Key)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(view(rec))
}

type listStockRequest struct {
	ProductID         string `json:"product_id"`
	LocationID        string `json:"location_id"`
	StorageLocationID string `json:"storage_location_id"`
	LowStock          bool   `json:"low_stock"`
	Page              int    `json:"page"`
	PageSize          int    `json:"page_size"`
}

func (h *LedgerHandler) ListStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in listStockRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	items, total, err := h.uc.ListStock(ctx, &dto.StockFilters{
		ProductID:         in.ProductID,
		LocationID:        in.LocationID,
		StorageLocationID: in.StorageLocationID,
		LowStock:          in.LowStock,
		Page:              in.Page,
		PageSize:          in.PageSize,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}

	views := make([]StockView, len(items))
	for i := range items {
		views[i] = view(&items[i])
	}
	return rpc.Encode(rpc.List[StockView]{Items: views, Total: total})
}

type listMovementsRequest struct {
	ProductID    string     `json:"product_id"`
	LocationID   string     `json:"location_id"`
	MovementType string     `json:"movement_type"`
	ReferenceID  string     `json:"reference_id"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Page         int        `json:"page"`
	PageSize     int        `json:"page_size"`
}

func (h *LedgerHandler) ListMovements(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in listMovementsRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	items, total, err := h.uc.ListMovements(ctx, &dto.MovementFilters{
		ProductID:    in.ProductID,
		LocationID:   in.LocationID,
		MovementType: in.MovementType,
		ReferenceID:  in.ReferenceID,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Page:         in.Page,
		PageSize:     in.PageSize,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(rpc.List[model.InventoryMovement]{Items: items, Total: total})
}

func (h *LedgerHandler) AdjustStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := rpc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	var in dto.AdjustInput
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	in.Actor = actor

	rec, err := h.uc.Adjust(ctx, &in)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(view(rec))
}

type reorderPointRequest struct {
	Key          model.StockKey  `json:"key"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
}

func (h *LedgerHandler) SetReorderPoint(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := rpc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	var in reorderPointRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	rec, err := h.uc.SetReorderPoint(ctx, in.Key, in.ReorderPoint, actor)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(view(rec))
}

func (h *LedgerHandler) ArchiveStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := rpc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	var in keyRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	if err := h.uc.Archive(ctx, in.Key, actor); err != nil {
		return nil, rpc.Error(err)
	}
	return &structpb.Struct{}, nil
}
