package handler

import (
	"context"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/rpc"
	"github.com/fekuna/omnipos-stock-service/internal/reservation"
	"github.com/fekuna/omnipos-stock-service/internal/reservation/dto"
)

const ServiceName = "omnipos.stock.v1.ReservationService"

type ReservationHandler struct {
	uc     reservation.UseCase
	logger logger.ZapLogger
}

func NewReservationHandler(uc reservation.UseCase, log logger.ZapLogger) *ReservationHandler {
	return &ReservationHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ReservationHandler) Register(s *grpc.Server) {
	s.RegisterService(rpc.NewServiceDesc(ServiceName,
		rpc.Method{Name: "Reserve", Handler: h.Reserve},
		rpc.Method{Name: "Release", Handler: h.Release},
		rpc.Method{Name: "GetAvailable", Handler: h.GetAvailable},
		rpc.Method{Name: "ListByReference", Handler: h.ListByReference},
	), h)
}

func (h *ReservationHandler) Reserve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := rpc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	var in dto.ReserveInput
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	in.Actor = actor

	items, err := h.uc.Reserve(ctx, &in)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(rpc.List[model.Reservation]{Items: items, Total: len(items)})
}

type referenceRequest struct {
	Reference string `json:"reference"`
}

func (h *ReservationHandler) Release(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := rpc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	var in referenceRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	n, err := h.uc.Release(ctx, in.Reference, actor)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{"released": n})
}

func (h *ReservationHandler) GetAvailable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Key model.StockKey `json:"key"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	available, err := h.uc.Available(ctx, in.Key)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(struct {
		Key       model.StockKey  `json:"key"`
		Available decimal.Decimal `json:"available"`
	}{in.Key.WithDefaults(), available})
}

func (h *ReservationHandler) ListByReference(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in referenceRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	items, err := h.uc.ListByReference(ctx, in.Reference)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(rpc.List[model.Reservation]{Items: items, Total: len(items)})
}
