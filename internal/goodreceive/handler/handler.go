package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-stock-service/internal/goodreceive"
	"github.com/fekuna/omnipos-stock-service/internal/goodreceive/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/rpc"
)

const ServiceName = "omnipos.stock.v1.GoodReceiveService"

type GoodReceiveHandler struct {
	uc     goodreceive.UseCase
	logger logger.ZapLogger
}

func NewGoodReceiveHandler(uc goodreceive.UseCase, log logger.ZapLogger) *GoodReceiveHandler {
	return &GoodReceiveHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *GoodReceiveHandler) Register(s *grpc.Server) {
	s.RegisterService(rpc.NewServiceDesc(ServiceName,
		rpc.Method{Name: "ReceiveGoods", Handler: h.ReceiveGoods},
		rpc.Method{Name: "GetReceipt", Handler: h.GetReceipt},
		rpc.Method{Name: "ListReceipts", Handler: h.ListReceipts},
	), h)
}

func (h *GoodReceiveHandler) ReceiveGoods(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := rpc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	var in dto.ReceiveInput
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	in.Actor = actor

	r, err := h.uc.Receive(ctx, &in)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(r)
}

func (h *GoodReceiveHandler) GetReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	r, err := h.uc.Get(ctx, in.ID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(r)
}

func (h *GoodReceiveHandler) ListReceipts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		SourceType      string `json:"source_type"`
		SourceReference string `json:"source_reference"`
		LocationID      string `json:"location_id"`
		Page            int    `json:"page"`
		PageSize        int    `json:"page_size"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	items, total, err := h.uc.List(ctx, &dto.ReceiveFilters{
		SourceType:      in.SourceType,
		SourceReference: in.SourceReference,
		LocationID:      in.LocationID,
		Page:            in.Page,
		PageSize:        in.PageSize,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(rpc.List[model.GoodReceiveHeader]{Items: items, Total: total})
}
