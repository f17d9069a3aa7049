package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/opname"
	"github.com/fekuna/omnipos-stock-service/internal/opname/dto"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/rpc"
)

const ServiceName = "omnipos.stock.v1.OpnameService"

type OpnameHandler struct {
	uc     opname.UseCase
	logger logger.ZapLogger
}

func NewOpnameHandler(uc opname.UseCase, log logger.ZapLogger) *OpnameHandler {
	return &OpnameHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OpnameHandler) Register(s *grpc.Server) {
	s.RegisterService(rpc.NewServiceDesc(ServiceName,
		rpc.Method{Name: "SubmitOpname", Handler: h.SubmitOpname},
		rpc.Method{Name: "GetOpname", Handler: h.GetOpname},
		rpc.Method{Name: "ListOpnames", Handler: h.ListOpnames},
	), h)
}

func (h *OpnameHandler) SubmitOpname(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := rpc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	var in dto.SubmitInput
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	in.Actor = actor

	o, err := h.uc.Submit(ctx, &in)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(o)
}

func (h *OpnameHandler) GetOpname(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	o, err := h.uc.Get(ctx, in.ID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(o)
}

func (h *OpnameHandler) ListOpnames(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ProductID  string `json:"product_id"`
		LocationID string `json:"location_id"`
		Page       int    `json:"page"`
		PageSize   int    `json:"page_size"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	items, total, err := h.uc.List(ctx, &dto.OpnameFilters{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Page:       in.Page,
		PageSize:   in.PageSize,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(rpc.List[model.OpnameHeader]{Items: items, Total: total})
}
