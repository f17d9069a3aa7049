package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/rpc"
	"github.com/fekuna/omnipos-stock-service/internal/transfer"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
)

const ServiceName = "omnipos.stock.v1.TransferService"

type TransferHandler struct {
	uc     transfer.UseCase
	logger logger.ZapLogger
}

func NewTransferHandler(uc transfer.UseCase, log logger.ZapLogger) *TransferHandler {
	return &TransferHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *TransferHandler) Register(s *grpc.Server) {
	s.RegisterService(rpc.NewServiceDesc(ServiceName,
		rpc.Method{Name: "SaveTransfer", Handler: h.SaveTransfer},
		rpc.Method{Name: "AcceptTransfer", Handler: h.AcceptTransfer},
		rpc.Method{Name: "RejectTransfer", Handler: h.RejectTransfer},
		rpc.Method{Name: "GetTransfer", Handler: h.GetTransfer},
		rpc.Method{Name: "ListTransfers", Handler: h.ListTransfers},
	), h)
}

func (h *TransferHandler) SaveTransfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := rpc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	var in dto.CreateOrUpdateInput
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	in.Actor = actor

	t, err := h.uc.CreateOrUpdate(ctx, &in)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(t)
}

type transitionRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

func (h *TransferHandler) AcceptTransfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := rpc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	var in transitionRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	t, err := h.uc.Accept(ctx, in.ID, actor)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(t)
}

func (h *TransferHandler) RejectTransfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := rpc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	var in transitionRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	t, err := h.uc.Reject(ctx, in.ID, actor, in.Reason)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(t)
}

func (h *TransferHandler) GetTransfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in transitionRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	t, err := h.uc.Get(ctx, in.ID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(t)
}

type listRequest struct {
	Status     string `json:"status"`
	LocationID string `json:"location_id"`
	Query      string `json:"query"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

func (h *TransferHandler) ListTransfers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in listRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}

	items, total, err := h.uc.List(ctx, &dto.TransferFilters{
		Status:     model.TransferStatus(in.Status),
		LocationID: in.LocationID,
		Query:      in.Query,
		Page:       in.Page,
		PageSize:   in.PageSize,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(rpc.List[model.TransferHeader]{Items: items, Total: total})
}
