// Package rpc registers gRPC services whose messages are
// google.protobuf.Struct documents and maps use case errors onto status codes.
package rpc

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
)

type UnaryFunc func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// Method pairs an RPC name with its implementation.
type Method struct {
	Name    string
	Handler UnaryFunc
}

// NewServiceDesc builds a descriptor that can be passed to
// grpc.Server.RegisterService together with any implementation value.
func NewServiceDesc(serviceName string, methods ...Method) *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*interface{})(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    serviceName,
	}
	for _, m := range methods {
		fullMethod := "/" + serviceName + "/" + m.Name
		fn := m.Handler
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: m.Name,
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(structpb.Struct)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return fn(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return fn(ctx, req.(*structpb.Struct))
				}
				return interceptor(ctx, in, info, handler)
			},
		})
	}
	return desc
}

// Decode converts the request document into out using its json tags.
func Decode(req *structpb.Struct, out any) error {
	if req == nil {
		req = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

// Encode converts v into a response document using its json tags.
func Encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Error maps an application error onto a gRPC status.
func Error(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		var appErr *apperr.AppError
		if !errors.As(err, &appErr) {
			return err
		}
	}
	return status.Error(codeFor(apperr.CodeOf(err)), err.Error())
}

func codeFor(code string) codes.Code {
	switch code {
	case apperr.CodeValidation:
		return codes.InvalidArgument
	case apperr.CodeNegativeStock, apperr.CodeInsufficientStock, apperr.CodeInvalidState:
		return codes.FailedPrecondition
	case apperr.CodeConcurrencyConflict:
		return codes.Aborted
	case apperr.CodeNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}

// Actor returns the caller identity carried on ctx. Every mutating call is
// stamped with it, so its absence is rejected.
func Actor(ctx context.Context) (string, error) {
	actor := auth.GetActorID(ctx)
	if actor == "" {
		return "", status.Error(codes.Unauthenticated, "missing x-user-id metadata")
	}
	return actor, nil
}

// List is the response document of paged listings.
type List[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
