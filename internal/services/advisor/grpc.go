package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
)

const advisorServiceName = "irrigation.AdvisorService"

// AdvisorServer is the gRPC surface of the advisor. Requests and responses
// are Structs carrying the same JSON shapes as the REST API.
type AdvisorServer interface {
	Analyze(context.Context, *structpb.Struct) (*structpb.Struct, error)
	History(context.Context, *wrapperspb.Int32Value) (*structpb.Struct, error)
}

func _AdvisorService_Analyze_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdvisorServer).Analyze(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + advisorServiceName + "/Analyze"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdvisorServer).Analyze(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _AdvisorService_History_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdvisorServer).History(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + advisorServiceName + "/History"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdvisorServer).History(ctx, req.(*wrapperspb.Int32Value))
	}
	return interceptor(ctx, in, info, handler)
}

var AdvisorServiceDesc = grpc.ServiceDesc{
	ServiceName: advisorServiceName,
	HandlerType: (*AdvisorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: _AdvisorService_Analyze_Handler},
		{MethodName: "History", Handler: _AdvisorService_History_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "irrigation/advisor.proto",
}

func RegisterAdvisorServer(s grpc.ServiceRegistrar, srv AdvisorServer) {
	s.RegisterService(&AdvisorServiceDesc, srv)
}

// GRPCServer implementa AdvisorServer sopra Service.
type GRPCServer struct {
	svc *Service
}

var _ AdvisorServer = (*GRPCServer)(nil)

func NewGRPCServer(svc *Service) *GRPCServer { return &GRPCServer{svc: svc} }

func (s *GRPCServer) Analyze(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	raw, err := json.Marshal(in.AsMap())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode request: %v", err)
	}
	req, err := DecodeAdviceRequest(raw)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	rec, err := s.svc.AdviseFor(ctx, Meta{Source: SourceGRPC}, req)
	if errors.Is(err, ErrInvalidRequest) {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err != nil {
		log.Printf("grpc: analyze error: %v", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	out, err := toStruct(rec)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode record: %v", err)
	}
	return out, nil
}

func (s *GRPCServer) History(_ context.Context, in *wrapperspb.Int32Value) (*structpb.Struct, error) {
	// 0 is the proto3 default, same as an absent ?limit=
	limit := int(in.GetValue())
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	recs, total := s.svc.History(limit)
	out, err := toStruct(map[string]any{"decisions": recs, "total": total})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode history: %v", err)
	}
	return out, nil
}

// AdvisorClient calls AdvisorService on an existing connection.
type AdvisorClient struct {
	cc grpc.ClientConnInterface
}

func NewAdvisorClient(cc grpc.ClientConnInterface) *AdvisorClient {
	return &AdvisorClient{cc: cc}
}

func (c *AdvisorClient) Analyze(ctx context.Context, req messages.AdviceRequest, opts ...grpc.CallOption) (messages.DecisionRecord, error) {
	var rec messages.DecisionRecord
	in, err := toStruct(req)
	if err != nil {
		return rec, fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+advisorServiceName+"/Analyze", in, out, opts...); err != nil {
		return rec, err
	}
	if err := fromStruct(out, &rec); err != nil {
		return rec, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

func (c *AdvisorClient) History(ctx context.Context, limit int, opts ...grpc.CallOption) ([]messages.DecisionRecord, int, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+advisorServiceName+"/History", wrapperspb.Int32(int32(limit)), out, opts...); err != nil {
		return nil, 0, err
	}
	var resp struct {
		Decisions []messages.DecisionRecord `json:"decisions"`
		Total     int                       `json:"total"`
	}
	if err := fromStruct(out, &resp); err != nil {
		return nil, 0, fmt.Errorf("decode history: %w", err)
	}
	return resp.Decisions, resp.Total, nil
}

// toStruct passa per JSON per riusare i tag dei messaggi.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func fromStruct(s *structpb.Struct, v any) error {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
