package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name
const ServiceName = "mond.v1.ReportService"

// Method names of ServiceName
const (
	MethodRegisterAsset  = "RegisterAsset"
	MethodRecordFxRate   = "RecordFxRate"
	MethodRecordSnapshot = "RecordSnapshot"
	MethodGetDraft       = "GetDraft"
	MethodGetDailyReport = "GetDailyReport"
	MethodGetHistory     = "GetHistory"
	MethodCheckDay       = "CheckDay"

	MethodGetTickerAttribution = "GetTickerAttribution"
	MethodGetMarketKeys        = "GetMarketKeys"
	MethodGetPriceHistory      = "GetPriceHistory"
	MethodGetFxHistory         = "GetFxHistory"
	MethodListSnapshots        = "ListSnapshots"
)

// ReportServiceServer is the server API of mond.v1.ReportService.
// Every request and response is a google.protobuf.Struct.
type ReportServiceServer interface {
	RegisterAsset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordFxRate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDraft(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDailyReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckDay(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTickerAttribution(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMarketKeys(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPriceHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetFxHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSnapshots(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterReportServiceServer registers srv on s
func RegisterReportServiceServer(s grpc.ServiceRegistrar, srv ReportServiceServer) {
	s.RegisterService(&ReportServiceDesc, srv)
}

// FullMethod returns "/mond.v1.ReportService/<method>"
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ReportServiceDesc describes mond.v1.ReportService
var ReportServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReportServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegisterAsset, ReportServiceServer.RegisterAsset),
		unary(MethodRecordFxRate, ReportServiceServer.RecordFxRate),
		unary(MethodRecordSnapshot, ReportServiceServer.RecordSnapshot),
		unary(MethodGetDraft, ReportServiceServer.GetDraft),
		unary(MethodGetDailyReport, ReportServiceServer.GetDailyReport),
		unary(MethodGetHistory, ReportServiceServer.GetHistory),
		unary(MethodCheckDay, ReportServiceServer.CheckDay),
		unary(MethodGetTickerAttribution, ReportServiceServer.GetTickerAttribution),
		unary(MethodGetMarketKeys, ReportServiceServer.GetMarketKeys),
		unary(MethodGetPriceHistory, ReportServiceServer.GetPriceHistory),
		unary(MethodGetFxHistory, ReportServiceServer.GetFxHistory),
		unary(MethodListSnapshots, ReportServiceServer.ListSnapshots),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mond/v1/report.proto",
}

type unaryMethod func(ReportServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unary builds the MethodDesc of a Struct-in, Struct-out method
func unary(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ReportServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ReportServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls mond.v1.ReportService over a connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a new ReportService client
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with the given request fields
func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
