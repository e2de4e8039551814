// Package proto describes the daylog journal gRPC service: message types, a
// JSON codec and the service descriptor shared by server and client.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "daylog.v1.Journal"

// FullMethod returns the gRPC method path of a journal method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Method names.
const (
	MethodRegister      = "Register"
	MethodLogin         = "Login"
	MethodPing          = "Ping"
	MethodGetRecord     = "GetRecord"
	MethodUpsertRecord  = "UpsertRecord"
	MethodUpdateSummary = "UpdateSummary"
	MethodDeleteRecord  = "DeleteRecord"
	MethodListRecords   = "ListRecords"
	MethodMonthlyReview = "MonthlyReview"
	MethodKeywords      = "Keywords"
	MethodExport        = "Export"
	MethodImport        = "Import"
	MethodBackup        = "Backup"
)

type JournalServer interface {
	Register(context.Context, *Credentials) (*RegisterResponse, error)
	Login(context.Context, *Credentials) (*LoginResponse, error)
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	GetRecord(context.Context, *DateRequest) (*RecordResponse, error)
	UpsertRecord(context.Context, *UpsertRequest) (*RecordResponse, error)
	UpdateSummary(context.Context, *SummaryRequest) (*RecordResponse, error)
	DeleteRecord(context.Context, *DateRequest) (*emptypb.Empty, error)
	ListRecords(context.Context, *RangeRequest) (*RangeResponse, error)
	MonthlyReview(context.Context, *MonthRequest) (*ReviewResponse, error)
	Keywords(context.Context, *MonthRequest) (*KeywordsResponse, error)
	Export(context.Context, *emptypb.Empty) (*Document, error)
	Import(context.Context, *Document) (*ImportResponse, error)
	Backup(context.Context, *emptypb.Empty) (*BackupResponse, error)
}

// UnimplementedJournalServer can be embedded to have forward compatible
// implementations.
type UnimplementedJournalServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedJournalServer) Register(context.Context, *Credentials) (*RegisterResponse, error) {
	return nil, unimplemented(MethodRegister)
}
func (UnimplementedJournalServer) Login(context.Context, *Credentials) (*LoginResponse, error) {
	return nil, unimplemented(MethodLogin)
}
func (UnimplementedJournalServer) Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, unimplemented(MethodPing)
}
func (UnimplementedJournalServer) GetRecord(context.Context, *DateRequest) (*RecordResponse, error) {
	return nil, unimplemented(MethodGetRecord)
}
func (UnimplementedJournalServer) UpsertRecord(context.Context, *UpsertRequest) (*RecordResponse, error) {
	return nil, unimplemented(MethodUpsertRecord)
}
func (UnimplementedJournalServer) UpdateSummary(context.Context, *SummaryRequest) (*RecordResponse, error) {
	return nil, unimplemented(MethodUpdateSummary)
}
func (UnimplementedJournalServer) DeleteRecord(context.Context, *DateRequest) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodDeleteRecord)
}
func (UnimplementedJournalServer) ListRecords(context.Context, *RangeRequest) (*RangeResponse, error) {
	return nil, unimplemented(MethodListRecords)
}
func (UnimplementedJournalServer) MonthlyReview(context.Context, *MonthRequest) (*ReviewResponse, error) {
	return nil, unimplemented(MethodMonthlyReview)
}
func (UnimplementedJournalServer) Keywords(context.Context, *MonthRequest) (*KeywordsResponse, error) {
	return nil, unimplemented(MethodKeywords)
}
func (UnimplementedJournalServer) Export(context.Context, *emptypb.Empty) (*Document, error) {
	return nil, unimplemented(MethodExport)
}
func (UnimplementedJournalServer) Import(context.Context, *Document) (*ImportResponse, error) {
	return nil, unimplemented(MethodImport)
}
func (UnimplementedJournalServer) Backup(context.Context, *emptypb.Empty) (*BackupResponse, error) {
	return nil, unimplemented(MethodBackup)
}

// unary builds the method descriptor of a unary RPC.
func unary[Req, Resp any](name string, call func(JournalServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(JournalServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(JournalServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var JournalServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*JournalServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, JournalServer.Register),
		unary(MethodLogin, JournalServer.Login),
		unary(MethodPing, JournalServer.Ping),
		unary(MethodGetRecord, JournalServer.GetRecord),
		unary(MethodUpsertRecord, JournalServer.UpsertRecord),
		unary(MethodUpdateSummary, JournalServer.UpdateSummary),
		unary(MethodDeleteRecord, JournalServer.DeleteRecord),
		unary(MethodListRecords, JournalServer.ListRecords),
		unary(MethodMonthlyReview, JournalServer.MonthlyReview),
		unary(MethodKeywords, JournalServer.Keywords),
		unary(MethodExport, JournalServer.Export),
		unary(MethodImport, JournalServer.Import),
		unary(MethodBackup, JournalServer.Backup),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "daylog/journal",
}

func RegisterJournalServer(s grpc.ServiceRegistrar, srv JournalServer) {
	s.RegisterService(&JournalServiceDesc, srv)
}

type JournalClient interface {
	Register(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (*RegisterResponse, error)
	Login(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (*LoginResponse, error)
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	GetRecord(ctx context.Context, in *DateRequest, opts ...grpc.CallOption) (*RecordResponse, error)
	UpsertRecord(ctx context.Context, in *UpsertRequest, opts ...grpc.CallOption) (*RecordResponse, error)
	UpdateSummary(ctx context.Context, in *SummaryRequest, opts ...grpc.CallOption) (*RecordResponse, error)
	DeleteRecord(ctx context.Context, in *DateRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ListRecords(ctx context.Context, in *RangeRequest, opts ...grpc.CallOption) (*RangeResponse, error)
	MonthlyReview(ctx context.Context, in *MonthRequest, opts ...grpc.CallOption) (*ReviewResponse, error)
	Keywords(ctx context.Context, in *MonthRequest, opts ...grpc.CallOption) (*KeywordsResponse, error)
	Export(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*Document, error)
	Import(ctx context.Context, in *Document, opts ...grpc.CallOption) (*ImportResponse, error)
	Backup(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*BackupResponse, error)
}

type journalClient struct {
	cc grpc.ClientConnInterface
}

func NewJournalClient(cc grpc.ClientConnInterface) JournalClient {
	return &journalClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *journalClient) Register(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *journalClient) Login(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *journalClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, MethodPing, in, opts)
}

func (c *journalClient) GetRecord(ctx context.Context, in *DateRequest, opts ...grpc.CallOption) (*RecordResponse, error) {
	return invoke[RecordResponse](ctx, c.cc, MethodGetRecord, in, opts)
}

func (c *journalClient) UpsertRecord(ctx context.Context, in *UpsertRequest, opts ...grpc.CallOption) (*RecordResponse, error) {
	return invoke[RecordResponse](ctx, c.cc, MethodUpsertRecord, in, opts)
}

func (c *journalClient) UpdateSummary(ctx context.Context, in *SummaryRequest, opts ...grpc.CallOption) (*RecordResponse, error) {
	return invoke[RecordResponse](ctx, c.cc, MethodUpdateSummary, in, opts)
}

func (c *journalClient) DeleteRecord(ctx context.Context, in *DateRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, MethodDeleteRecord, in, opts)
}

func (c *journalClient) ListRecords(ctx context.Context, in *RangeRequest, opts ...grpc.CallOption) (*RangeResponse, error) {
	return invoke[RangeResponse](ctx, c.cc, MethodListRecords, in, opts)
}

func (c *journalClient) MonthlyReview(ctx context.Context, in *MonthRequest, opts ...grpc.CallOption) (*ReviewResponse, error) {
	return invoke[ReviewResponse](ctx, c.cc, MethodMonthlyReview, in, opts)
}

func (c *journalClient) Keywords(ctx context.Context, in *MonthRequest, opts ...grpc.CallOption) (*KeywordsResponse, error) {
	return invoke[KeywordsResponse](ctx, c.cc, MethodKeywords, in, opts)
}

func (c *journalClient) Export(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*Document, error) {
	return invoke[Document](ctx, c.cc, MethodExport, in, opts)
}

func (c *journalClient) Import(ctx context.Context, in *Document, opts ...grpc.CallOption) (*ImportResponse, error) {
	return invoke[ImportResponse](ctx, c.cc, MethodImport, in, opts)
}

func (c *journalClient) Backup(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*BackupResponse, error) {
	return invoke[BackupResponse](ctx, c.cc, MethodBackup, in, opts)
}
