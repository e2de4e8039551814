package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/dmitrijs2005/daylog/internal/backup"
	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/journal"
	pb "github.com/dmitrijs2005/daylog/internal/proto"
)

const pingTimeout = 3 * time.Second

// GRPCClient forwards record operations to the daylog server. The owner
// arguments of journal.Store are ignored: the server scopes every call to
// the user behind the access token.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.JournalClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the current token. An expired token is
// dropped so the next call goes out anonymous and the user is asked to log in.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	ctx = withAccessToken(ctx, s.Token())

	err := invoker(ctx, method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error() {
		s.SetToken("")
	}
	return err
}

// NewGRPCClient creates a client for endpointURL. Extra dial options are
// appended after the defaults (insecure transport, token interceptor).
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpointURL, err)
	}
	c.conn = conn
	c.client = pb.NewJournalClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) SetToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

func (s *GRPCClient) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) Register(ctx context.Context, username, password string) (string, error) {
	resp, err := s.client.Register(ctx, &pb.Credentials{Username: username, Password: password})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.UserID, nil
}

// Login authenticates and keeps the returned access token for later calls.
func (s *GRPCClient) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := s.client.Login(ctx, &pb.Credentials{Username: username, Password: password})
	if err != nil {
		return "", s.mapError(err)
	}
	s.SetToken(resp.AccessToken)
	return resp.AccessToken, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	resp, err := s.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.GetValue() != "OK" {
		return common.ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Get(ctx context.Context, _ string, date string) (*journal.Record, error) {
	resp, err := s.client.GetRecord(ctx, &pb.DateRequest{Date: date})
	if err != nil {
		err = s.mapError(err)
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Record, nil
}

// Upsert returns (nil, nil) when the server treated the content as
// meaningless and deleted the record instead.
func (s *GRPCClient) Upsert(ctx context.Context, _ string, date, content string) (*journal.Record, error) {
	resp, err := s.client.UpsertRecord(ctx, &pb.UpsertRequest{Date: date, Content: content})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Record, nil
}

func (s *GRPCClient) UpdateSummary(ctx context.Context, _ string, date string, summary *string) (*journal.Record, error) {
	resp, err := s.client.UpdateSummary(ctx, &pb.SummaryRequest{Date: date, Summary: summary})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Record, nil
}

func (s *GRPCClient) Delete(ctx context.Context, _ string, date string) error {
	if _, err := s.client.DeleteRecord(ctx, &pb.DateRequest{Date: date}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) ListRange(ctx context.Context, _ string, from, to string) ([]journal.Record, error) {
	resp, err := s.client.ListRecords(ctx, &pb.RangeRequest{From: from, To: to})
	if err != nil {
		return nil, s.mapError(err)
	}
	if resp.Records == nil {
		return []journal.Record{}, nil
	}
	return resp.Records, nil
}

// MonthlyReview returns the server's review of the month. With cachedOnly
// a missing review yields (nil, nil) instead of a generation.
func (s *GRPCClient) MonthlyReview(ctx context.Context, year int, month time.Month, cachedOnly bool) (*journal.MonthlySummary, error) {
	resp, err := s.client.MonthlyReview(ctx, &pb.MonthRequest{Month: journal.MonthKey(year, month), CachedOnly: cachedOnly})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Summary, nil
}

func (s *GRPCClient) Keywords(ctx context.Context, year int, month time.Month) ([]journal.Keyword, error) {
	resp, err := s.client.Keywords(ctx, &pb.MonthRequest{Month: journal.MonthKey(year, month)})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Keywords, nil
}

func (s *GRPCClient) Export(ctx context.Context) ([]byte, error) {
	resp, err := s.client.Export(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Data, nil
}

func (s *GRPCClient) Import(ctx context.Context, data []byte) (*backup.Report, error) {
	resp, err := s.client.Import(ctx, &pb.Document{Data: data})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &backup.Report{Imported: resp.Imported, Rejected: resp.Rejected, Summaries: resp.Summaries}, nil
}

func (s *GRPCClient) Backup(ctx context.Context) (string, string, error) {
	resp, err := s.client.Backup(ctx, &emptypb.Empty{})
	if err != nil {
		return "", "", s.mapError(err)
	}
	return resp.Key, resp.URL, nil
}

// codeErrors maps status codes that carry one meaning regardless of the
// message. Unauthenticated and InvalidArgument are refined by message text.
var codeErrors = map[codes.Code]error{
	codes.AlreadyExists:      common.ErrAlreadyExists,
	codes.NotFound:           common.ErrNotFound,
	codes.FailedPrecondition: common.ErrNoData,
	codes.Aborted:            common.ErrGeneration,
	codes.Unavailable:        common.ErrUnavailable,
	codes.DeadlineExceeded:   common.ErrUnavailable,
	codes.PermissionDenied:   common.ErrUnauthenticated,
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	msg := st.Message()

	switch st.Code() {
	case codes.Unauthenticated:
		switch {
		case strings.Contains(msg, common.ErrTokenExpired.Error()):
			return fmt.Errorf("%w: %w", common.ErrUnauthenticated, common.ErrTokenExpired)
		case strings.Contains(msg, common.ErrInvalidCredentials.Error()):
			return fmt.Errorf("%w: %w", common.ErrUnauthenticated, common.ErrInvalidCredentials)
		default:
			return fmt.Errorf("%w: %s", common.ErrUnauthenticated, msg)
		}
	case codes.InvalidArgument:
		if strings.Contains(msg, common.ErrInvalidImport.Error()) {
			return fmt.Errorf("%w: %s", common.ErrInvalidImport, msg)
		}
		return fmt.Errorf("%w: %s", common.ErrInvalidDate, msg)
	case codes.Canceled:
		return context.Canceled
	}

	if sentinel, ok := codeErrors[st.Code()]; ok {
		return fmt.Errorf("%w: %s", sentinel, msg)
	}
	return fmt.Errorf("rpc error: %w", err)
}
