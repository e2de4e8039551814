// Package grpc serves the journal API over gRPC with the JSON codec from
// internal/proto.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/daylog/internal/backup"
	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/logging"
	pb "github.com/dmitrijs2005/daylog/internal/proto"
	"github.com/dmitrijs2005/daylog/internal/server/models"
	"github.com/dmitrijs2005/daylog/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.Session, error)
	Authenticate(token string) (string, error)
}

type RecordService interface {
	Get(ctx context.Context, userID, date string) (*journal.Record, error)
	Save(ctx context.Context, userID, date, content string) (*journal.Record, error)
	UpdateSummary(ctx context.Context, userID, date string, summary *string) (*journal.Record, error)
	Delete(ctx context.Context, userID, date string) error
	List(ctx context.Context, userID, from, to string) ([]journal.Record, error)
	MonthlyReview(ctx context.Context, userID, month string, cachedOnly bool) (*journal.MonthlySummary, error)
	Keywords(ctx context.Context, userID, month string) ([]journal.Keyword, error)
	Export(ctx context.Context, userID string) ([]byte, error)
	Import(ctx context.Context, userID string, data []byte) (*backup.Report, error)
	Backup(ctx context.Context, userID string) (string, string, error)
}

type GRPCServer struct {
	pb.UnimplementedJournalServer
	address string
	users   UserService
	records RecordService
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, us UserService, rs RecordService) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		users:   us,
		records: rs,
	}
}

// newServer builds the grpc.Server with the interceptor chain and the journal
// service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	pb.RegisterJournalServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
