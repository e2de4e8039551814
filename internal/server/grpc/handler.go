package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	pb "github.com/dmitrijs2005/daylog/internal/proto"
)

func (s *GRPCServer) Register(ctx context.Context, req *pb.Credentials) (*pb.RegisterResponse, error) {
	s.logger.Info(ctx, "Registration request", "username", req.Username)

	u, err := s.users.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &pb.RegisterResponse{UserID: u.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.Credentials) (*pb.LoginResponse, error) {
	sess, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &pb.LoginResponse{UserID: sess.UserID, AccessToken: sess.AccessToken}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("OK"), nil
}

func (s *GRPCServer) GetRecord(ctx context.Context, req *pb.DateRequest) (*pb.RecordResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.records.Get(ctx, uid, req.Date)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &pb.RecordResponse{Record: rec}, nil
}

func (s *GRPCServer) UpsertRecord(ctx context.Context, req *pb.UpsertRequest) (*pb.RecordResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.records.Save(ctx, uid, req.Date, req.Content)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &pb.RecordResponse{Record: rec}, nil
}

func (s *GRPCServer) UpdateSummary(ctx context.Context, req *pb.SummaryRequest) (*pb.RecordResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.records.UpdateSummary(ctx, uid, req.Date, req.Summary)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &pb.RecordResponse{Record: rec}, nil
}

func (s *GRPCServer) DeleteRecord(ctx context.Context, req *pb.DateRequest) (*emptypb.Empty, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.records.Delete(ctx, uid, req.Date); err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) ListRecords(ctx context.Context, req *pb.RangeRequest) (*pb.RangeResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.records.List(ctx, uid, req.From, req.To)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &pb.RangeResponse{Records: recs}, nil
}

func (s *GRPCServer) MonthlyReview(ctx context.Context, req *pb.MonthRequest) (*pb.ReviewResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	sum, err := s.records.MonthlyReview(ctx, uid, req.Month, req.CachedOnly)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &pb.ReviewResponse{Summary: sum}, nil
}

func (s *GRPCServer) Keywords(ctx context.Context, req *pb.MonthRequest) (*pb.KeywordsResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	kws, err := s.records.Keywords(ctx, uid, req.Month)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &pb.KeywordsResponse{Keywords: kws}, nil
}

func (s *GRPCServer) Export(ctx context.Context, _ *emptypb.Empty) (*pb.Document, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.records.Export(ctx, uid)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &pb.Document{Data: data}, nil
}

func (s *GRPCServer) Import(ctx context.Context, req *pb.Document) (*pb.ImportResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	rep, err := s.records.Import(ctx, uid, req.Data)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	s.logger.Info(ctx, "Imported", "user_id", uid, "report", rep.String())
	return &pb.ImportResponse{Imported: rep.Imported, Rejected: rep.Rejected, Summaries: rep.Summaries}, nil
}

func (s *GRPCServer) Backup(ctx context.Context, _ *emptypb.Empty) (*pb.BackupResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	key, url, err := s.records.Backup(ctx, uid)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &pb.BackupResponse{Key: key, URL: url}, nil
}
