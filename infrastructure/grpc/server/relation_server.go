package server

import (
	"buddychat/auth"
	"buddychat/domain"
	"buddychat/errors"
	pb "buddychat/proto/chat"
	"buddychat/services"
	"context"
)

// RelationServer lets the relationship component maintain the block relation
// on behalf of the authenticated owner.
type RelationServer struct {
	pb.UnimplementedRelationServiceServer
	relationService services.IRelationService
}

func NewRelationServer(relationService services.IRelationService) *RelationServer {
	return &RelationServer{relationService: relationService}
}

func (s *RelationServer) command(ctx context.Context, req *pb.RelationRequest) (domain.RelationCommand, error) {
	userID, err := auth.UserIDFrom(ctx)
	if err != nil {
		return domain.RelationCommand{}, err
	}
	return domain.RelationCommand{Owner: userID, Other: domain.UserID(req.OtherId)}, nil
}

func (s *RelationServer) Block(ctx context.Context, req *pb.RelationRequest) (*pb.RelationResponse, error) {
	cmd, err := s.command(ctx, req)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if err := s.relationService.Block(ctx, cmd); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.RelationResponse{Blocked: true}, nil
}

func (s *RelationServer) Unblock(ctx context.Context, req *pb.RelationRequest) (*pb.RelationResponse, error) {
	cmd, err := s.command(ctx, req)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if err := s.relationService.Unblock(ctx, cmd); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.RelationResponse{Blocked: false}, nil
}

func (s *RelationServer) IsBlocked(ctx context.Context, req *pb.RelationRequest) (*pb.RelationResponse, error) {
	cmd, err := s.command(ctx, req)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	blocked, err := s.relationService.IsBlocked(ctx, cmd)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.RelationResponse{Blocked: blocked}, nil
}
