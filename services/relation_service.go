package services

import (
	"buddychat/contract"
	"buddychat/domain"
	"context"
	"log/slog"
)

// IRelationService is the adapter the relationship component calls to keep the
// block relation of the chat core up to date.
type IRelationService interface {
	Block(ctx context.Context, cmd domain.RelationCommand) error
	Unblock(ctx context.Context, cmd domain.RelationCommand) error
	IsBlocked(ctx context.Context, cmd domain.RelationCommand) (bool, error)
}

type RelationService struct {
	log    *slog.Logger
	writer contract.BlockWriter
	gate   contract.BlockGate
	clock  domain.Clock
}

func NewRelationService(log *slog.Logger, writer contract.BlockWriter, gate contract.BlockGate, clock domain.Clock) *RelationService {
	return &RelationService{log: log, writer: writer, gate: gate, clock: clock}
}

// Block is idempotent: blocking twice keeps the time of the first block.
func (s *RelationService) Block(ctx context.Context, cmd domain.RelationCommand) error {
	if err := domain.Validate(cmd); err != nil {
		return err
	}
	if err := s.writer.Block(ctx, cmd.Owner, cmd.Other, s.clock.Now()); err != nil {
		return err
	}
	s.log.Info("User blocked", "owner", cmd.Owner, "other", cmd.Other)
	return nil
}

func (s *RelationService) Unblock(ctx context.Context, cmd domain.RelationCommand) error {
	if err := domain.Validate(cmd); err != nil {
		return err
	}
	if err := s.writer.Unblock(ctx, cmd.Owner, cmd.Other); err != nil {
		return err
	}
	s.log.Info("User unblocked", "owner", cmd.Owner, "other", cmd.Other)
	return nil
}

func (s *RelationService) IsBlocked(ctx context.Context, cmd domain.RelationCommand) (bool, error) {
	if err := domain.Validate(cmd); err != nil {
		return false, err
	}
	return s.gate.IsBlocked(ctx, cmd.Owner, cmd.Other)
}
