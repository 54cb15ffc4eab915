package app

import (
	"context"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

type OperatorService struct {
	repo port.OperatorRepository
}

func NewOperatorService(repo port.OperatorRepository) *OperatorService {
	return &OperatorService{repo: repo}
}

func (s *OperatorService) SetSubscribed(ctx context.Context, userID, chatID int64, on bool) (*entity.Operator, error) {
	op, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	op.SetSubscribed(on)
	if err := s.repo.Save(ctx, op); err != nil {
		return nil, err
	}

	return op, nil
}

func (s *OperatorService) Subscribe(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	return s.SetSubscribed(ctx, userID, chatID, true)
}

func (s *OperatorService) Unsubscribe(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	return s.SetSubscribed(ctx, userID, chatID, false)
}

// SubscribedChats возвращает чаты, куда нужно слать уведомления
func (s *OperatorService) SubscribedChats(ctx context.Context) ([]int64, error) {
	ops, err := s.repo.Subscribed(ctx)
	if err != nil {
		return nil, err
	}

	chats := make([]int64, 0, len(ops))
	for _, op := range ops {
		chats = append(chats, op.ChatID)
	}
	return chats, nil
}
