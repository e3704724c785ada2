package repository

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

type TicketRepository interface {
	Create(ctx context.Context, tickets ...*models.Ticket) error
	Save(ctx context.Context, t *models.Ticket) error
	GetMany(ctx context.Context, ids []string) ([]*models.Ticket, error)
	ListIDsByUser(ctx context.Context, uID string) ([]string, error)
	ListIDsByEvent(ctx context.Context, eID string) ([]string, error)
}

type redisTicketRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisTicketRepository(cli *redis.Client, l logger.Logger) TicketRepository {
	return &redisTicketRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisTicketRepository) Create(ctx context.Context, tickets ...*models.Ticket) error {
	w := writer(ctx, r.cli)

	for _, t := range tickets {
		if err := setJSON(ctx, w, ticketKey(t.ID), t); err != nil {
			r.l.Errorf(ctx, "redisTicketRepository.Create: %v", err)
			return err
		}
		if err := w.SAdd(ctx, userTicketsKey(t.UserID), t.ID).Err(); err != nil {
			return err
		}
		if err := w.SAdd(ctx, eventTicketsKey(t.EventID), t.ID).Err(); err != nil {
			return err
		}
	}

	return nil
}

func (r *redisTicketRepository) Save(ctx context.Context, t *models.Ticket) error {
	if err := setJSON(ctx, writer(ctx, r.cli), ticketKey(t.ID), t); err != nil {
		r.l.Errorf(ctx, "redisTicketRepository.Save: %v", err)
		return err
	}

	return nil
}

func (r *redisTicketRepository) GetMany(ctx context.Context, ids []string) ([]*models.Ticket, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ticketKey(id)
	}

	tickets, err := mgetJSON[models.Ticket](ctx, reader(ctx, r.cli), keys)
	if err != nil {
		r.l.Errorf(ctx, "redisTicketRepository.GetMany: %v", err)
		return nil, err
	}

	return tickets, nil
}

func (r *redisTicketRepository) ListIDsByUser(ctx context.Context, uID string) ([]string, error) {
	ids, err := reader(ctx, r.cli).SMembers(ctx, userTicketsKey(uID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisTicketRepository.ListIDsByUser: %v", err)
		return nil, err
	}

	return ids, nil
}

func (r *redisTicketRepository) ListIDsByEvent(ctx context.Context, eID string) ([]string, error) {
	ids, err := reader(ctx, r.cli).SMembers(ctx, eventTicketsKey(eID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisTicketRepository.ListIDsByEvent: %v", err)
		return nil, err
	}

	return ids, nil
}
