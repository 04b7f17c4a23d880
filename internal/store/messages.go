package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

var _ core.MessageRepository = (*MessageStore)(nil)

// CreateMessage inserts msg only while its room still exists.
func (s *MessageStore) CreateMessage(ctx context.Context, msg *domain.Message) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := roomExists(tx, msg.RoomID); err != nil {
			return err
		}
		return tx.Create(newMessageRecord(msg)).Error
	})
	return domain.Persistence("create message", err)
}

// ListMessages returns up to limit most recent messages, oldest first.
func (s *MessageStore) ListMessages(ctx context.Context, room domain.RoomID, limit int) ([]*domain.Message, error) {
	var recs []messageRecord
	q := s.db.WithContext(ctx).Where("room_id = ?", string(room)).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, domain.Persistence("list messages", err)
	}
	out := make([]*domain.Message, len(recs))
	for i := range recs {
		out[len(recs)-1-i] = recs[i].toDomain()
	}
	return out, nil
}
