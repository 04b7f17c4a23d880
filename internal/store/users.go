package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

// UserStore reads accounts from the users table. Accounts are created by
// the auth service; SaveUser exists for seeding and tests.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

var _ core.UserRepository = (*UserStore)(nil)

func (s *UserStore) GetUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("user %s", id)
		}
		return nil, domain.Persistence("get user", err)
	}
	return rec.toDomain(), nil
}

func (s *UserStore) SaveUser(ctx context.Context, u *domain.User) error {
	rec := &userRecord{
		ID:         string(u.ID),
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
		Email:      u.Email,
	}
	return domain.Persistence("save user", s.db.WithContext(ctx).Save(rec).Error)
}
