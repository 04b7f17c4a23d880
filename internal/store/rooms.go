package store

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

// RoomStore implements core.RoomRepository. Each method runs in a single
// transaction so membership changes are conditional and atomic per room.
type RoomStore struct {
	db *gorm.DB
}

func NewRoomStore(db *gorm.DB) *RoomStore {
	return &RoomStore{db: db}
}

var _ core.RoomRepository = (*RoomStore)(nil)

func (s *RoomStore) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	var room *domain.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		room, err = loadRoom(tx, id)
		return err
	})
	if err != nil {
		return nil, domain.Persistence("get room", err)
	}
	return room, nil
}

func (s *RoomStore) GetRoomByAdmin(ctx context.Context, admin domain.UserID) (*domain.Room, error) {
	var room *domain.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec roomRecord
		if err := tx.First(&rec, "admin_id = ?", string(admin)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundf("no room administered by %s", admin)
			}
			return err
		}
		members, err := loadMembers(tx, rec.ID)
		if err != nil {
			return err
		}
		room = rec.toDomain(members)
		return nil
	})
	if err != nil {
		return nil, domain.Persistence("get room by admin", err)
	}
	return room, nil
}

func (s *RoomStore) CreateRoom(ctx context.Context, room *domain.Room) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := &roomRecord{
			ID:           string(room.ID),
			AdminID:      string(room.Admin),
			AdminName:    room.AdminName,
			VideoURL:     room.VideoURL,
			ServiceID:    room.ServiceID,
			IsPlaying:    room.IsPlaying,
			PlaybackTime: room.PlaybackTime,
			CreatedAt:    room.CreatedAt,
		}
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		for _, p := range room.Users {
			if err := tx.Create(newMemberRecord(room.ID, p)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Persistence("create room", err)
	}
	log.Debug().Str("module", "store").Str("room", string(room.ID)).Str("admin", string(room.Admin)).Msg("room created")
	return nil
}

func (s *RoomStore) AddMember(ctx context.Context, id domain.RoomID, p domain.Participant) (core.MembershipChange, error) {
	var change core.MembershipChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := roomExists(tx, id); err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(newMemberRecord(id, p))
		if res.Error != nil {
			return res.Error
		}
		change.Changed = res.RowsAffected > 0
		room, err := loadRoom(tx, id)
		if err != nil {
			return err
		}
		change.Room = room
		return nil
	})
	if err != nil {
		return core.MembershipChange{}, domain.Persistence("add member", err)
	}
	return change, nil
}

func (s *RoomStore) RemoveMember(ctx context.Context, id domain.RoomID, user domain.UserID) (core.MembershipChange, error) {
	var change core.MembershipChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec roomRecord
		if err := tx.First(&rec, "id = ?", string(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundf("room %s", id)
			}
			return err
		}
		res := tx.Where("room_id = ? AND user_id = ?", string(id), string(user)).Delete(&memberRecord{})
		if res.Error != nil {
			return res.Error
		}
		change.Changed = res.RowsAffected > 0

		members, err := loadMembers(tx, rec.ID)
		if err != nil {
			return err
		}
		change.Room = rec.toDomain(members)
		if len(members) > 0 {
			return nil
		}
		change.Deleted = true
		return deleteRoom(tx, id)
	})
	if err != nil {
		return core.MembershipChange{}, domain.Persistence("remove member", err)
	}
	return change, nil
}

func (s *RoomStore) UpdatePlayback(ctx context.Context, id domain.RoomID, admin domain.UserID, upd domain.PlaybackUpdate) (*domain.Room, error) {
	fields := map[string]any{"playback_time": upd.PlaybackTime}
	if upd.VideoURL != nil {
		fields["video_url"] = *upd.VideoURL
	}
	if upd.ServiceID != nil {
		fields["service_id"] = *upd.ServiceID
	}
	if upd.IsPlaying != nil {
		fields["is_playing"] = *upd.IsPlaying
	}

	var room *domain.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&roomRecord{}).
			Where("id = ? AND admin_id = ?", string(id), string(admin)).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := roomExists(tx, id); err != nil {
				return err
			}
			return domain.Unauthorizedf("%s is not the admin of room %s", admin, id)
		}
		var err error
		room, err = loadRoom(tx, id)
		return err
	})
	if err != nil {
		return nil, domain.Persistence("update playback", err)
	}
	return room, nil
}

func (s *RoomStore) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := roomExists(tx, id); err != nil {
			return err
		}
		return deleteRoom(tx, id)
	})
	if err != nil {
		return domain.Persistence("delete room", err)
	}
	log.Debug().Str("module", "store").Str("room", string(id)).Msg("room deleted")
	return nil
}

func (s *RoomStore) RoomsOfUser(ctx context.Context, user domain.UserID) ([]*domain.Room, error) {
	var rooms []*domain.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&memberRecord{}).
			Where("user_id = ?", string(user)).
			Order("seq").
			Pluck("room_id", &ids).Error; err != nil {
			return err
		}
		rooms = make([]*domain.Room, 0, len(ids))
		for _, id := range ids {
			room, err := loadRoom(tx, domain.RoomID(id))
			if err != nil {
				return err
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	if err != nil {
		return nil, domain.Persistence("rooms of user", err)
	}
	return rooms, nil
}

func roomExists(tx *gorm.DB, id domain.RoomID) error {
	var n int64
	if err := tx.Model(&roomRecord{}).Where("id = ?", string(id)).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundf("room %s", id)
	}
	return nil
}

func loadRoom(tx *gorm.DB, id domain.RoomID) (*domain.Room, error) {
	var rec roomRecord
	if err := tx.First(&rec, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("room %s", id)
		}
		return nil, err
	}
	members, err := loadMembers(tx, rec.ID)
	if err != nil {
		return nil, err
	}
	return rec.toDomain(members), nil
}

func loadMembers(tx *gorm.DB, roomID string) ([]memberRecord, error) {
	var members []memberRecord
	if err := tx.Where("room_id = ?", roomID).Order("seq").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// deleteRoom drops messages, members and the room row inside tx, so a
// dismissed room never leaves orphaned messages behind.
func deleteRoom(tx *gorm.DB, id domain.RoomID) error {
	if err := tx.Where("room_id = ?", string(id)).Delete(&messageRecord{}).Error; err != nil {
		return err
	}
	if err := tx.Where("room_id = ?", string(id)).Delete(&memberRecord{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", string(id)).Delete(&roomRecord{}).Error
}
