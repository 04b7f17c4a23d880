package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "uuid", raw: uuid.NewString()},
		{name: "empty", raw: "", wantErr: true},
		{name: "garbage", raw: "U1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, userErr := ParseUserID(tt.raw)
			_, roomErr := ParseRoomID(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, userErr, ErrValidation)
				assert.ErrorIs(t, roomErr, ErrValidation)
				return
			}
			assert.NoError(t, userErr)
			assert.NoError(t, roomErr)
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("Alice"))

	err := ValidateUsername("   ")
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrUsernameEmpty)

	err = ValidateUsername(strings.Repeat("a", MaxUsernameLen+1))
	assert.ErrorIs(t, err, ErrUsernameTooLong)
}

func TestNewRoom(t *testing.T) {
	admin := &User{ID: UserID(uuid.NewString()), Username: "alice", Email: "a@x"}
	now := time.Now()

	room := NewRoom(admin, "Alice", now)

	assert.NotEmpty(t, room.ID)
	assert.True(t, room.IsAdmin(admin.ID))
	assert.True(t, room.HasMember(admin.ID))
	require.Len(t, room.Users, 1)
	assert.Equal(t, "a@x", room.Users[0].Email)
	assert.False(t, room.IsPlaying)
	assert.Zero(t, room.PlaybackTime)
	assert.Equal(t, now, room.CreatedAt)
}

func TestNewMessage(t *testing.T) {
	sender := &User{ID: UserID(uuid.NewString()), Username: "bob"}

	msg, err := NewMessage("r1", sender, "hi", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "bob", msg.Sender.Username)
	assert.Equal(t, sender.ID, msg.SenderID)

	_, err = NewMessage("r1", sender, " ", time.Now())
	assert.ErrorIs(t, err, ErrMessageEmpty)

	_, err = NewMessage("r1", sender, strings.Repeat("x", MaxMessageLen+1), time.Now())
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("disk full")

	err := Persistence("create room", cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrPersistence, Kind(err))

	nf := NotFoundf("room %s", "r1")
	assert.Same(t, nf, Persistence("get room", nf))
	assert.Equal(t, ErrNotFound, Kind(nf))

	assert.Equal(t, ErrAuthorization, Kind(Unauthorizedf("nope")))
	assert.Nil(t, Kind(cause))
	assert.NoError(t, Persistence("noop", nil))
}
