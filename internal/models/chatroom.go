package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrNotRoomMember is returned when a user tries to act on a chat room they
// are not a participant of.
var ErrNotRoomMember = errors.New("user is not a member of this chat room")

// ChatRoom represents a 1-on-1 chat between exactly two users.
// At most one room exists per unordered user pair; the pair key
// (PairLeftID, PairRightID) = (min, max) of the two user IDs enforces that
// with a unique index.
//
// Lifecycle: a room is created inactive and becomes active only through an
// explicit Activate call. It becomes inactive again only when both
// participants have exited. A participant returning clears their own exit
// flag and nothing else.
type ChatRoom struct {
	ID      int64 `gorm:"primaryKey" json:"id"`
	User1ID int64 `gorm:"not null;index:idx_chat_rooms_user1_active,priority:1" json:"user1_id"`
	User2ID int64 `gorm:"not null;index:idx_chat_rooms_user2_active,priority:1" json:"user2_id"`

	// Canonical unordered pair key, filled in BeforeCreate.
	PairLeftID  int64 `gorm:"not null;uniqueIndex:ux_chat_rooms_pair,priority:1" json:"-"`
	PairRightID int64 `gorm:"not null;uniqueIndex:ux_chat_rooms_pair,priority:2" json:"-"`

	IsActive bool `gorm:"not null;index:idx_chat_rooms_user1_active,priority:2;index:idx_chat_rooms_user2_active,priority:2" json:"is_active"`

	User1Exited   bool       `gorm:"not null" json:"-"`
	User1ExitedAt *time.Time `json:"-"`
	User2Exited   bool       `gorm:"not null" json:"-"`
	User2ExitedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewChatRoom creates an inactive room for the given pair with both exit
// flags cleared.
func NewChatRoom(user1ID, user2ID int64) *ChatRoom {
	room := &ChatRoom{
		User1ID: user1ID,
		User2ID: user2ID,
	}
	room.setPairKey()
	return room
}

// BeforeCreate is a GORM hook that normalizes the pair key before insert.
func (r *ChatRoom) BeforeCreate(tx *gorm.DB) error {
	r.setPairKey()
	return nil
}

func (r *ChatRoom) setPairKey() {
	if r.User1ID <= r.User2ID {
		r.PairLeftID, r.PairRightID = r.User1ID, r.User2ID
	} else {
		r.PairLeftID, r.PairRightID = r.User2ID, r.User1ID
	}
}

// IsParticipant reports whether userID is one of the room's two users.
func (r *ChatRoom) IsParticipant(userID int64) bool {
	return r.User1ID == userID || r.User2ID == userID
}

// ExitBy marks the given participant as exited. If the other participant had
// already exited, this call deactivates the room; it is the only transition
// that does.
func (r *ChatRoom) ExitBy(userID int64) error {
	now := time.Now()
	switch userID {
	case r.User1ID:
		r.User1Exited = true
		r.User1ExitedAt = &now
	case r.User2ID:
		r.User2Exited = true
		r.User2ExitedAt = &now
	default:
		return ErrNotRoomMember
	}
	if r.BothExited() {
		r.IsActive = false
	}
	return nil
}

// ReturnBy clears only the given participant's exit flag. It never changes
// IsActive; reactivation happens through Activate.
func (r *ChatRoom) ReturnBy(userID int64) error {
	switch userID {
	case r.User1ID:
		r.User1Exited = false
	case r.User2ID:
		r.User2Exited = false
	default:
		return ErrNotRoomMember
	}
	return nil
}

// Activate marks the room active. Idempotent; independent of exit flags.
func (r *ChatRoom) Activate() {
	r.IsActive = true
}

// BothExited reports whether both participants have exited.
func (r *ChatRoom) BothExited() bool {
	return r.User1Exited && r.User2Exited
}

// Archived reports whether the room is fully closed: inactive with both
// participants gone.
func (r *ChatRoom) Archived() bool {
	return !r.IsActive && r.BothExited()
}

// LastExitedAt returns when the given participant last exited, or nil if
// they never have.
func (r *ChatRoom) LastExitedAt(userID int64) (*time.Time, error) {
	switch userID {
	case r.User1ID:
		return r.User1ExitedAt, nil
	case r.User2ID:
		return r.User2ExitedAt, nil
	}
	return nil, ErrNotRoomMember
}
