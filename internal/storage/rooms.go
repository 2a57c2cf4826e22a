package storage

import (
	"errors"
	"log"
	"strconv"

	"anonchat/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activeRoomsKey is the Redis set holding IDs of rooms believed active,
// used for boot-time recovery logging only; Postgres stays the source of
// truth.
const activeRoomsKey = "rooms:active"

// FindOrCreateRoom returns the room for the unordered (initiator,
// recipient) pair, creating an inactive one if none exists. When a room is
// reused the initiator's exit flag is cleared, so a previously-left
// conversation reappears for them.
func (s *Service) FindOrCreateRoom(initiatorID, recipientID int64) (*models.ChatRoom, error) {
	left, right := initiatorID, recipientID
	if left > right {
		left, right = right, left
	}

	var room models.ChatRoom
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("pair_left_id = ? AND pair_right_id = ?", left, right).
			First(&room).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			room = *models.NewChatRoom(initiatorID, recipientID)
			return tx.Create(&room).Error
		}
		if err != nil {
			return err
		}
		if err := room.ReturnBy(initiatorID); err != nil {
			return err
		}
		return tx.Save(&room).Error
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetRoomByID loads one room.
func (s *Service) GetRoomByID(roomID int64) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.First(&room, roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetActiveRoomsFor lists the user's active rooms, most recently touched
// first.
func (s *Service) GetActiveRoomsFor(userID int64) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := s.DB.
		Where("is_active = ? AND (user1_id = ? OR user2_id = ?)", true, userID, userID).
		Order("updated_at DESC").
		Find(&rooms).Error
	return rooms, err
}

// ExitRoom records the user's durable exit. The second participant's exit
// deactivates the room.
func (s *Service) ExitRoom(roomID, userID int64) error {
	var deactivated bool
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var room models.ChatRoom
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		if err := room.ExitBy(userID); err != nil {
			return err
		}
		deactivated = !room.IsActive
		return tx.Save(&room).Error
	})
	if err == nil && deactivated {
		s.forgetActiveRoom(roomID)
	}
	return err
}

// DeactivateRoom force-closes a room regardless of exit flags. Operator
// tooling only.
func (s *Service) DeactivateRoom(roomID int64) error {
	res := s.DB.Model(&models.ChatRoom{}).
		Where("id = ?", roomID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	s.forgetActiveRoom(roomID)
	return nil
}

// IsMember reports whether the user is one of the room's two participants.
// This is the durable membership fact behind the ENTER gate.
func (s *Service) IsMember(roomID, userID int64) (bool, error) {
	var count int64
	err := s.DB.Model(&models.ChatRoom{}).
		Where("id = ? AND (user1_id = ? OR user2_id = ?)", roomID, userID, userID).
		Count(&count).Error
	return count > 0, err
}

// GetActiveRoomIDs reads the Redis active-room set.
func (s *Service) GetActiveRoomIDs() ([]int64, error) {
	if s.Redis == nil {
		return nil, nil
	}
	members, err := s.Redis.SMembers(s.Ctx, activeRoomsKey).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// rememberActiveRoom / forgetActiveRoom keep the Redis set in step with the
// room's active flag. Best effort: a Redis hiccup never fails the
// transaction that changed the flag.
func (s *Service) rememberActiveRoom(roomID int64) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.SAdd(s.Ctx, activeRoomsKey, roomID).Err(); err != nil {
		log.Printf("[STORE] active-room set add failed roomId=%d: %v", roomID, err)
	}
}

func (s *Service) forgetActiveRoom(roomID int64) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.SRem(s.Ctx, activeRoomsKey, roomID).Err(); err != nil {
		log.Printf("[STORE] active-room set remove failed roomId=%d: %v", roomID, err)
	}
}

// RecoverActiveRooms cross-checks the Redis active-room set against
// Postgres after a restart and logs what survived.
func (s *Service) RecoverActiveRooms() {
	ids, err := s.GetActiveRoomIDs()
	if err != nil {
		log.Printf("[STORE] active room recovery failed: %v", err)
		return
	}
	for _, id := range ids {
		room, err := s.GetRoomByID(id)
		if err != nil {
			log.Printf("[STORE] room %d in Redis but not in DB, dropping", id)
			s.forgetActiveRoom(id)
			continue
		}
		log.Printf("[STORE] restored active room %d between %d and %d", room.ID, room.User1ID, room.User2ID)
	}
	log.Printf("[STORE] recovery complete, %d active rooms", len(ids))
}
