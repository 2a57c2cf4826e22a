package storage

import (
	"database/sql"
	"errors"

	"anonchat/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveChatMessage persists one chat message as a single transactional unit
// together with the room transitions sending implies: an inactive room is
// activated, and the sender's exit flag is cleared because sending a
// message means they are present. Returns the new message ID only after the
// whole unit committed; the caller broadcasts afterwards.
func (s *Service) SaveChatMessage(roomID, senderID int64, content string) (int64, error) {
	var messageID int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var room models.ChatRoom
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		if !room.IsParticipant(senderID) {
			return models.ErrNotRoomMember
		}

		room.Activate()
		if err := room.ReturnBy(senderID); err != nil {
			return err
		}
		if err := tx.Save(&room).Error; err != nil {
			return err
		}

		msg := models.Message{
			RoomID:   roomID,
			SenderID: senderID,
			Content:  content,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		messageID = msg.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.rememberActiveRoom(roomID)
	return messageID, nil
}

// MarkMessagesAsRead flips the room's unread messages from the other
// participant to read and returns the highest message ID covered, or nil
// when nothing was unread.
func (s *Service) MarkMessagesAsRead(roomID, userID int64) (*int64, error) {
	var lastReadID *int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var maxID sql.NullInt64
		err := tx.Model(&models.Message{}).
			Where("room_id = ? AND sender_id <> ? AND is_read = ?", roomID, userID, false).
			Select("MAX(id)").
			Scan(&maxID).Error
		if err != nil {
			return err
		}
		if !maxID.Valid {
			return nil
		}

		err = tx.Model(&models.Message{}).
			Where("room_id = ? AND sender_id <> ? AND is_read = ? AND id <= ?", roomID, userID, false, maxID.Int64).
			Update("is_read", true).Error
		if err != nil {
			return err
		}
		lastReadID = &maxID.Int64
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lastReadID, nil
}

// GetMessages returns up to limit messages of the room, newest first,
// cursor-paginated with beforeID (0 = from the latest) and scoped to
// messages sent after the caller's last exit so a returning user does not
// see the conversation they walked out of.
func (s *Service) GetMessages(roomID, userID, beforeID int64, limit int) ([]models.Message, error) {
	room, err := s.GetRoomByID(roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsParticipant(userID) {
		return nil, models.ErrNotRoomMember
	}
	exitedAt, err := room.LastExitedAt(userID)
	if err != nil {
		return nil, err
	}

	q := s.DB.Where("room_id = ?", roomID)
	if exitedAt != nil {
		q = q.Where("created_at > ?", *exitedAt)
	}
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var messages []models.Message
	err = q.Order("id DESC").Limit(limit).Find(&messages).Error
	return messages, err
}
