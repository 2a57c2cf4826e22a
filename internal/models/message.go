package models

import "time"

// Message is a persisted chat message. IsRead flips when the receiving
// participant marks the room as read.
type Message struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	RoomID   int64  `gorm:"not null;index:idx_messages_room_read,priority:1" json:"room_id"`
	SenderID int64  `gorm:"not null" json:"sender_id"`
	Content  string `gorm:"not null" json:"content"`
	IsRead   bool   `gorm:"not null;index:idx_messages_room_read,priority:2" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
}
