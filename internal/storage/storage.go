package storage

import (
	"context"
	"errors"
	"time"

	"anonchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrRoomNotFound is returned when a room lookup misses.
var ErrRoomNotFound = errors.New("chat room not found")

// Storage is the durable collaborator surface: Postgres for entities,
// Redis for issued tokens and the active-room bookkeeping.
type Storage interface {
	// Users
	CreateUser(user *models.User) error
	FindUser(id int64) (*models.User, error)
	TouchUser(id int64) error

	// Rooms
	FindOrCreateRoom(initiatorID, recipientID int64) (*models.ChatRoom, error)
	GetRoomByID(roomID int64) (*models.ChatRoom, error)
	GetActiveRoomsFor(userID int64) ([]models.ChatRoom, error)
	ExitRoom(roomID, userID int64) error
	DeactivateRoom(roomID int64) error
	IsMember(roomID, userID int64) (bool, error)
	GetActiveRoomIDs() ([]int64, error)

	// Messages
	SaveChatMessage(roomID, senderID int64, content string) (int64, error)
	MarkMessagesAsRead(roomID, userID int64) (*int64, error)
	GetMessages(roomID, userID, beforeID int64, limit int) ([]models.Message, error)

	// Tokens
	StoreAccessToken(token string, userID int64, ttl time.Duration) error
	ResolveAccessToken(token string) (int64, error)
	RevokeAccessToken(token string) error
}

// Service implements Storage on top of GORM/PostgreSQL and Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService wires the service. Redis may be nil for tools that only
// touch Postgres (the admin CLI).
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// CreateUser inserts a new anonymous user row.
func (s *Service) CreateUser(user *models.User) error {
	user.LastActiveAt = time.Now()
	return s.DB.Create(user).Error
}

// FindUser loads a user by ID.
func (s *Service) FindUser(id int64) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// TouchUser updates the user's last-active timestamp.
func (s *Service) TouchUser(id int64) error {
	return s.DB.Model(&models.User{}).
		Where("id = ?", id).
		Update("last_active_at", time.Now()).Error
}
