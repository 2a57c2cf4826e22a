package models

import (
	"time"

	"github.com/lib/pq"
)

// User represents an anonymous user of the system. A row is created when an
// anonymous identity is issued; profile fields are optional and only used by
// the search/profile surface.
type User struct {
	ID        int64          `gorm:"primaryKey" json:"id"`
	Nickname  string         `json:"nickname"`
	Age       int            `json:"age"`
	Gender    string         `json:"gender"`
	Interests pq.StringArray `gorm:"type:text[]" json:"interests"`

	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
}
