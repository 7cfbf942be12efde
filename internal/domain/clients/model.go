package clients

import (
	"coachmarket/internal/domain/users"
	"time"
)

const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// TrainerClient links a trainer to a coached client. Access checks against
// this table go through the redis cache-aside layer first.
type TrainerClient struct {
	ID        uint `gorm:"primaryKey"`
	TrainerID uint `gorm:"not null;index;uniqueIndex:idx_trainer_clients_pair"`
	Trainer   users.User
	ClientID  uint       `gorm:"not null;index;uniqueIndex:idx_trainer_clients_pair"`
	Client    users.User `gorm:"foreignKey:ClientID"`
	Status    string     `gorm:"type:varchar(20);default:'active'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
