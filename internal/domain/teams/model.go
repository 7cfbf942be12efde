package teams

import (
	"coachmarket/internal/domain/users"
	"time"
)

// Team groups trainers under a shared brand. When a team carries a connected
// payout account, that account takes priority over the member's own account
// for revenue routing.
type Team struct {
	ID                     uint   `gorm:"primaryKey"`
	Name                   string `gorm:"not null"`
	OwnerID                uint
	Owner                  *users.User `gorm:"foreignKey:OwnerID"`
	StripeConnectAccountID *string     `gorm:"column:stripe_connect_account_id"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type TeamMember struct {
	ID        uint `gorm:"primaryKey"`
	TeamID    uint `gorm:"not null;index;uniqueIndex:idx_team_members_team_user"`
	Team      Team
	UserID    uint   `gorm:"not null;index;uniqueIndex:idx_team_members_team_user"`
	Role      string `gorm:"type:varchar(20);default:'member'"`
	CreatedAt time.Time
}
