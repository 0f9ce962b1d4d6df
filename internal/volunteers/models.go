package volunteers

import "time"

// Roles a volunteer account can hold.
const (
	RoleVolunteer   = "volunteer"
	RoleCoordinator = "coordinator"
)

type Session struct {
	SessionID   string    `gorm:"primaryKey" json:"-"`
	VolunteerID string    `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt   time.Time `gorm:"not null"`
}

type Volunteer struct {
	ID             string    `gorm:"primaryKey" json:"volunteer_id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"not null;uniqueIndex" json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Password       string    `gorm:"-" json:"password,omitempty"`
	HashedPassword string    `json:"-"`
	Role           string    `gorm:"default:'volunteer'" json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}
