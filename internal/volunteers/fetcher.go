package volunteers

import (
	"github.com/EmpoweredVote/canvass/internal/db"
	"github.com/EmpoweredVote/canvass/internal/utils"
)

// SessionInfo resolves session cookies against the sessions table.
type SessionInfo struct{}

func (SessionInfo) FindSessionByID(id string) (utils.SessionData, error) {
	var session Session
	if err := db.DB.First(&session, "session_id = ?", id).Error; err != nil {
		return utils.SessionData{}, err
	}

	var v Volunteer
	if err := db.DB.Select("id", "name", "role").First(&v, "id = ?", session.VolunteerID).Error; err != nil {
		return utils.SessionData{}, err
	}

	return utils.SessionData{
		VolunteerID: session.VolunteerID,
		Name:        v.Name,
		Role:        v.Role,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}
