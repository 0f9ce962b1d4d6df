package volunteers

import (
	"fmt"

	"github.com/EmpoweredVote/canvass/internal/db"
)

func Init() error {
	if err := db.DB.AutoMigrate(&Volunteer{}, &Session{}); err != nil {
		return fmt.Errorf("auto-migrate volunteer tables: %w", err)
	}
	return nil
}
