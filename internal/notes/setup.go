package notes

import (
	"fmt"

	"gorm.io/gorm"
)

func Init(d *gorm.DB) error {
	if err := d.AutoMigrate(&InteractionNote{}); err != nil {
		return fmt.Errorf("auto-migrate interaction notes: %w", err)
	}
	return nil
}
