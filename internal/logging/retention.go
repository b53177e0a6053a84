package logging

import (
	"log/slog"
	"time"

	"github.com/bouleverse/bookvault/internal/models"
	"gorm.io/gorm"
)

// StartRetention runs a daily sweep that deletes system_logs older than 30
// days. Login tokens are deliberately left alone: stale tokens are inert by
// the redeemable predicate and kept as an audit trail.
func StartRetention(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -30)
				result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
				if result.Error != nil {
					slog.Error("log retention sweep failed", "error", result.Error)
				} else if result.RowsAffected > 0 {
					slog.Info("log retention sweep completed", "deleted", result.RowsAffected)
				}
			case <-done:
				return
			}
		}
	}()
}
