package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learningsite/logger"
	"learningsite/models"
)

// UserService mirrors identity provider accounts into the users table so
// courses can reference their teacher.
type UserService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserService(db *gorm.DB, log *logger.Logger) *UserService {
	return &UserService{db: db, log: log.With("service", "UserService")}
}

// SyncUser inserts the account or refreshes its username and staff flag.
func (s *UserService) SyncUser(ctx context.Context, id uint, username string, isStaff bool) error {
	user := models.User{ID: id, Username: username, IsStaff: isStaff}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "is_staff", "updated_at"}),
		}).
		Create(&user).Error
	if err != nil {
		return fmt.Errorf("sync user %d: %w", id, err)
	}
	return nil
}
