package repository

import "github.com/keyforgehq/keyforge/app/models"

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByLoaderKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	TouchLoaderKeyUsage(userID uint) error
	TouchLastLogin(userID uint) error
}
