package interfaces

import (
	"crowdfund-backend/internal/model"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id int) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
}
