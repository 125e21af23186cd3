package models

import (
	"litigation/tools"
	"time"
)

/************************************************
/**** MARK: USER STATUS ****/
/************************************************/
const USER_STATUS_AVAILABLE = 0
const USER_STATUS_PENDING = 1
const USER_STATUS_BLOCKED = 2

// User representa um usuario do sistema de contencioso.
// Drafts e refresh tokens pertencem a exatamente um usuário; a exclusão
// do usuário remove ambos (ver controllers.DeleteUser).
type User struct {
	ID         int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Username   string     `gorm:"not null;unique" json:"username" form:"username"`
	Email      string     `gorm:"not null;unique" json:"email" form:"email"`
	Password   string     `gorm:"not null" json:"password" form:"password"`
	FullName   string     `gorm:"column:full_name" json:"full_name" form:"full_name"`
	Department string     `gorm:"default:''" json:"department" form:"department"`
	Phone      string     `gorm:"default:''" json:"phone" form:"phone"`
	Status     int        `gorm:"default:0" json:"status" form:"status"`
	Admin      bool       `gorm:"not null; default: false" json:"admin" form:"admin"`
	CreatedAt  *time.Time `json:"created_at" form:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at" form:"updated_at"`
}

func (user User) MissingFields() string {
	if user.Username == "" {
		return "username"
	} else if user.Email == "" {
		return "email"
	} else if user.Password == "" {
		return "password"
	} else if tools.CheckPassword(user.Password) != "" {
		return tools.CheckPassword(user.Password)
	}
	return ""
}
