package model

import (
	"time"

	"github.com/golang-jwt/jwt"
)

type User struct {
	ID        int64     `json:"id"         gorm:"primaryKey"`
	Name      string    `json:"name"`
	UserName  string    `json:"user_name"  gorm:"uniqueIndex"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type UserClaims struct {
	jwt.StandardClaims
	UserName string `json:"user_name"`
}

type ReqLogin struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

type ReqRegister struct {
	Name     string `json:"name"`
	UserName string `json:"user_name"`
	Password string `json:"password"`
}
