package dto

import (
	"time"

	"github.com/baechuer/account-service/internal/application/account"
	"github.com/baechuer/account-service/internal/domain"
)

// UserView is the public account payload. It never carries secrets.
type UserView struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"fName"`
	LastName    string    `json:"lName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     *string   `json:"address,omitempty"`
	Avatar      *string   `json:"avatar,omitempty"`
	IsAdmin     bool      `json:"isAdmin"`
	IsVerified  bool      `json:"isVerified"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewUserView(p domain.Profile) UserView {
	return UserView{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		Address:     p.Address,
		Avatar:      p.AvatarURL,
		IsAdmin:     p.IsAdmin,
		IsVerified:  p.IsVerified,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type LoginResponse struct {
	UserID    string   `json:"userId"`
	Token     string   `json:"token"`
	TokenType string   `json:"tokenType"` // "Bearer"
	ExpiresIn int64    `json:"expiresIn"` // seconds
	User      UserView `json:"user"`
}

func NewLoginResponse(res account.LoginResult) LoginResponse {
	return LoginResponse{
		UserID:    res.Profile.ID,
		Token:     res.Token,
		TokenType: res.TokenType,
		ExpiresIn: res.ExpiresIn,
		User:      NewUserView(res.Profile),
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterResponse struct {
	Message string   `json:"message"`
	User    UserView `json:"user"`
}
