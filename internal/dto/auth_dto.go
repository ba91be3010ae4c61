package dto

import (
	"time"

	"streetrelay/internal/entity"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type LoginResponse struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	EmailSent bool   `json:"email_sent,omitempty"`
}

type PasswordForgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type PairConsoleRequest struct {
	DeviceName string `json:"device_name" validate:"omitempty,max=100"`
}

type ProfileUpdateRequest struct {
	Nickname   string `json:"nickname" validate:"omitempty,max=32"`
	DeviceName string `json:"device_name" validate:"omitempty,max=100"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IssuedAt     int64  `json:"issued_at"`
}

type SessionResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IPAddress *string   `json:"ip_address,omitempty"`
	Device    string    `json:"device"`
	LastLogin time.Time `json:"last_login"`
	Current   bool      `json:"current"`
}

func SessionResponseFromEntity(session *entity.Session, currentID uuid.UUID) SessionResponse {
	return SessionResponse{
		ID:        session.ID,
		Name:      session.Name,
		IPAddress: session.IPAddress,
		Device:    session.Device,
		LastLogin: session.LastLogin,
		Current:   session.ID == currentID,
	}
}

func SessionResponsesFromEntities(sessions []entity.Session, currentID uuid.UUID) []SessionResponse {
	responses := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		responses = append(responses, SessionResponseFromEntity(&sessions[i], currentID))
	}
	return responses
}

type ConsoleResponse struct {
	ID         uuid.UUID `json:"id"`
	DeviceName string    `json:"device_name"`
	PairedAt   time.Time `json:"paired_at"`
}

func ConsoleResponseFromEntity(console *entity.Console) ConsoleResponse {
	return ConsoleResponse{
		ID:         console.ID,
		DeviceName: console.DeviceName,
		PairedAt:   console.CreatedAt,
	}
}

type PairConsoleResponse struct {
	Console      ConsoleResponse `json:"console"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	IssuedAt     int64           `json:"issued_at"`
}

type UserResponse struct {
	ID            string    `json:"id"`
	Nickname      string    `json:"nickname"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

func UserResponseFromEntity(user *entity.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Nickname:      user.Nickname,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	}
}
