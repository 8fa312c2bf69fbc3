package users

import (
	"github.com/2beens/fittrack/internal/workouts"
)

type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Name     string  `json:"name" validate:"required,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Picture  *string `json:"picture" validate:"omitnil,url"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type MeResponse struct {
	*User
	Stats workouts.Totals `json:"stats"`
}
