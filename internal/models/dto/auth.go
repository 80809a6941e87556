package dto

import "github.com/yuirsilva/deadline-daddy/internal/models"

type RegisterRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Cellphone string `json:"cellphone" validate:"omitempty,max=20"`
	TaxID     string `json:"taxId" validate:"omitempty,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type UpdateProfileRequest struct {
	Cellphone string `json:"cellphone" validate:"required,max=20"`
	TaxID     string `json:"taxId" validate:"required,max=20"`
}
