package operation

import "github.com/erfajc97/anko-back/internal/api/v1/dto"

type GetUserInput struct {
	// No input needed - user ID comes from auth context
}

type UserOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type UpdateUserInput struct {
	Body dto.UserUpdateDTO `json:"body"`
}

type ListUsersInput struct {
	PageInput
}

type ListUsersOutput struct {
	Body dto.UserPageDTO `json:"body"`
}

type GetUserByIDInput struct {
	UserID string `path:"userId" format:"uuid" doc:"User ID"`
}
