package api

import (
	"time"

	"passage/cmd/internal/account"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetCompleteRequest struct {
	PasswordReset string `json:"passwordReset"`
	Password      string `json:"password"`
}

type updateRequest struct {
	Username string `json:"username"`
	// Image is a base64-encoded PNG or JPEG; empty keeps the current avatar.
	Image string `json:"image"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Image     *string   `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Image    *string `json:"image,omitempty"`
	Token    string  `json:"token"`
}

type pageResponse struct {
	Content    []userResponse `json:"content"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
	TotalPages int            `json:"totalPages"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toUserResponse(a account.Account) userResponse {
	return userResponse{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Image:     a.Image,
		CreatedAt: a.CreatedAt,
	}
}

func toPageResponse(p account.Page) pageResponse {
	content := make([]userResponse, 0, len(p.Content))
	for _, a := range p.Content {
		content = append(content, toUserResponse(a))
	}
	return pageResponse{Content: content, Page: p.Page, Size: p.Size, TotalPages: p.TotalPages}
}
