package dto

// CreateUserRequest creates an admin or instructor account.
type CreateUserRequest struct {
	Name  string `json:"name"  binding:"required,min=2,max=100"`
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"  binding:"required,oneof=admin instructor"`
}

// UpdateUserRequest updates mutable user attributes.
type UpdateUserRequest struct {
	Name   *string `json:"name"   binding:"omitempty,min=2,max=100"`
	Active *bool   `json:"active"`
}

// UserListRequest filters the user listing.
type UserListRequest struct {
	PaginationRequest
	Role string `form:"role" binding:"omitempty,oneof=admin instructor"`
}

// UserResponse is the API projection of a user.
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}
