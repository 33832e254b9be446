package dto

// UpdateProfileRequest payload for editing the caller's own profile.
type UpdateProfileRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=2"`
	Department *string `json:"department,omitempty"`
}

// ProfileResponse describes a user profile.
type ProfileResponse struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
}
