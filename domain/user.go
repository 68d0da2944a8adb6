package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRole string

const (
	Guest UserRole = "guest"
	Host  UserRole = "host"
)

const DefaultAvatar = "https://res.cloudinary.com/dnv6ajx3b/image/upload/r_max/social-media-app/o2qlhr6jwkqkdgmtx2bl"

type User struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name          string               `bson:"name" json:"name"`
	Email         string               `bson:"email" json:"email"`
	Password      string               `bson:"password" json:"-"`
	Phone         string               `bson:"phone,omitempty" json:"phone,omitempty"`
	Avatar        string               `bson:"avatar" json:"avatar"`
	Role          UserRole             `bson:"role" json:"role"`
	LikedListings []primitive.ObjectID `bson:"likedListings" json:"likedListings"`
	SavedListings []primitive.ObjectID `bson:"savedListings" json:"savedListings"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Email  string             `json:"email"`
	Phone  string             `json:"phone,omitempty"`
	Avatar string             `json:"avatar"`
	Role   UserRole           `json:"role"`
}

func (u *User) Response() *UserResponse {
	return &UserResponse{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Phone:  u.Phone,
		Avatar: u.Avatar,
		Role:   u.Role,
	}
}

type RegisterInput struct {
	Name     string   `json:"name" form:"name"`
	Email    string   `json:"email" form:"email"`
	Password string   `json:"password" form:"password"`
	Role     UserRole `json:"role" form:"role"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetPasswordInput struct {
	Email       string `json:"email"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type UpdateProfileInput struct {
	Name  *string `json:"name" form:"name"`
	Phone *string `json:"phone" form:"phone"`
}

// AuthResult is what register and login hand back to the client.
type AuthResult struct {
	User         *UserResponse `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
}

// ListingRefField names one of the per-user listing reference lists.
type ListingRefField string

const (
	LikedListings ListingRefField = "likedListings"
	SavedListings ListingRefField = "savedListings"
)
