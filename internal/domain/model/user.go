package model

import (
	"strings"
	"time"
)

// Identity is the authenticated user handed over by the auth layer.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// User is the locally stored profile of a user.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Age          *int      `json:"age,omitempty"`
	Height       *float64  `json:"height,omitempty"`
	Weight       *float64  `json:"weight,omitempty"`
	Steps        *int      `json:"steps,omitempty"`
	LastActive   time.Time `json:"lastActive"`
	LastUpdated  time.Time `json:"lastUpdated,omitempty"`
}

// UserPatch lists profile fields to change; nil fields are left alone.
type UserPatch struct {
	FirstName    *string  `json:"firstName,omitempty"`
	LastName     *string  `json:"lastName,omitempty"`
	Email        *string  `json:"email,omitempty"`
	ProfileImage *string  `json:"profileImage,omitempty"`
	Age          *int     `json:"age,omitempty"`
	Height       *float64 `json:"height,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Steps        *int     `json:"steps,omitempty"`
}

// SplitName splits a display name into first name and the remainder.
// An empty name yields "User".
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "User", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// Apply merges p into u. The display name is recomputed when either part of
// it changes.
func (u User) Apply(p UserPatch) User {
	nameChanged := p.FirstName != nil || p.LastName != nil
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if nameChanged {
		u.Name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	if p.Age != nil {
		u.Age = p.Age
	}
	if p.Height != nil {
		u.Height = p.Height
	}
	if p.Weight != nil {
		u.Weight = p.Weight
	}
	if p.Steps != nil {
		u.Steps = p.Steps
	}
	return u
}
