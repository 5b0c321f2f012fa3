package api

import (
	"context"
	"net/http"
)

// Profile is the signed-in user's profile as held by the API
type Profile struct {
	ID      ID     `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// GetProfile returns the profile of the token's user
func (a *Authorized) GetProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := a.do(ctx, http.MethodGet, "/users/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile replaces the profile of the token's user
func (a *Authorized) UpdateProfile(ctx context.Context, p Profile) (*Profile, error) {
	var updated Profile
	if err := a.do(ctx, http.MethodPut, "/users/profile", p, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
