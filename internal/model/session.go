package model

import (
	"errors"
	"strings"
)

var ErrInvalidProfile = errors.New("name, education and age are required")

// UserProfile is the respondent metadata collected before the survey starts
type UserProfile struct {
	Name      string `json:"name"`
	Education string `json:"education"`
	Age       string `json:"age"`
}

// Validate requires every field to be non-blank
func (p UserProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" ||
		strings.TrimSpace(p.Education) == "" ||
		strings.TrimSpace(p.Age) == "" {
		return ErrInvalidProfile
	}
	return nil
}

// AsMap converts the profile to the user_profile wire format of the fallback call
func (p UserProfile) AsMap() map[string]string {
	return map[string]string{
		"name":      p.Name,
		"education": p.Education,
		"age":       p.Age,
	}
}

// CreateSessionRequest is the body of POST /v1/sessions
type CreateSessionRequest struct {
	Profile UserProfile `json:"profile"`
}
