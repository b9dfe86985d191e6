// Package auth carries the signed-in user's profile and parses the bearer
// tokens the HTTP API accepts.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when no bearer token was supplied.
	ErrMissingToken = errors.New("token is required")

	// ErrInvalidToken is returned for tokens that fail verification or
	// carry no user ID.
	ErrInvalidToken = errors.New("invalid token")
)

// Profile is the user identity and profile snapshot passed explicitly to
// quiz controllers and the recommendation generator.
type Profile struct {
	UserID            string   `json:"user_id"`
	Email             string   `json:"email,omitempty"`
	FullName          string   `json:"full_name,omitempty"`
	Major             string   `json:"major,omitempty"`
	YearOfStudy       int      `json:"year_of_study,omitempty"`
	Interests         []string `json:"interests,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	CareerPreferences []string `json:"career_preferences,omitempty"`
}

// Valid reports whether the profile identifies a user.
func (p Profile) Valid() bool {
	return strings.TrimSpace(p.UserID) != ""
}

// DisplayName returns the full name, falling back to the email and then the
// user ID.
func (p Profile) DisplayName() string {
	switch {
	case p.FullName != "":
		return p.FullName
	case p.Email != "":
		return p.Email
	}
	return p.UserID
}

// Claims is the JWT payload. Either the standard subject or user_id names
// the user.
type Claims struct {
	UserID            string   `json:"user_id,omitempty"`
	Email             string   `json:"email,omitempty"`
	FullName          string   `json:"full_name,omitempty"`
	Major             string   `json:"major,omitempty"`
	YearOfStudy       int      `json:"year_of_study,omitempty"`
	Interests         []string `json:"interests,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	CareerPreferences []string `json:"career_preferences,omitempty"`
	jwt.RegisteredClaims
}

// Profile converts the claims into a Profile.
func (c *Claims) Profile() Profile {
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	return Profile{
		UserID:            id,
		Email:             c.Email,
		FullName:          c.FullName,
		Major:             c.Major,
		YearOfStudy:       c.YearOfStudy,
		Interests:         c.Interests,
		Skills:            c.Skills,
		CareerPreferences: c.CareerPreferences,
	}
}

// ParseToken verifies an HS256 token signed with secret and returns the
// profile it carries. A "Bearer " prefix is stripped.
func ParseToken(secret []byte, tokenString string) (Profile, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return Profile{}, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Profile{}, ErrInvalidToken
	}
	p := claims.Profile()
	if !p.Valid() {
		return Profile{}, fmt.Errorf("%w: no user id", ErrInvalidToken)
	}
	return p, nil
}

// IssueToken signs a token for p that expires after ttl.
func IssueToken(secret []byte, p Profile, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:            p.UserID,
		Email:             p.Email,
		FullName:          p.FullName,
		Major:             p.Major,
		YearOfStudy:       p.YearOfStudy,
		Interests:         p.Interests,
		Skills:            p.Skills,
		CareerPreferences: p.CareerPreferences,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
