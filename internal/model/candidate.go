package model

import "time"

// Candidate represents a person taking the assessment.
type Candidate struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest is the payload for candidate login.
// Candidates authenticate by name and email only; the returned session token
// is their opaque session_id for the rest of the attempt.
type LoginRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=100"`
	Email string `json:"email" binding:"required,email"`
}

// HRUser represents an HR reviewer account (password-protected).
type HRUser struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// HRLoginRequest is the payload for HR staff login.
type HRLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}
