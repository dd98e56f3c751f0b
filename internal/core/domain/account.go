package domain

import "time"

// MemberAccount is a regular account created through signup. It is never
// hard-deleted.
type MemberAccount struct {
	ID                   int64
	Email                string
	CredentialHash       string
	VerificationToken    string
	VerificationIssuedAt time.Time
	Verified             bool
	SessionToken         string
	SessionIssuedAt      time.Time
	CreatedAt            time.Time
	LastLogin            time.Time
}

// OperatorAccount is a privileged account provisioned from operator tooling.
type OperatorAccount struct {
	ID              int64
	Email           string
	CredentialHash  string
	SessionToken    string
	SessionIssuedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastLogin       time.Time
}
