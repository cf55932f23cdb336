package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAdminDisabled = errors.New("admin access is disabled")
	ErrAdminDenied   = errors.New("admin password is incorrect")
)

// AdminCredential holds the bcrypt hash of the admin password. The
// plaintext is never kept.
type AdminCredential struct {
	hash []byte
}

// NewAdminCredential hashes password. An empty password disables admin
// access and yields a credential that rejects everything.
func NewAdminCredential(password string) (*AdminCredential, error) {
	if password == "" {
		return &AdminCredential{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &AdminCredential{hash: hash}, nil
}

func (a *AdminCredential) Enabled() bool {
	return a != nil && len(a.hash) > 0
}

// Check compares password against the stored hash.
func (a *AdminCredential) Check(password string) error {
	if !a.Enabled() {
		return ErrAdminDisabled
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
		return ErrAdminDenied
	}
	return nil
}
