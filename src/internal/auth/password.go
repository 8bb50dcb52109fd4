// FILE: logvault/src/internal/auth/password.go
package auth

import (
	"crypto/subtle"
	"fmt"

	"logvault/src/internal/config"

	"golang.org/x/crypto/bcrypt"
)

// PasswordPolicy decides how credentials are stored and compared
type PasswordPolicy interface {
	Name() string
	// Hash produces the value persisted in the credential store
	Hash(password string) (string, error)
	// Compare reports whether password matches the stored value
	Compare(stored, password string) bool
	// Burn spends comparable time for an unknown user
	Burn(password string)
}

// NewPasswordPolicy selects the policy named by auth.password_storage
func NewPasswordPolicy(cfg config.AuthConfig) (PasswordPolicy, error) {
	switch cfg.PasswordStorage {
	case config.PasswordPlain, "":
		return plainPolicy{}, nil
	case config.PasswordBcrypt:
		return newBcryptPolicy(int(cfg.BcryptCost))
	default:
		return nil, fmt.Errorf("unknown password storage: %s", cfg.PasswordStorage)
	}
}

// plainPolicy stores the password verbatim
type plainPolicy struct{}

func (plainPolicy) Name() string { return config.PasswordPlain }

func (plainPolicy) Hash(password string) (string, error) {
	return password, nil
}

func (plainPolicy) Compare(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

func (plainPolicy) Burn(string) {}

type bcryptPolicy struct {
	cost  int
	dummy []byte
}

func newBcryptPolicy(cost int) (*bcryptPolicy, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("logvault-unknown-user"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare bcrypt policy: %w", err)
	}
	return &bcryptPolicy{cost: cost, dummy: dummy}, nil
}

func (p *bcryptPolicy) Name() string { return config.PasswordBcrypt }

func (p *bcryptPolicy) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (p *bcryptPolicy) Compare(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

func (p *bcryptPolicy) Burn(password string) {
	_ = bcrypt.CompareHashAndPassword(p.dummy, []byte(password))
}
