package config

import (
	"time"

	"github.com/relnotes/go-auth-client/validation"
)

type SecurityConfig interface {
	GetMaxLoginAttempts() int
	GetLoginAttemptWindow() time.Duration
	GetPasswordMinLength() int
	GetPasswordMaxLength() int
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetMaxLoginAttempts() int {
	return 5
}

func (Security) GetLoginAttemptWindow() time.Duration {
	return GetDurationEnv("LOGIN_ATTEMPT_WINDOW", 15*time.Minute)
}

func (Security) GetPasswordMinLength() int {
	return validation.MinPasswordLength
}

func (Security) GetPasswordMaxLength() int {
	return validation.MaxPasswordLength
}
