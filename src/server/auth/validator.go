package auth

import (
	"context"

	"github.com/cockroachdb/errors"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// NotValidatedMark classifies any token that failed validation, for
// whatever reason. Callers treat all of them as 401.
var NotValidatedMark = errors.New("token is not validated")

// User is the identity carried by a validated token.
type User struct {
	ID string
}

//counterfeiter:generate . Validator
type Validator interface {
	ValidateToken(ctx context.Context, requestToken string) (User, error)
}
