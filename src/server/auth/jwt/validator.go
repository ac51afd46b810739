package jwt

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/unplugd-audio/unplugd-be/src/server/auth"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/mark"
)

// Issuer is pinned so that tokens minted for other services of the
// same deployment don't validate here.
const Issuer = "unplugd"

var _ auth.Validator = Validator{}

// Validator verifies HS256 bearer tokens and extracts the user ID from
// the subject claim.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) Validator {
	return Validator{secret: []byte(secret)}
}

func (v Validator) ValidateToken(_ context.Context, requestToken string) (auth.User, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}

	token, err := jwt.Parse(requestToken, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		return auth.User{}, mark.Wrap(err, auth.NotValidatedMark, "Token failed signature or claims validation")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return auth.User{}, mark.Message(auth.NotValidatedMark, "Token has no subject claim")
	}

	return auth.User{ID: subject}, nil
}
