package authusecase

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/unplugd-audio/unplugd-be/src/server/auth"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/errors/api"
	autherrors "github.com/unplugd-audio/unplugd-be/src/server/internal/errors/auth"
)

const bearerPrefix = "Bearer "

type Usecase struct {
	validator auth.Validator
}

func NewUsecase(validator auth.Validator) Usecase {
	return Usecase{
		validator: validator,
	}
}

func (u Usecase) ValidateHeader(ctx context.Context, header string) (auth.User, *api.Error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return auth.User{}, api.CommitError(
			errors.New("Auth header doesn't have the bearer prefix"),
			autherrors.BadAuthorizationHeaderCode,
			"Authorization header has unexpected shape")
	}

	token := strings.TrimPrefix(header, bearerPrefix)
	user, err := u.validator.ValidateToken(ctx, token)
	if err != nil {
		err = errors.Wrap(err, "Failed to validate bearer token")
		switch {
		case markers.Is(err, auth.NotValidatedMark):
			return auth.User{}, api.CommitError(err,
				autherrors.NotAuthorizedCode,
				"Your login doesn't seem to be valid. Please try again")

		default:
			return auth.User{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Couldn't verify your login status")
		}
	}

	return user, nil
}

// ValidateToken is for surfaces that carry a raw token instead of an
// Authorization header, like the websocket query string.
func (u Usecase) ValidateToken(ctx context.Context, token string) (auth.User, *api.Error) {
	if token == "" {
		return auth.User{}, api.CommitError(
			errors.New("No token provided"),
			autherrors.BadAuthorizationHeaderCode,
			"The request is unauthorized. Please try logging in again")
	}

	return u.ValidateHeader(ctx, bearerPrefix+token)
}
