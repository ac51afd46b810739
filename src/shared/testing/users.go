package testing

import (
	"context"
	"fmt"

	"github.com/unplugd-audio/unplugd-be/src/server/auth"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/mark"
)

type User struct {
	ID string
}

var (
	// owner of the songs seeded in tests
	PrimaryUser = User{
		ID: "primary-user-id",
	}

	// validated, but owns none of the seeded songs
	OtherUser = User{
		ID: "other-user-id",
	}

	// holds no valid token at all
	UnauthorizedUser = User{
		ID: "unauthorized-user-id",
	}
)

func TokenForUserID(userID string) string {
	return fmt.Sprintf("%s-token", userID)
}

var _ auth.Validator = Validator{}

// Validator accepts the fixed test tokens above in place of real JWT
// validation.
type Validator struct{}

func (t Validator) ValidateToken(_ context.Context, requestToken string) (auth.User, error) {
	validatedUsers := []User{PrimaryUser, OtherUser}

	for _, validatedUser := range validatedUsers {
		if requestToken == TokenForUserID(validatedUser.ID) {
			return auth.User{ID: validatedUser.ID}, nil
		}
	}

	return auth.User{}, mark.Message(auth.NotValidatedMark, "User is not validated")
}
