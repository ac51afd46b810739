package auth

import (
	"github.com/unplugd-audio/unplugd-be/src/server/internal/errors/api"
)

const (
	NotAuthorizedCode          = api.ErrorCode("not_authorized")
	BadAuthorizationHeaderCode = api.ErrorCode("bad_header")
)
