package gateway

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unplugd-audio/unplugd-be/src/server/api_error"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/errors/api"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/errors/auth"
	songerrors "github.com/unplugd-audio/unplugd-be/src/server/internal/song/errors"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/upload"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:              http.StatusInternalServerError,
	auth.NotAuthorizedCode:            http.StatusUnauthorized,
	auth.BadAuthorizationHeaderCode:   http.StatusBadRequest,
	songerrors.SongNotFoundCode:       http.StatusNotFound,
	songerrors.ExistingSongCode:       http.StatusBadRequest,
	songerrors.BadSongDataCode:        http.StatusBadRequest,
	songerrors.ConflictingStatusCode:  http.StatusConflict,
	songerrors.UploadNotFoundCode:     http.StatusBadRequest,
	upload.BadUploadDataCode:          http.StatusBadRequest,
	upload.UnsupportedContentTypeCode: http.StatusBadRequest,
	upload.FileTooLargeCode:           http.StatusRequestEntityTooLarge,
}

// StatusCode panics on an unmapped code - a missing mapping is a
// programming error that should surface in tests, not a silent 500.
func StatusCode(code api.ErrorCode) int {
	statusCode, ok := httpStatusCodeMap[code]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", code)
		panic(msg)
	}

	return statusCode
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	return c.JSON(StatusCode(err.ErrorCode), api_error.JSONAPIError{
		Code:         string(err.ErrorCode),
		Msg:          err.UserMessage,
		ErrorDetails: err.Error(),
	})
}
