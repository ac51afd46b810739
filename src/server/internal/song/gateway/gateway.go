package songgateway

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/errors/api"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/errors/gateway"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/lib/request"
	songusecase "github.com/unplugd-audio/unplugd-be/src/server/internal/song/usecase"
	uploaderrors "github.com/unplugd-audio/unplugd-be/src/server/internal/upload"
)

type Gateway struct {
	usecase songusecase.Usecase
}

func NewGateway(usecase songusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) CreateUpload(c echo.Context) error {
	ctx := request.Context(c)

	authHeader, apiErr := request.AuthHeader(c)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	uploadRequest := songusecase.UploadRequest{}
	err := c.Bind(&uploadRequest)
	if err != nil {
		err = errors.Wrap(err, "Failed to bind request body to upload request")
		apiErr := api.CommitError(err,
			uploaderrors.BadUploadDataCode,
			"The upload request received was malformed. Please contact the developer")
		return gateway.ErrorResponse(c, apiErr)
	}

	receipt, apiErr := g.usecase.CreateUpload(ctx, authHeader, uploadRequest)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusCreated, receipt)
}

func (g Gateway) GetSong(c echo.Context, songID string) error {
	ctx := request.Context(c)

	authHeader, apiErr := request.AuthHeader(c)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	song, apiErr := g.usecase.GetSong(ctx, authHeader, songID)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, song)
}

func (g Gateway) GetSongs(c echo.Context) error {
	ctx := request.Context(c)

	authHeader, apiErr := request.AuthHeader(c)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	songs, apiErr := g.usecase.GetSongs(ctx, authHeader, c.QueryParam("status"))
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, songs)
}

func (g Gateway) Process(c echo.Context, songID string) error {
	ctx := request.Context(c)

	authHeader, apiErr := request.AuthHeader(c)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	apiErr = g.usecase.Process(ctx, authHeader, songID)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.NoContent(http.StatusAccepted)
}

func (g Gateway) DeleteSong(c echo.Context, songID string) error {
	ctx := request.Context(c)

	authHeader, apiErr := request.AuthHeader(c)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	apiErr = g.usecase.DeleteSong(ctx, authHeader, songID)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.NoContent(http.StatusOK)
}

func (g Gateway) GetPresets(c echo.Context) error {
	return c.JSON(http.StatusOK, g.usecase.Presets())
}
