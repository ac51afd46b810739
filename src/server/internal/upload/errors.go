package upload

import (
	"github.com/unplugd-audio/unplugd-be/src/server/internal/errors/api"
)

const (
	BadUploadDataCode          = api.ErrorCode("bad_upload_data")
	UnsupportedContentTypeCode = api.ErrorCode("unsupported_content_type")
	FileTooLargeCode           = api.ErrorCode("file_too_large")
)
