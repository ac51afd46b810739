package envvar

import (
	"fmt"
	"os"
)

const (
	AWS_ACCESS_KEY_ID        = "AWS_ACCESS_KEY_ID"
	AWS_SECRET_ACCESS_KEY    = "AWS_SECRET_ACCESS_KEY"
	RABBITMQ_URL             = "RABBITMQ_URL"
	JOBS_QUEUE_NAME          = "JOBS_QUEUE_NAME"
	NOTIFICATIONS_QUEUE_NAME = "NOTIFICATIONS_QUEUE_NAME"
	UPLOAD_BUCKET_NAME       = "UPLOAD_BUCKET_NAME"
	OUTPUT_BUCKET_NAME       = "OUTPUT_BUCKET_NAME"
	GOOGLE_CLOUD_KEY         = "GOOGLE_CLOUD_KEY"
	JWT_SECRET               = "JWT_SECRET"
	FFPROBE_BIN_PATH         = "FFPROBE_BIN_PATH"
	DEMUCS_BIN_PATH          = "DEMUCS_BIN_PATH"
	DEMUCS_WORKING_DIR_PATH  = "DEMUCS_WORKING_DIR_PATH"
	WHISPER_BIN_PATH         = "WHISPER_BIN_PATH"
	WHISPER_WORKING_DIR_PATH = "WHISPER_WORKING_DIR_PATH"
)

func MustGet(key string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet {
		panic(fmt.Sprintf("No env variable found for key %s", key))
	}

	if val == "" {
		panic(fmt.Sprintf("Env variable is empty for key %s", key))
	}

	return val
}
