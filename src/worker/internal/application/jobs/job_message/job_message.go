package job_message

// SongIdentifier addresses the song a job operates on. Every job type
// on the jobs queue embeds it.
type SongIdentifier struct {
	UserID string `json:"user_id"`
	SongID string `json:"song_id"`
}
