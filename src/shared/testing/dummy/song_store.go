package dummy

import (
	"context"
	"sync"
	"time"

	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/mark"
	songentity "github.com/unplugd-audio/unplugd-be/src/shared/song/entity"
	songstorage "github.com/unplugd-audio/unplugd-be/src/shared/song/storage"
)

var _ songentity.Store = &SongStore{}

func NewDummySongStore() *SongStore {
	return &SongStore{
		Unavailable: false,
		State:       make(map[string]map[string]songentity.Song),
	}
}

// SongStore mirrors the conditional-write semantics of the DynamoDB
// implementation: create fails on collision, updates fail when the
// record is missing or its current status is not a legal predecessor.
type SongStore struct {
	Unavailable bool
	State       map[string]map[string]songentity.Song
	mutex       sync.RWMutex
}

func (s *SongStore) CreateSong(_ context.Context, song songentity.Song) error {
	if s.Unavailable {
		return NetworkFailure
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	ownerSongs, ok := s.State[song.OwnerID]
	if !ok {
		ownerSongs = make(map[string]songentity.Song)
		s.State[song.OwnerID] = ownerSongs
	}

	if _, ok := ownerSongs[song.SongID]; ok {
		return mark.Message(songstorage.SongAlreadyExistsMark, "A song of this ID already exists")
	}

	ownerSongs[song.SongID] = song
	return nil
}

func (s *SongStore) GetSong(_ context.Context, ownerID string, songID string) (songentity.Song, error) {
	if s.Unavailable {
		return songentity.Song{}, NetworkFailure
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	song, ok := s.State[ownerID][songID]
	if !ok {
		return songentity.Song{}, mark.Message(songstorage.SongNotFoundMark, "Song for this ID couldn't be found")
	}

	return song, nil
}

func (s *SongStore) GetSongsForOwner(_ context.Context, ownerID string) ([]songentity.Song, error) {
	if s.Unavailable {
		return nil, NetworkFailure
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	songs := []songentity.Song{}
	for _, song := range s.State[ownerID] {
		songs = append(songs, song)
	}

	return songs, nil
}

func (s *SongStore) GetSongsForOwnerByStatus(ctx context.Context, ownerID string, status songentity.Status) ([]songentity.Song, error) {
	allSongs, err := s.GetSongsForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	songs := []songentity.Song{}
	for _, song := range allSongs {
		if song.Status == status {
			songs = append(songs, song)
		}
	}

	return songs, nil
}

func (s *SongStore) SetProcessing(_ context.Context, ownerID string, songID string, validated songentity.ValidatedUpload) error {
	return s.transition(ownerID, songID, songentity.StatusProcessing, func(song *songentity.Song) {
		song.OriginalFormat = validated.OriginalFormat
		song.DurationSec = validated.DurationSec
		song.FileSizeBytes = validated.FileSizeBytes
	})
}

func (s *SongStore) SetCompleted(_ context.Context, ownerID string, songID string) error {
	return s.transition(ownerID, songID, songentity.StatusCompleted, func(*songentity.Song) {})
}

func (s *SongStore) SetFailed(_ context.Context, ownerID string, songID string, errorMessage string) error {
	return s.transition(ownerID, songID, songentity.StatusFailed, func(song *songentity.Song) {
		song.ErrorMessage = errorMessage
	})
}

func (s *SongStore) DeleteSong(_ context.Context, ownerID string, songID string) error {
	if s.Unavailable {
		return NetworkFailure
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.State[ownerID][songID]; !ok {
		return mark.Message(songstorage.SongNotFoundMark, "Failed to find song to delete")
	}

	delete(s.State[ownerID], songID)
	return nil
}

func (s *SongStore) transition(ownerID string, songID string, next songentity.Status, apply func(*songentity.Song)) error {
	if s.Unavailable {
		return NetworkFailure
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	song, ok := s.State[ownerID][songID]
	if !ok {
		return mark.Message(songstorage.StaleStatusMark, "Song is missing")
	}

	if !song.Status.CanTransitionTo(next) {
		return mark.Message(songstorage.StaleStatusMark, "Song status does not permit this transition")
	}

	song.Status = next
	song.UpdatedAt = time.Now().UTC()
	apply(&song)
	s.State[ownerID][songID] = song
	return nil
}
