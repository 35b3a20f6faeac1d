package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/tiktrack/tiktrack-server/internal/domain"
)

const (
	soundPrefix        = "sound:"
	soundByUserPrefix  = "idx:sounds:user:" // For listing a user's tracked sounds
	soundByOwnerPrefix = "idx:sounds:url:"  // For per-user URL uniqueness
)

// ownerURLKey builds the uniqueness index key for a (user, URL) pair.
// NUL separates the parts because the URL itself contains colons.
func ownerURLKey(userID, url string) []byte {
	return []byte(soundByOwnerPrefix + userID + "\x00" + url)
}

// CreateSound stores a newly tracked sound.
// Returns ErrSoundURLExists if the user already tracks this URL.
func (s *Store) CreateSound(_ context.Context, sound *domain.Sound) error {
	key := []byte(soundPrefix + sound.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check sound exists: %w", err)
	}
	if exists {
		return errors.New("sound already exists")
	}

	urlKey := ownerURLKey(sound.UserID, sound.URL)
	userIndexKey := []byte(soundByUserPrefix + sound.UserID + ":" + sound.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		// Reject duplicate URLs for the same user
		_, err := txn.Get(urlKey)
		if err == nil {
			return ErrSoundURLExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check sound URL: %w", err)
		}

		data, err := json.Marshal(sound)
		if err != nil {
			return fmt.Errorf("marshal sound: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		if err := txn.Set(urlKey, []byte(sound.ID)); err != nil {
			return err
		}

		if err := txn.Set(userIndexKey, []byte{}); err != nil {
			return err
		}

		return nil
	})
}

// GetSound retrieves a tracked sound by ID.
func (s *Store) GetSound(_ context.Context, id string) (*domain.Sound, error) {
	key := []byte(soundPrefix + id)

	var sound domain.Sound
	if err := s.get(key, &sound); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSoundNotFound
		}
		return nil, fmt.Errorf("get sound: %w", err)
	}

	return &sound, nil
}

// UpdateSound updates an existing sound record (scrape results, metrics).
// The URL is immutable once tracked, so no index maintenance is needed.
func (s *Store) UpdateSound(ctx context.Context, sound *domain.Sound) error {
	key := []byte(soundPrefix + sound.ID)

	// Confirm it exists before writing
	if _, err := s.GetSound(ctx, sound.ID); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(sound)
		if err != nil {
			return fmt.Errorf("marshal sound: %w", err)
		}

		return txn.Set(key, data)
	})
}

// DeleteSound deletes a tracked sound and its indexes.
// Idempotent - no error if the sound does not exist.
func (s *Store) DeleteSound(_ context.Context, soundID string) error {
	key := []byte(soundPrefix + soundID)

	var sound domain.Sound
	if err := s.get(key, &sound); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Already gone
		}
		return fmt.Errorf("get sound for deletion: %w", err)
	}

	urlKey := ownerURLKey(sound.UserID, sound.URL)
	userIndexKey := []byte(soundByUserPrefix + sound.UserID + ":" + soundID)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(key); err != nil {
			return err
		}

		if err := txn.Delete(urlKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Delete(userIndexKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return nil
	})
}

// ListUserSounds returns all sounds tracked by a user.
func (s *Store) ListUserSounds(ctx context.Context, userID string) ([]*domain.Sound, error) {
	prefix := []byte(soundByUserPrefix + userID + ":")
	var sounds []*domain.Sound

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // We only need keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Key format: idx:sounds:user:userID:soundID
			key := string(it.Item().Key())
			parts := strings.Split(key, ":")
			if len(parts) < 5 {
				continue
			}
			soundID := parts[4]

			sound, err := s.GetSound(ctx, soundID)
			if err != nil {
				if errors.Is(err, ErrSoundNotFound) {
					continue // Stale index entry
				}
				return err
			}

			sounds = append(sounds, sound)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list user sounds: %w", err)
	}

	return sounds, nil
}
