package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ProfileStore is the key-value store local profiles are saved in.
type ProfileStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

func profileKey(userID string) string { return "profile:" + userID }

// LoadProfile reads the saved profile of userID. The bool is false when
// nothing was saved yet.
func LoadProfile(ctx context.Context, kv ProfileStore, userID string) (Profile, bool, error) {
	raw, ok, err := kv.Get(ctx, profileKey(userID))
	if err != nil || !ok {
		return Profile{}, false, err
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, false, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	p.UserID = userID
	return p, true, nil
}

// SaveProfile stores p under its user ID.
func SaveProfile(ctx context.Context, kv ProfileStore, p Profile) error {
	if !p.Valid() {
		return errors.New("profile has no user id")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return kv.Set(ctx, profileKey(p.UserID), string(data))
}
