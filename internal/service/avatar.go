package service

import (
	"bitwise74/auth-api/internal/store"
	"bitwise74/auth-api/pkg/validators"
	"bytes"
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const keyCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

type Avatars struct {
	repo    store.Repository
	objects ObjectStore
}

func NewAvatars(repo store.Repository, objects ObjectStore) *Avatars {
	return &Avatars{repo: repo, objects: objects}
}

// Upload resizes a validated avatar, stores it under a fresh key and removes
// the previous one. Returns the public URL.
func (a *Avatars) Upload(ctx context.Context, userID string, av *validators.Avatar) (string, error) {
	av, err := processAvatar(av)
	if err != nil {
		return "", err
	}

	id, err := gonanoid.Generate(keyCharset, 12)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, id, av.Extension)

	if err := a.objects.Put(ctx, key, bytes.NewReader(av.Data), int64(len(av.Data)), av.MIME); err != nil {
		return "", err
	}

	old, err := a.repo.SetAvatarKey(ctx, userID, key)
	if err != nil {
		a.remove(ctx, key)
		return "", err
	}

	if old != "" {
		a.remove(ctx, old)
	}

	return a.objects.URL(key), nil
}

// Remove clears the avatar of a user
func (a *Avatars) Remove(ctx context.Context, userID string) error {
	old, err := a.repo.SetAvatarKey(ctx, userID, "")
	if err != nil {
		return err
	}

	if old != "" {
		a.remove(ctx, old)
	}

	return nil
}

// URL returns the public link for a stored key, or "" for no avatar
func (a *Avatars) URL(key string) string {
	if key == "" {
		return ""
	}

	return a.objects.URL(key)
}

// Delete removes an object that's no longer referenced. Failures are
// logged only.
func (a *Avatars) Delete(ctx context.Context, key string) {
	if key != "" {
		a.remove(ctx, key)
	}
}

func (a *Avatars) remove(ctx context.Context, key string) {
	if err := a.objects.Delete(ctx, key); err != nil {
		zap.L().Error("Failed to delete avatar object", zap.Error(err), zap.String("key", key))
	}
}
