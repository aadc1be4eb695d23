package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/core-coin/fortuna/internal/models"
)

// GetJSON decodes the value under key into v. It reports false when the key is missing.
func GetJSON(ctx context.Context, store models.Store, key string, v interface{}) (bool, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, asStorageError("get", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, models.NewStorageError("decode", key, err)
	}
	return true, nil
}

// SetJSON encodes v and writes it under key.
func SetJSON(ctx context.Context, store models.Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return models.NewStorageError("encode", key, err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return asStorageError("set", key, err)
	}
	return nil
}

// Delete removes key, wrapping failures as storage errors.
func Delete(ctx context.Context, store models.Store, key string) error {
	if err := store.Delete(ctx, key); err != nil {
		return asStorageError("delete", key, err)
	}
	return nil
}

func asStorageError(op, key string, err error) error {
	var storageErr *models.StorageError
	if errors.As(err, &storageErr) {
		return err
	}
	return models.NewStorageError(op, key, err)
}
