package repository

import "context"

// CacheRepository stores short-lived string values such as rendered documents.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) error
}
