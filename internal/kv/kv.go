// Package kv provides the persistent key-value stores the habit and
// notification data is kept in. Every backend stores opaque string values.
package kv

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Store is a persistent string key-value store.
type Store interface {
	// Init creates or migrates the backing storage.
	Init(ctx context.Context) error
	// Open connects to storage created by Init and checks it is usable.
	Open(ctx context.Context) error
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Location() string
	Close() error
}

// IsPostgres reports whether location is a PostgreSQL connection URL.
func IsPostgres(location string) bool {
	return strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://")
}

// IsRedis reports whether location is a Redis URL.
func IsRedis(location string) bool {
	return strings.HasPrefix(location, "redis://") || strings.HasPrefix(location, "rediss://")
}

// IsMemory reports whether location selects the in-process store.
func IsMemory(location string) bool {
	return location == "memory" || location == ":memory:"
}

// New picks a backend from the location: "memory", a postgres:// or
// redis:// URL, or otherwise a SQLite file path ("~" is expanded).
func New(location string) (Store, error) {
	switch {
	case IsMemory(location):
		return NewMemory(), nil
	case IsPostgres(location):
		return NewPostgres(location), nil
	case IsRedis(location):
		return NewRedis(location), nil
	default:
		path, err := ExpandPath(location)
		if err != nil {
			return nil, err
		}
		return NewSQLite(path), nil
	}
}

// ExpandPath resolves a leading "~/" against the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// HasEmbeddedCredentials reports whether a connection string carries a
// password, either as URL userinfo or as a password= query/DSN parameter.
func HasEmbeddedCredentials(connStr string) bool {
	u, err := url.Parse(connStr)
	if err == nil && u.Scheme != "" {
		if u.User != nil {
			if _, ok := u.User.Password(); ok {
				return true
			}
		}
		if u.Query().Get("password") != "" {
			return true
		}
		return false
	}
	for _, field := range strings.Fields(connStr) {
		if strings.HasPrefix(strings.ToLower(field), "password=") {
			return true
		}
	}
	return false
}
