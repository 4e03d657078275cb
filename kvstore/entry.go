// ABOUTME: Typed JSON value stored under a single key
// ABOUTME: Missing values load as nil; undecodable values are discarded
package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Keys used by the application.
const (
	KeySessionUser    = "ancora/auth/user"
	KeyGatewaySession = "ancora/auth/session"
)

var ErrCorrupt = errors.New("stored value is corrupt")

// Entry is a JSON-encoded T under key.
type Entry[T any] struct {
	client *Client
	key    []byte
}

func NewEntry[T any](c *Client, key string) *Entry[T] {
	return &Entry[T]{client: c, key: []byte(key)}
}

// Load returns nil, nil when nothing is stored. A value that fails to
// decode is deleted and reported as ErrCorrupt.
func (e *Entry[T]) Load() (*T, error) {
	data, err := e.client.Get(e.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		if delErr := e.client.Delete(e.key); delErr != nil {
			return nil, fmt.Errorf("%w: %s (and failed to discard: %v)", ErrCorrupt, e.key, delErr)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, e.key, err)
	}
	return &v, nil
}

func (e *Entry[T]) Save(v *T) error {
	if v == nil {
		return e.Clear()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return e.client.Set(e.key, data)
}

func (e *Entry[T]) Clear() error {
	return e.client.Delete(e.key)
}
