package store

import (
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// DefaultCapacity is the number of slots (nodes and children combined) a
// store holds unless WithCapacity says otherwise.
const DefaultCapacity = 65536

// Option is a configuration function for a Store.
type Option func(*Store)

// WithCapacity sets the maximum number of live slots. Exceeding it is fatal.
func WithCapacity(n int) Option {
	return func(s *Store) {
		s.capacity = n
	}
}

// WithLogger sets the logger used for node lifecycle events. Events are
// logged at debug level; the default logger discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.log = logger
	}
}

// WithID sets the store's instance id. By default a random V4 UUID is used.
func WithID(id uuid.UUID) Option {
	return func(s *Store) {
		s.id = id
	}
}
