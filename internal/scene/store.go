// Package scene holds the ordered shape collection of one open canvas.
// Order is z-order: later shapes paint on top and are hit first.
//
// A Store is not safe for concurrent use; the board's event loop is its
// only owner.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/drawroom/drawroom/internal/shape"
)

var (
	ErrAlreadyHydrated = errors.New("scene already hydrated")
	ErrMutated         = errors.New("scene mutated before hydrate")
	ErrDuplicateID     = errors.New("duplicate shape id")
)

type Option func(*Store)

// WithStrict makes precondition violations panic instead of being logged
// and ignored. Use it in development builds and tests.
func WithStrict(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type Store struct {
	shapes   []shape.Shape
	ids      map[string]struct{}
	hydrated bool
	mutated  bool
	strict   bool
	logger   *slog.Logger
}

// NewStore returns an empty store that accepts one Hydrate before any
// mutation. Violations are logged unless WithStrict is set.
func NewStore(opts ...Option) *Store {
	s := &Store{
		ids:    make(map[string]struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate replaces the contents with the room's persisted shapes. It may run
// once, before any other mutation. Duplicate ids in the input keep the first
// occurrence.
func (s *Store) Hydrate(shapes []shape.Shape) error {
	if s.hydrated {
		return s.violation(ErrAlreadyHydrated)
	}
	if s.mutated {
		return s.violation(ErrMutated)
	}

	s.shapes = make([]shape.Shape, 0, len(shapes))
	clear(s.ids)
	for _, sh := range shapes {
		if _, dup := s.ids[sh.ShapeID()]; dup {
			s.logger.Warn("hydrate skipped duplicate shape", "id", sh.ShapeID())
			continue
		}
		s.ids[sh.ShapeID()] = struct{}{}
		s.shapes = append(s.shapes, sh)
	}
	s.hydrated = true
	return nil
}

// Append adds sh on top of the scene. Ids are generated locally, so a
// duplicate is a programming error.
func (s *Store) Append(sh shape.Shape) error {
	if _, dup := s.ids[sh.ShapeID()]; dup {
		return s.violation(fmt.Errorf("%w: %s", ErrDuplicateID, sh.ShapeID()))
	}
	s.mutated = true
	s.ids[sh.ShapeID()] = struct{}{}
	s.shapes = append(s.shapes, sh)
	return nil
}

// RemoveByID removes the shape with the given id and reports whether one was
// found. Removing an absent id is a no-op: a remote delete may race a local
// one for the same shape.
func (s *Store) RemoveByID(id string) bool {
	if _, ok := s.ids[id]; !ok {
		return false
	}
	s.mutated = true
	delete(s.ids, id)
	s.shapes = slices.DeleteFunc(s.shapes, func(sh shape.Shape) bool {
		return sh.ShapeID() == id
	})
	return true
}

// All returns a snapshot of the scene in z-order. The slice is a copy and
// is unaffected by later mutations.
func (s *Store) All() []shape.Shape {
	return slices.Clone(s.shapes)
}

func (s *Store) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Store) Len() int {
	return len(s.shapes)
}

// TopmostAt scans from the top of the scene down and returns the first
// shape the eraser at (x, y) hits.
func (s *Store) TopmostAt(x, y float64) (shape.Shape, bool) {
	for i := len(s.shapes) - 1; i >= 0; i-- {
		if shape.Contains(s.shapes[i], x, y) {
			return s.shapes[i], true
		}
	}
	return nil, false
}

func (s *Store) violation(err error) error {
	if s.strict {
		panic("scene: " + err.Error())
	}
	s.logger.Warn("scene precondition violated", "error", err)
	return err
}
