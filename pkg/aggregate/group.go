package aggregate

import (
	"fmt"
	"reflect"

	errs "sancg/pkg/errors"
)

// Fielder exposes named attributes to field-selector keys.
// models.RawRecord implements it.
type Fielder interface {
	Field(name string) (any, bool)
}

// Fields is a map-backed record.
type Fields map[string]any

// Field returns the value stored under name
func (f Fields) Field(name string) (any, bool) {
	v, ok := f[name]
	return v, ok
}

// Key derives a grouping key from an item. The zero Key is invalid.
type Key[T any] struct {
	field   string
	project func(T) any
}

// ByField selects the named field of items implementing Fielder.
func ByField[T any](name string) Key[T] {
	return Key[T]{field: name}
}

// ByProjection groups by the value fn returns.
func ByProjection[T any](fn func(T) any) Key[T] {
	return Key[T]{project: fn}
}

// KeyOf resolves spec into a Key. Accepted specs are a field name, a
// func(T) any, a func(T) string or a Key[T]. Anything else is a group_key
// error.
func KeyOf[T any](spec any) (Key[T], error) {
	switch s := spec.(type) {
	case Key[T]:
		if err := s.validate(); err != nil {
			return Key[T]{}, err
		}
		return s, nil
	case string:
		if s == "" {
			return Key[T]{}, errs.NewGroupKeyError("empty field name")
		}
		return ByField[T](s), nil
	case func(T) any:
		if s == nil {
			return Key[T]{}, errs.NewGroupKeyError("nil projection")
		}
		return ByProjection(s), nil
	case func(T) string:
		if s == nil {
			return Key[T]{}, errs.NewGroupKeyError("nil projection")
		}
		return ByProjection(func(item T) any { return s(item) }), nil
	default:
		return Key[T]{}, errs.NewGroupKeyError(fmt.Sprintf("key must be a field name or a projection, got %T", spec))
	}
}

func (k Key[T]) validate() error {
	if k.project == nil && k.field == "" {
		return errs.NewGroupKeyError("empty key")
	}
	return nil
}

// Of returns the key of item.
func (k Key[T]) Of(item T) (any, error) {
	if k.project != nil {
		return k.project(item), nil
	}

	f, ok := any(item).(Fielder)
	if !ok {
		return nil, errs.NewGroupKeyError(fmt.Sprintf("%T has no fields to select %q from", item, k.field))
	}
	v, ok := f.Field(k.field)
	if !ok {
		return nil, errs.NewGroupKeyError(fmt.Sprintf("field %q not found", k.field))
	}
	return v, nil
}

// Group is one partition produced by GroupBy.
type Group[T any] struct {
	Key     any
	Members []T
}

// GroupBy partitions items by key. Groups appear in the order their first
// member was seen and members keep their input order. A key value that
// cannot be compared for equality is a group_key error.
func GroupBy[T any](items []T, key Key[T]) ([]Group[T], error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	var groups []Group[T]
	index := make(map[any]int)

	for _, item := range items {
		k, err := key.Of(item)
		if err != nil {
			return nil, err
		}
		if k != nil && !reflect.ValueOf(k).Comparable() {
			return nil, errs.NewGroupKeyError(fmt.Sprintf("key of type %T is not comparable", k))
		}

		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Key: k})
		}
		groups[i].Members = append(groups[i].Members, item)
	}

	return groups, nil
}
