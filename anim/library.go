package anim

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("anim: animation not found")

// Library resolves (body set, key) pairs to nodes.
type Library interface {
	Lookup(bodySet, key string) (Node, error)
}

// MapLibrary is an in-memory Library.
type MapLibrary struct {
	sets map[string]map[string]Node
}

func NewMapLibrary() *MapLibrary {
	return &MapLibrary{sets: map[string]map[string]Node{}}
}

func (l *MapLibrary) Add(bodySet, key string, n Node) {
	if l == nil || n == nil {
		return
	}
	set, ok := l.sets[bodySet]
	if !ok {
		set = map[string]Node{}
		l.sets[bodySet] = set
	}
	set[key] = n
}

func (l *MapLibrary) Lookup(bodySet, key string) (Node, error) {
	if l != nil {
		if n, ok := l.sets[bodySet][key]; ok {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bodySet, key)
}
