package animset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/milk9111/animgraph/anim"
)

// Registry holds the authored body sets. It is not safe for concurrent use;
// reloads are expected to happen on the tick thread.
type Registry struct {
	sets  map[string]*SetSpec
	files map[string]string
}

func NewRegistry() *Registry {
	return &Registry{sets: map[string]*SetSpec{}, files: map[string]string{}}
}

// LoadDefaults registers every embedded body set (or its on-disk override).
func LoadDefaults() (*Registry, error) {
	r := NewRegistry()
	files, err := SetFiles()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := r.LoadFile(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates spec and adds or replaces its body set.
func (r *Registry) Register(spec *SetSpec) error {
	if spec == nil {
		return ErrNoBodySet
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	r.sets[spec.BodySet] = spec
	return nil
}

// LoadFile loads a body set by file name and remembers which file it came
// from so that Reload can find it.
func (r *Registry) LoadFile(name string) error {
	spec, err := LoadSetSpec(name)
	if err != nil {
		return err
	}
	if err := r.Register(spec); err != nil {
		return err
	}
	r.files[filepath.Base(cleanSetPath(name))] = spec.BodySet
	return nil
}

// Reload re-reads a changed set file from disk and returns the body set it
// defines. The previous spec stays registered when the new one is invalid.
func (r *Registry) Reload(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("animset: reload %s: %w", path, err)
	}
	spec, err := ParseSetSpec(data)
	if err != nil {
		return "", fmt.Errorf("animset: reload %s: %w", path, err)
	}
	if err := r.Register(spec); err != nil {
		return "", err
	}
	r.files[filepath.Base(path)] = spec.BodySet
	return spec.BodySet, nil
}

// BodySetForFile returns the body set last loaded from the named file.
func (r *Registry) BodySetForFile(path string) (string, bool) {
	b, ok := r.files[filepath.Base(path)]
	return b, ok
}

func (r *Registry) Spec(bodySet string) (*SetSpec, bool) {
	s, ok := r.sets[bodySet]
	return s, ok
}

func (r *Registry) BodySets() []string {
	out := make([]string, 0, len(r.sets))
	for k := range r.sets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Instantiate builds a fresh node graph of every registered set on layer.
func (r *Registry) Instantiate(layer *anim.Layer, resolve SourceResolver) (*Library, error) {
	if layer == nil {
		return nil, anim.ErrNilLayer
	}
	lib := newLibrary(layer)
	for _, name := range r.BodySets() {
		if err := lib.instantiate(r.sets[name], resolve); err != nil {
			return nil, fmt.Errorf("animset: %s: %w", name, err)
		}
	}
	return lib, nil
}
