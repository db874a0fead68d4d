package behavior

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jbrestan/Orleankka/internal/reflector"
)

// Behavior entry points are methods on the actor type with the exact shape
//
//	func (a *A) Sleeping(b *behavior.Builder)
//
// Register scans the actor type once, validates every marked method, and
// stores the resulting name -> method table process-wide. Engines bind the
// table to a concrete actor instance at construction, so dispatch itself
// never reflects.

type typeEntry struct {
	ptr  reflect.Type              // the scanned pointer type, e.g. *Account
	defs map[string]reflect.Method // behavior name -> entry point
}

var (
	regMu    sync.RWMutex
	registry = make(map[string]*typeEntry)
	regGroup singleflight.Group

	builderType = reflect.TypeOf((*Builder)(nil))
	binderType  = reflect.TypeOf((*engineBinder)(nil)).Elem()
	basePtrType = reflect.TypeOf((*Base)(nil))
)

// Register discovers the behavior entry points declared on actor type A and
// stores them under the type. It must be called exactly once per actor type
// before the first instance is constructed; registering a type twice is an
// error. A is the form instances take at runtime, normally a pointer to the
// actor struct; a bare struct type is accepted and treated as its pointer.
func Register[A any]() error {
	return registerType(reflect.TypeOf((*A)(nil)).Elem())
}

// MustRegister is Register that panics on error. Intended for use during
// program startup.
func MustRegister[A any]() {
	if err := Register[A](); err != nil {
		panic(err)
	}
}

// Ensure registers A unless it already is registered. Unlike Register it is
// safe to call from concurrent activation paths: simultaneous first
// registrations of the same type collapse into one scan.
func Ensure[A any]() error {
	t := normalizeActorType(reflect.TypeOf((*A)(nil)).Elem())
	name := reflector.TypeInfoForType(t).Name
	if _, ok := lookupEntry(name); ok {
		return nil
	}
	_, err, _ := regGroup.Do(name, func() (any, error) {
		if _, ok := lookupEntry(name); ok {
			return nil, nil
		}
		return nil, registerType(t)
	})
	return err
}

// Reset clears all registrations. It exists solely to isolate test runs and
// must not be called while any actor is active.
func Reset() {
	regMu.Lock()
	registry = make(map[string]*typeEntry)
	regMu.Unlock()
}

// Declared returns the sorted behavior names registered for actor type A.
func Declared[A any]() ([]string, error) {
	name := reflector.TypeInfoFor[A]().Name
	entry, ok := lookupEntry(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotRegistered, name)
	}
	names := make([]string, 0, len(entry.defs))
	for n := range entry.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func lookupEntry(typeName string) (*typeEntry, bool) {
	regMu.RLock()
	entry, ok := registry[typeName]
	regMu.RUnlock()
	return entry, ok
}

func normalizeActorType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Struct {
		return reflect.PointerTo(t)
	}
	return t
}

func registerType(t reflect.Type) error {
	t = normalizeActorType(t)
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s is not an actor struct type", ErrInvalidEntryPoint, t)
	}

	name := reflector.TypeInfoForType(t).Name

	if !t.Implements(binderType) {
		return fmt.Errorf("%w: %s must embed behavior.Base", ErrTypeNotRegistered, name)
	}

	defs := make(map[string]reflect.Method)
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)

		// the scan stops at the base actor type: methods promoted from
		// behavior.Base are never behavior entry points
		if _, fromBase := basePtrType.MethodByName(m.Name); fromBase {
			continue
		}

		if !mentionsBuilder(m.Type) {
			continue
		}
		if err := validateEntryPoint(m); err != nil {
			return err
		}
		defs[m.Name] = m
	}

	regMu.Lock()
	defer regMu.Unlock()
	if _, ok := registry[name]; ok {
		return fmt.Errorf("%w: %s", ErrTypeAlreadyRegistered, name)
	}
	registry[name] = &typeEntry{ptr: t, defs: defs}
	return nil
}

// mentionsBuilder reports whether any parameter (past the receiver) is a
// *Builder; such a method is marked as a behavior definition and must then
// pass full validation.
func mentionsBuilder(ft reflect.Type) bool {
	for i := 1; i < ft.NumIn(); i++ {
		if ft.In(i) == builderType {
			return true
		}
	}
	return false
}

func validateEntryPoint(m reflect.Method) error {
	ft := m.Type
	switch {
	case ft.NumOut() != 0:
		return fmt.Errorf("%w: %s must not return values", ErrInvalidEntryPoint, m.Name)
	case ft.IsVariadic():
		return fmt.Errorf("%w: %s must not be variadic", ErrInvalidEntryPoint, m.Name)
	case ft.NumIn() != 2 || ft.In(1) != builderType:
		return fmt.Errorf("%w: %s must take a single *behavior.Builder parameter", ErrInvalidEntryPoint, m.Name)
	}
	return nil
}
