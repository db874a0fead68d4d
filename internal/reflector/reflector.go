// Package reflector provides cached reflection helpers used for message
// and actor type discrimination.
package reflector

import (
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// maxCacheSize bounds the type cache. The number of distinct types flowing
// through an actor program is small, so the limit is rarely reached; when it
// is, the cache is dropped and rebuilt.
const maxCacheSize = 1024

var (
	cacheMu sync.RWMutex
	cache   = make(map[reflect.Type]TypeInfo)
)

// TypeInfo holds the metadata extracted for a type.
type TypeInfo struct {
	Name string       // fully qualified: "pkg/path.TypeName"
	Type reflect.Type // underlying type, pointers unwrapped
}

// TypeInfoOf returns the TypeInfo for the dynamic type of x.
func TypeInfoOf(x any) TypeInfo {
	return TypeInfoForType(reflect.TypeOf(x))
}

// TypeInfoFor returns the TypeInfo for the type parameter T.
func TypeInfoFor[T any]() TypeInfo {
	return TypeInfoForType(reflect.TypeOf((*T)(nil)).Elem())
}

// TypeInfoForType returns the TypeInfo for t. Pointer types report their
// element type. Safe for concurrent use; results are cached.
func TypeInfoForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{}
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	cacheMu.RLock()
	ti, ok := cache[t]
	cacheMu.RUnlock()
	if ok {
		return ti
	}

	ti = TypeInfo{
		Name: t.PkgPath() + "." + t.Name(),
		Type: t,
	}

	cacheMu.Lock()
	if existing, ok := cache[t]; ok {
		cacheMu.Unlock()
		return existing
	}
	if len(cache) >= maxCacheSize {
		cache = make(map[reflect.Type]TypeInfo)
	}
	cache[t] = ti
	cacheMu.Unlock()

	return ti
}

// FuncName returns the bare name of a func value: for a method value or
// method expression this is the method name ("Sleeping" for
// (*Actor).Sleeping). Returns "" when fn is not a non-nil func.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	pc := runtime.FuncForPC(v.Pointer())
	if pc == nil {
		return ""
	}
	name := pc.Name()
	// method values are reported as "pkg.(*T).Method-fm"
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
