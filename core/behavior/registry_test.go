package behavior

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type wellFormed struct {
	Base
}

func (a *wellFormed) Open(b *Builder)   {}
func (a *wellFormed) Closed(b *Builder) {}

// plain methods without a *Builder parameter are not entry points
func (a *wellFormed) String() string  { return "wellFormed" }
func (a *wellFormed) touch(n int) int { return n }

func TestRegistry_register_discovers_entry_points(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.NoError(t, Register[*wellFormed]())

	names, err := Declared[*wellFormed]()
	require.NoError(t, err)
	require.Equal(t, []string{"Closed", "Open"}, names)
}

func TestRegistry_register_twice_fails(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.NoError(t, Register[*wellFormed]())
	require.ErrorIs(t, Register[*wellFormed](), ErrTypeAlreadyRegistered)
}

func TestRegistry_struct_type_normalized_to_pointer(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	// registering the value type is equivalent to registering the pointer
	require.NoError(t, Register[wellFormed]())
	require.ErrorIs(t, Register[*wellFormed](), ErrTypeAlreadyRegistered)

	_, err := New(&wellFormed{}, Options{})
	require.NoError(t, err)
}

type extraParams struct {
	Base
}

func (a *extraParams) Busy(b *Builder, n int) {}

type returnsValue struct {
	Base
}

func (a *returnsValue) Busy(b *Builder) error { return nil }

type noBase struct{}

func (a *noBase) Busy(b *Builder) {}

func TestRegistry_rejects_malformed_entry_points(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.ErrorIs(t, Register[*extraParams](), ErrInvalidEntryPoint)
	require.ErrorIs(t, Register[*returnsValue](), ErrInvalidEntryPoint)
	require.ErrorIs(t, Register[int](), ErrInvalidEntryPoint)
}

func TestRegistry_requires_base_embed(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.ErrorContains(t, Register[*noBase](), "must embed behavior.Base")
}

func TestRegistry_base_methods_are_not_entry_points(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.NoError(t, Register[*wellFormed]())
	names, err := Declared[*wellFormed]()
	require.NoError(t, err)
	require.NotContains(t, names, "Behavior")
}

func TestRegistry_new_requires_registration(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	_, err := New(&wellFormed{}, Options{})
	require.ErrorIs(t, err, ErrTypeNotRegistered)
}

func TestRegistry_reset_clears(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.NoError(t, Register[*wellFormed]())
	Reset()

	_, err := Declared[*wellFormed]()
	require.ErrorIs(t, err, ErrTypeNotRegistered)
	require.NoError(t, Register[*wellFormed]())
}

func TestRegistry_ensure_is_idempotent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.NoError(t, Ensure[*wellFormed]())
	require.NoError(t, Ensure[*wellFormed]())

	// and collapses concurrent first registrations
	Reset()
	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = Ensure[*wellFormed]()
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	names, err := Declared[*wellFormed]()
	require.NoError(t, err)
	require.Len(t, names, 2)
}
