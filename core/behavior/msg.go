package behavior

import "github.com/jbrestan/Orleankka/internal/reflector"

// msgTyper lets a message override the discriminator derived from its Go type.
type msgTyper interface{ MsgType() string }

func msgTypeFor[T any]() string {
	var z T
	if mt, ok := any(z).(msgTyper); ok {
		return mt.MsgType()
	}
	return reflector.TypeInfoFor[T]().Name
}

func msgTypeOf(x any) string {
	if mt, ok := x.(msgTyper); ok {
		return mt.MsgType()
	}
	return reflector.TypeInfoOf(x).Name
}

// Name derives a behavior name from a method value or method expression,
// giving a compile-checked alternative to string literals:
//
//	eng.Become(ctx, behavior.Name((*Account).Frozen))
func Name(fn any) string {
	return reflector.FuncName(fn)
}
