package query

import (
	"reflect"
	"time"

	"buscalisto/internal/dataaccess"
)

// View is the render branch a consumer should take for a State.
type View string

const (
	ViewLoading   View = "loading"
	ViewError     View = "error"
	ViewEmpty     View = "empty"
	ViewPopulated View = "populated"
)

type State[T any] struct {
	Data      T
	IsLoading bool
	Err       error
	Source    dataaccess.Source
	FetchedAt time.Time
	Cached    bool
}

// View picks exactly one of the four branches. Loading wins over error,
// error over empty.
func (s State[T]) View() View {
	switch {
	case s.IsLoading:
		return ViewLoading
	case s.Err != nil:
		return ViewError
	case isEmpty(s.Data):
		return ViewEmpty
	default:
		return ViewPopulated
	}
}

type emptier interface {
	Empty() bool
}

func isEmpty(v any) bool {
	if e, ok := v.(emptier); ok {
		return e.Empty()
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	default:
		return rv.IsZero()
	}
}

func loadingState[T any]() State[T] {
	return State[T]{Data: zeroData[T](), IsLoading: true}
}

// zeroData is the empty value consumers see before the first result:
// an empty, non-nil slice for slice types.
func zeroData[T any]() T {
	var v T
	rv := reflect.ValueOf(&v).Elem()
	if rv.Kind() == reflect.Slice {
		rv.Set(reflect.MakeSlice(rv.Type(), 0, 0))
	}
	return v
}
