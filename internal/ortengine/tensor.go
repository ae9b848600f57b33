package ortengine

import (
	"fmt"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"sessiond/pkg/types"
)

type numeric interface {
	~float32 | ~float64 | ~int32 | ~int64
}

func castSlice[T numeric](src []float64) []T {
	out := make([]T, len(src))
	for i, v := range src {
		out[i] = T(v)
	}
	return out
}

func widen[T numeric](src []T) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}

// validateTensor checks that data and shape agree before any native allocation.
func validateTensor(name string, t types.Tensor) error {
	if len(t.Shape) == 0 {
		return fmt.Errorf("feed %q: shape is required", name)
	}
	for _, d := range t.Shape {
		if d < 0 {
			return fmt.Errorf("feed %q: negative dimension %d", name, d)
		}
	}
	n, ok := t.Elements()
	if !ok {
		return fmt.Errorf("feed %q: shape %v overflows", name, t.Shape)
	}
	if int64(len(t.Data)) != n {
		return fmt.Errorf("feed %q: shape %v needs %d elements, got %d", name, t.Shape, n, len(t.Data))
	}
	switch t.Type {
	case "", "float32", "float64", "int32", "int64":
		return nil
	default:
		return fmt.Errorf("feed %q: unsupported element type %q", name, t.Type)
	}
}

// newValue allocates a native tensor for t. The caller destroys it.
func newValue(name string, t types.Tensor) (ort.Value, error) {
	if err := validateTensor(name, t); err != nil {
		return nil, err
	}
	shape := ort.NewShape(t.Shape...)
	var (
		v   ort.Value
		err error
	)
	switch t.Type {
	case "", "float32":
		v, err = ort.NewTensor(shape, castSlice[float32](t.Data))
	case "float64":
		v, err = ort.NewTensor(shape, castSlice[float64](t.Data))
	case "int32":
		v, err = ort.NewTensor(shape, castSlice[int32](t.Data))
	case "int64":
		v, err = ort.NewTensor(shape, castSlice[int64](t.Data))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "create tensor for feed %q", name)
	}
	return v, nil
}

// fromValue copies a runtime-owned output into the API tensor form.
func fromValue(name string, v ort.Value) (types.Tensor, error) {
	switch tv := v.(type) {
	case *ort.Tensor[float32]:
		return types.Tensor{Type: "float32", Shape: append([]int64(nil), tv.GetShape()...), Data: widen(tv.GetData())}, nil
	case *ort.Tensor[float64]:
		return types.Tensor{Type: "float64", Shape: append([]int64(nil), tv.GetShape()...), Data: widen(tv.GetData())}, nil
	case *ort.Tensor[int32]:
		return types.Tensor{Type: "int32", Shape: append([]int64(nil), tv.GetShape()...), Data: widen(tv.GetData())}, nil
	case *ort.Tensor[int64]:
		return types.Tensor{Type: "int64", Shape: append([]int64(nil), tv.GetShape()...), Data: widen(tv.GetData())}, nil
	default:
		return types.Tensor{}, fmt.Errorf("output %q: unsupported value type %T", name, v)
	}
}
