package serialize

import (
	"context"
	"strconv"
	"strings"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pipeline"
)

// Scalar is a type ParseString can produce.
type Scalar interface {
	string | bool | int | int64 | uint64 | float64
}

// ParseString returns a Work parsing trimmed text into a T.
func ParseString[T Scalar]() pipeline.WorkFunc[string, T] {
	return func(_ context.Context, s string) (T, error) {
		return Parse[T](s)
	}
}

// Parse parses trimmed text into a T.
func Parse[T Scalar](s string) (T, error) {
	var out T
	s = strings.TrimSpace(s)
	var err error
	switch p := any(&out).(type) {
	case *string:
		*p = s
	case *bool:
		*p, err = strconv.ParseBool(s)
	case *int:
		*p, err = strconv.Atoi(s)
	case *int64:
		*p, err = strconv.ParseInt(s, 10, 64)
	case *uint64:
		*p, err = strconv.ParseUint(s, 10, 64)
	case *float64:
		*p, err = strconv.ParseFloat(s, 64)
	default:
		return out, errors.Newf(errors.CodeUnsupported, "parse into %T", out)
	}
	if err != nil {
		return out, errors.Decode("string "+strconv.Quote(s), err)
	}
	return out, nil
}
