package errors

import (
	"github.com/hashicorp/go-multierror"
)

// Flatten strips aggregate wrappers that carry exactly one cause, so a
// failure from a single logical operation surfaces as itself. Aggregates
// holding several causes are returned unchanged.
func Flatten(err error) error {
	for err != nil {
		var members []error
		switch e := err.(type) {
		case *multierror.Error:
			members = e.WrappedErrors()
		case interface{ Unwrap() []error }:
			members = e.Unwrap()
		default:
			return err
		}
		members = compact(members)
		if len(members) != 1 {
			if len(members) == 0 {
				return nil
			}
			return err
		}
		err = members[0]
	}
	return err
}

// Representative reduces an aggregate of concurrent failures to the first
// one reported, flattened.
func Representative(err error) error {
	for {
		flat := Flatten(err)
		var members []error
		switch e := flat.(type) {
		case *multierror.Error:
			members = e.WrappedErrors()
		case interface{ Unwrap() []error }:
			members = e.Unwrap()
		default:
			return flat
		}
		members = compact(members)
		if len(members) == 0 {
			return nil
		}
		err = members[0]
	}
}

func compact(errs []error) []error {
	out := errs[:0:0]
	for _, e := range errs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
