package utils

import (
	"golang.org/x/exp/constraints"
)

// SetDefaultNum sets *p to d if *p is zero.
func SetDefaultNum[T constraints.Integer | constraints.Float](p *T, d T) {
	if *p == 0 {
		*p = d
	}
}

// SetDefaultString sets *p to d if *p is empty.
func SetDefaultString(p *string, d string) {
	if len(*p) == 0 {
		*p = d
	}
}
