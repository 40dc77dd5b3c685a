package list

import (
	"errors"
)

var (
	ErrElementIsNil     = errors.New("list element is nil")
	ErrElementNotInList = errors.New("list element is not in the list")
)
