package router

import "errors"

var (
	ErrDenied       = errors.New("navigation denied")
	ErrUnknownRoute = errors.New("unknown route")
)
