package application

import "errors"

var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")
var ErrBadRequest = errors.New("bad request")

// ErrRefreshInProgress is returned when a refresh is requested while another
// batch still holds the refresher.
var ErrRefreshInProgress = errors.New("refresh already in progress")
