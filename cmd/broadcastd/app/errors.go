package app

import (
	"errors"
	"net/http"

	"github.com/onairstack/broadcastcore/pkg/berrors"
)

var errUnknownChannel = errors.New("unknown channel")

// writeAPIError maps a pkg/berrors sentinel (or an unrecognized-channel
// error) to an HTTP status and writes a small JSON error body. Anything
// not recognized here is a corruption-class condition and is
// reported as 500 without leaking internals beyond the error string.
func writeAPIError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errUnknownChannel), errors.Is(err, berrors.ErrNotFound), errors.Is(err, berrors.ErrPlaylogGap):
		status = http.StatusNotFound
	case errors.Is(err, berrors.ErrFrozenDay):
		status = http.StatusConflict
	case errors.Is(err, berrors.ErrNaiveInput):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}
