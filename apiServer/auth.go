package apiServer

import (
	"crypto/subtle"
	"errors"
	"net/http"
)

// AuthFunc rejects a request by returning an error.
type AuthFunc func(r *http.Request) error

var errMissingToken = errors.New("missing or invalid X-Auth-Token")

func defaultAuth(*http.Request) error {
	return nil
}

// TokenAuth accepts requests that carry token in the X-Auth-Token header.
func TokenAuth(token string) AuthFunc {
	return func(r *http.Request) error {
		got := r.Header.Get("X-Auth-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return errMissingToken
		}
		return nil
	}
}
