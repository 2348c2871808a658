package handlers

import (
	"net/http"
	"strconv"
)

// pathID parses a numeric path segment registered as {name} in the
// route pattern.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// queryInt parses an optional integer query parameter, returning 0
// when absent or malformed.
func queryInt(r *http.Request, name string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return v
}

func queryBool(r *http.Request, name string) bool {
	return r.URL.Query().Get(name) == "true"
}
