package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/haulage/httpx"
)

// pathID parses the {name} path value as a positive id, answering 400 when it
// is not one.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 0)
	if err != nil || n == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", map[string]string{"param": name})
		return 0, false
	}
	return uint(n), true
}

func queryUint(r *http.Request, key string) uint {
	n, err := strconv.ParseUint(r.URL.Query().Get(key), 10, 0)
	if err != nil {
		return 0
	}
	return uint(n)
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
