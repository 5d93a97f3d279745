package shared

import (
	"net/http"
	"strconv"
)

// Page is a limit/offset window read from ?limit= and ?offset=.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage falls back to size for a missing or malformed limit and caps it
// at maxLimit. A negative or malformed offset reads as zero.
func ParsePage(r *http.Request, size, maxLimit int) Page {
	q := r.URL.Query()
	page := Page{Limit: size}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		page.Limit = min(n, maxLimit)
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		page.Offset = n
	}
	return page
}

// SetTotal reports the unpaginated row count of a list response.
func SetTotal(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}
