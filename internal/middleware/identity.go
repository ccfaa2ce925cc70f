package middleware

// identity.go holds the helper the rate limiter uses to key buckets by the
// authenticated user.  JWTAuth stores the raw "sub" claim, which JSON
// decoding turns into a float64, so numeric and string subjects are both
// normalised here.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userKey returns the authenticated user's id as a string, or "anon".
func userKey(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	}
	return "anon"
}
