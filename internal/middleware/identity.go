package middleware

// identity.go provides the identity lookup shared by the rate limiter and
// cache key builders. JWTAuth stores the token's subject under "user_id";
// unauthenticated requests resolve to "anon".

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated staff identifier from the
// request context. The sub claim arrives as a JSON number after parsing,
// so both string and float64 forms are handled.
func currentUserID(c echo.Context) string {
    v := c.Get("user_id")
    if v == nil {
        return "anon"
    }
    switch t := v.(type) {
    case string:
        if t != "" {
            return t
        }
    case float64:
        return strconv.FormatUint(uint64(t), 10)
    }
    return "anon"
}
