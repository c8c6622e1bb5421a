package middleware // middleware contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strconv"  // numeric claim conversion
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// Context keys populated by JWTAuth for downstream handlers.
const (
    CtxUserID  = "user_id"
    CtxIsAdmin = "is_admin"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject and admin claims into the request
// context.  The provided secret must match the one used when issuing
// tokens.  Handlers behind this middleware read the authenticated user
// via c.Get(CtxUserID) (uint64) and c.Get(CtxIsAdmin) (bool).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with HS256 only; a token signed with any other
            // algorithm is rejected.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            uid, ok := subjectID(claims)
            if !ok || uid == 0 {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            isAdmin, _ := claims["admin"].(bool)

            c.Set(CtxUserID, uid)
            c.Set(CtxIsAdmin, isAdmin)
            return next(c)
        }
    }
}

// subjectID extracts the numeric user id from the sub claim.  JSON
// numbers decode as float64; some issuers encode the subject as a
// string, so both forms are accepted.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
    switch v := claims["sub"].(type) {
    case float64:
        return uint64(v), true
    case string:
        n, err := strconv.ParseUint(v, 10, 64)
        if err != nil {
            return 0, false
        }
        return n, true
    }
    return 0, false
}

// RequireAdmin returns a middleware that rejects requests whose access
// token does not carry the admin flag.  It assumes JWTAuth ran earlier
// in the chain and stored the flag in the context.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            isAdmin, ok := c.Get(CtxIsAdmin).(bool)
            if !ok || !isAdmin {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
