package utils

import (
	"os"
	"strings"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

const optionalUserKey = "optionalUser"

// UserIDFromTokenMiddleware extracts user ID from JWT token and stores it in context
// Use this for routes that don't have {id} parameter in URL
func UserIDFromTokenMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

// AdminOnlyMiddleware ensures the requester has the admin role
func AdminOnlyMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	if claims.Role != "admin" {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"error": "forbidden", "message": "admin access required"})
		return
	}
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

// OptionalUserMiddleware verifies a bearer token when one is present but lets
// anonymous requests through. The plan-view and share-token routes serve both
// signed-in and anonymous callers; a malformed token is treated as anonymous
// rather than rejected, so a stale client still sees public content.
func OptionalUserMiddleware(ctx iris.Context) {
	header := ctx.GetHeader("Authorization")
	if header == "" {
		ctx.Next()
		return
	}

	raw := strings.TrimPrefix(header, "Bearer ")
	verifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	verifiedToken, err := verifier.VerifyToken([]byte(raw))
	if err != nil {
		ctx.Next()
		return
	}

	var claims AccessToken
	if err := verifiedToken.Claims(&claims); err == nil {
		ctx.Values().Set(optionalUserKey, &claims)
	}
	ctx.Next()
}

// GetOptionalUser returns the claims stored by OptionalUserMiddleware, or nil
// for an anonymous caller.
func GetOptionalUser(ctx iris.Context) *AccessToken {
	if v := ctx.Values().Get(optionalUserKey); v != nil {
		if claims, ok := v.(*AccessToken); ok {
			return claims
		}
	}
	return nil
}
