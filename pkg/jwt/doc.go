// Package jwt verifies HS256 bearer tokens and returns the caller's subject.
//
// Tokens are parsed with github.com/golang-jwt/jwt/v5 restricted to HS256,
// with a small leeway for clock skew and iat validation. An optional issuer
// is both required on verification and stamped on issued tokens.
//
//	svc, err := jwt.NewFromString(os.Getenv("JWT_SIGNING_KEY"))
//	if err != nil {
//		return err
//	}
//	subject, err := svc.VerifyHeader(r.Header.Get("Authorization"))
//	if errors.Is(err, jwt.ErrInvalidToken) {
//		// reject with 401
//	}
//
// Issue exists for tooling and tests that need a valid token.
package jwt
