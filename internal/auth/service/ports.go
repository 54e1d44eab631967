package service

import "github.com/aussiebroadwan/cvision/pkg/jwtx"

// PasswordHasher derives and checks password hashes. *cryptox.PasswordHasher
// satisfies it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// TokenIssuer mints class-bound tokens. *jwtx.Issuer satisfies it.
type TokenIssuer interface {
	Issue(id jwtx.Identity, class jwtx.TokenClass) (jwtx.IssuedToken, error)
}
