package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/cvision/internal/auth/domain"
	"github.com/aussiebroadwan/cvision/internal/auth/store"
	"github.com/aussiebroadwan/cvision/pkg/cryptox"
	"github.com/aussiebroadwan/cvision/pkg/jwtx"
	"github.com/aussiebroadwan/cvision/pkg/slogx"
)

// LoginResult carries the tokens minted for a successful login. The HTTP
// layer puts Session in the body and Refresh in the cookie.
type LoginResult struct {
	Account domain.Account
	Session jwtx.IssuedToken
	Refresh jwtx.IssuedToken
}

// SessionService authenticates email and password pairs.
type SessionService struct {
	Accounts store.Accounts
	Hasher   PasswordHasher
	Tokens   TokenIssuer

	dummyMu   sync.Mutex
	dummyHash string
}

// fallbackDummyHash is verified while the live hasher cannot produce a dummy
// hash. It carries cryptox.DefaultArgon2Params so the work matches a real check.
const fallbackDummyHash = "$argon2id$v=19$m=19456,t=2,p=1$" +
	"AAAAAAAAAAAAAAAAAAAAAA$" +
	"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Login returns ErrInvalidCredentials for both an unknown email and a wrong
// password, and spends one hash verification on either path.
func (s *SessionService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	log := slogx.FromContext(ctx).With(slog.String("email", email))

	// 1. Find the active account
	account, err := s.Accounts.GetActiveAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.Hasher.Verify(password, s.dummy(log))
			log.Info("login failed", slog.String("reason", "unknown email"))
			return LoginResult{}, ErrInvalidCredentials
		}
		log.Error("failed to look up account", slog.Any("error", err))
		return LoginResult{}, fmt.Errorf("lookup account: %w", err)
	}

	// 2. Check the password
	if err := s.Hasher.Verify(password, account.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Error("stored password hash unusable", slog.String("user_id", account.ID), slog.Any("error", err))
		}
		log.Info("login failed", slog.String("reason", "wrong password"))
		return LoginResult{}, ErrInvalidCredentials
	}

	// 3. Mint both tokens
	id := jwtx.Identity{UserID: account.ID, Email: account.Email}

	sessionTok, err := s.Tokens.Issue(id, jwtx.ClassSession)
	if err != nil {
		log.Error("failed to issue session token", slog.Any("error", err))
		return LoginResult{}, fmt.Errorf("issue session token: %w", err)
	}
	refreshTok, err := s.Tokens.Issue(id, jwtx.ClassRefresh)
	if err != nil {
		log.Error("failed to issue refresh token", slog.Any("error", err))
		return LoginResult{}, fmt.Errorf("issue refresh token: %w", err)
	}

	log.Info("login succeeded", slog.String("user_id", account.ID))
	return LoginResult{Account: account, Session: sessionTok, Refresh: refreshTok}, nil
}

// dummy returns a hash of a throwaway password made with the live hasher,
// so verifying against it costs the same as a real check. A failed attempt
// is retried on the next unknown email.
func (s *SessionService) dummy(log *slog.Logger) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash != "" {
		return s.dummyHash
	}

	tok, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		tok = "cvision-dummy-password"
	}
	hash, err := s.Hasher.Hash(tok)
	if err != nil {
		log.Error("failed to compute dummy password hash", slog.Any("error", err))
		return fallbackDummyHash
	}

	s.dummyHash = hash
	return hash
}
