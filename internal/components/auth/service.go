package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/andrasnagy-data/gatehouse/internal/components/account"
	"github.com/andrasnagy-data/gatehouse/internal/shared/password"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingField       = errors.New("username and password are required")
)

type (
	// AccountStore is the slice of the account repo the handlers need.
	AccountStore interface {
		Create(ctx context.Context, in account.CreateAccountIn) (account.CreateResult, error)
		FindByUsername(ctx context.Context, username string) (*account.Account, error)
	}

	Service struct {
		accounts AccountStore
		hasher   password.Hasher
		// decoy is verified against when the username is unknown so both
		// rejection paths do the same work.
		decoy string
	}
)

func NewService(accounts AccountStore, hasher password.Hasher) (*Service, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	decoy, err := hasher.Hash(hex.EncodeToString(buf))
	if err != nil {
		return nil, err
	}
	return &Service{accounts: accounts, hasher: hasher, decoy: decoy}, nil
}

// Register hashes the password and creates the account. A taken username is
// reported through the result's Outcome, not as an error.
func (s *Service) Register(ctx context.Context, in RegisterIn) (account.CreateResult, error) {
	if in.Username == "" || in.Password == "" {
		return account.CreateResult{}, ErrMissingField
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return account.CreateResult{Outcome: account.InfraError}, err
	}

	return s.accounts.Create(ctx, account.CreateAccountIn{
		Username:     in.Username,
		PasswordHash: digest,
		Name:         in.Name,
		Email:        in.Email,
	})
}

// Login returns the account when the credentials match. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginIn) (*account.Account, error) {
	acc, err := s.accounts.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}

	if acc == nil {
		s.hasher.Verify(s.decoy, in.Password)
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(acc.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	return acc, nil
}
