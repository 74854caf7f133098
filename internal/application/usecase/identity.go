package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/waste3d/learning-platform/internal/domain"
)

// IdentityResolver turns a bearer token into a Principal.
type IdentityResolver struct {
	verifier CredentialVerifier
	accounts AccountStore
	now      func() time.Time
}

func NewIdentityResolver(v CredentialVerifier, accounts AccountStore) *IdentityResolver {
	return &IdentityResolver{verifier: v, accounts: accounts, now: time.Now}
}

// Resolve fails with ErrUnauthenticated for a missing, invalid or expired
// token and for accounts that no longer exist, and with ErrEmailNotVerified
// for accounts that have not confirmed their address. Disabled accounts do
// resolve; the policy engine denies them.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated)
	}

	accountID, expiresAt, err := r.verifier.Verify(token)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if !expiresAt.IsZero() && !expiresAt.After(r.now()) {
		return domain.Principal{}, fmt.Errorf("%w: credential expired", domain.ErrUnauthenticated)
	}

	user, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Principal{}, fmt.Errorf("%w: account no longer exists", domain.ErrUnauthenticated)
		}
		return domain.Principal{}, err
	}
	if !user.EmailVerified {
		return domain.Principal{}, domain.ErrEmailNotVerified
	}
	return user.Principal(), nil
}
