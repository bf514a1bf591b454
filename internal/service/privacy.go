package service

import (
	"context"

	"github.com/d60-Lab/relation-engine/internal/repository"
)

// PrivacyPolicyResolver answers whether an account's follow edges need approval.
type PrivacyPolicyResolver interface {
	IsGated(ctx context.Context, accountID string) (bool, error)
}

type privacyResolver struct {
	accounts repository.AccountRepository
}

// NewPrivacyResolver reads through the given repository, so passing a
// transaction-bound one keeps the decision inside that transaction.
func NewPrivacyResolver(accounts repository.AccountRepository) PrivacyPolicyResolver {
	return &privacyResolver{accounts: accounts}
}

func (r *privacyResolver) IsGated(ctx context.Context, accountID string) (bool, error) {
	acc, err := r.accounts.Get(ctx, accountID)
	if err != nil {
		return false, mapNotFound(err, "account", accountID)
	}
	return acc.IsGated(), nil
}
