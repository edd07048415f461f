package onboarding

import (
	"context"
	"fmt"
	"strings"

	"github.com/avolkov/stallpoints/internal/apperrors"
	"github.com/avolkov/stallpoints/internal/models"
	"github.com/avolkov/stallpoints/internal/repository"
)

const (
	defaultCustomerStartBalance = 500
	defaultMerchantEmailPrefix  = "stall."
)

// Onboarding policy with sensible defaults
type Config struct {
	// Starting balance of a freshly onboarded customer
	// If not set the default is used
	CustomerStartBalance int64

	// Email local-part prefix marking merchant identities, e.g. 'stall.'
	// Used only when the identity carries no explicit role claim
	MerchantEmailPrefix string
}

// Service decides role and starting balance for never-seen identities and
// creates their account records. The stored role stays authoritative forever.
type Service struct {
	customerStartBalance int64
	merchantEmailPrefix  string

	storage repository.Storage
}

func NewService(cfg Config, storage repository.Storage) *Service {
	if cfg.CustomerStartBalance == 0 {
		cfg.CustomerStartBalance = defaultCustomerStartBalance
	}
	if cfg.MerchantEmailPrefix == "" {
		cfg.MerchantEmailPrefix = defaultMerchantEmailPrefix
	}

	return &Service{
		customerStartBalance: cfg.CustomerStartBalance,
		merchantEmailPrefix:  cfg.MerchantEmailPrefix,
		storage:              storage,
	}
}

// Onboard returns the account for the verified identity, creating it with the
// policy's role and starting balance on first sight. A role claim that
// disagrees with the stored role is rejected with apperrors.ErrRoleMismatch,
// never silently accepted or overwritten.
func (s *Service) Onboard(ctx context.Context, identity models.Identity) (models.Account, error) {
	var account models.Account

	role, balance, err := s.Resolve(identity.Email, identity.ClaimedRole)
	if err != nil {
		return account, err
	}

	account, err = s.storage.Account().CreateIfAbsent(ctx, identity.Subject, role, balance)
	if err != nil {
		return account, fmt.Errorf("can't onboard account. Err: %w", err)
	}

	if identity.ClaimedRole != "" && account.Role != identity.ClaimedRole {
		return models.Account{}, apperrors.ErrRoleMismatch
	}

	return account, nil
}

// Resolve maps the raw identity signal and an optional role claim to the role
// and starting balance a new account would get. An explicit claim wins over
// signal inference.
func (s *Service) Resolve(rawSignal string, claimedRole string) (role string, startBalance int64, err error) {
	switch {
	case claimedRole != "":
		if !models.ValidRole(claimedRole) {
			return "", 0, fmt.Errorf("%w: unknown role %q", apperrors.ErrIdentityRejected, claimedRole)
		}
		role = claimedRole
	default:
		role = s.inferRole(rawSignal)
	}

	startBalance = s.customerStartBalance
	if role == models.RoleMerchant {
		startBalance = 0
	}

	return role, startBalance, nil
}

func (s *Service) inferRole(rawSignal string) string {
	if strings.HasPrefix(strings.ToLower(rawSignal), s.merchantEmailPrefix) {
		return models.RoleMerchant
	}

	return models.RoleCustomer
}
