// Package taxonomy resolves free-text codes and names coming from the
// scrapers to canonical reference entities: CPV codes, organizations,
// countries and currencies.
package taxonomy

import (
	"context"
	"errors"
	"strings"

	"tenderwatch/db"
	"tenderwatch/internal/normalize"
	"tenderwatch/models"
)

// junkOrganizationName is an artifact of malformed source HTML meaning
// "see award detail"; it must never become an organization.
const junkOrganizationName = "Ver detalle de la adjudicación"

// Store is the slice of storage the resolver needs.
type Store interface {
	FindCpvByCodes(ctx context.Context, codes []string) ([]models.Cpv, error)
	GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error)
	CreateOrganization(ctx context.Context, o *models.Organization) error
	GetCountryByCode(ctx context.Context, code string) (*models.Country, error)
	GetCurrencyByName(ctx context.Context, name string) (*models.Currency, error)
}

type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveCpvCodes looks up each code against the taxonomy store. Codes
// with no match are silently dropped, not an error.
func (r *Resolver) ResolveCpvCodes(ctx context.Context, codes []string) ([]models.Cpv, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	return r.store.FindCpvByCodes(ctx, codes)
}

// ResolveOrganization finds or creates an organization by the slug of
// its display name. Returns (nil, nil) for an empty name or the junk
// sentinel. Idempotent under races: a unique-slug violation means
// another writer won, so the winner's row is re-read and returned.
func (r *Resolver) ResolveOrganization(ctx context.Context, name, playerType string) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == junkOrganizationName {
		return nil, nil
	}

	slug := normalize.Slugify(name)
	org, err := r.store.GetOrganizationBySlug(ctx, slug)
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	org = &models.Organization{
		Slug:       slug,
		Name:       name,
		PlayerType: playerType,
	}
	err = r.store.CreateOrganization(ctx, org)
	if err == nil {
		return org, nil
	}
	if errors.Is(err, db.ErrDuplicate) {
		return r.store.GetOrganizationBySlug(ctx, slug)
	}
	return nil, err
}

// ResolveCountryByCode is a lookup-or-nil over seeded reference data.
func (r *Resolver) ResolveCountryByCode(ctx context.Context, code string) (*models.Country, error) {
	if code == "" {
		return nil, nil
	}
	c, err := r.store.GetCountryByCode(ctx, code)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// ResolveCurrencyByName is a lookup-or-nil over seeded reference data.
func (r *Resolver) ResolveCurrencyByName(ctx context.Context, name string) (*models.Currency, error) {
	if name == "" {
		return nil, nil
	}
	c, err := r.store.GetCurrencyByName(ctx, name)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	return c, err
}
