package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"tenderwatch/db"
	"tenderwatch/internal/normalize"
	"tenderwatch/models"
)

// OrgStore is the storage slice for the organization enrichment feed.
type OrgStore interface {
	GetOrganizationByName(ctx context.Context, name string) (*models.Organization, error)
	GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error)
	CreateOrganization(ctx context.Context, o *models.Organization) error
	UpdateOrganizationFields(ctx context.Context, id int64, u *db.OrganizationUpdate) error
	GetCountryByName(ctx context.Context, name string) (*models.Country, error)
	CreateIngestError(ctx context.Context, e *models.IngestError) error
}

// OrganizationPipeline enriches contracting institutions with the
// profile data the organization scraper collects (contact details, tax
// id, activity).
type OrganizationPipeline struct {
	store OrgStore
}

func NewOrganizationPipeline(store OrgStore) *OrganizationPipeline {
	return &OrganizationPipeline{store: store}
}

const orgSourceName = "Organizaciones"

func (p *OrganizationPipeline) Process(ctx context.Context, raw *RawOrganizationPayload) (*Result, error) {
	body, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	if raw.SourceURL == "" {
		p.recordError(ctx, "payload without sourceUrl", body)
		return &Result{Outcome: OutcomeRejected, Reason: ReasonMissingSourceURL}, nil
	}

	existing, err := p.store.GetOrganizationByName(ctx, raw.Name)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("lookup organization %q: %w", raw.Name, err)
	}
	if existing != nil {
		if err := p.enrich(ctx, existing, raw); err != nil {
			p.recordError(ctx, err.Error(), body)
			return nil, err
		}
		return &Result{Outcome: OutcomeUpdated}, nil
	}

	org := &models.Organization{
		Slug:       normalize.Slugify(raw.Name),
		Name:       raw.Name,
		PlayerType: models.PlayerContractingInstitution,
		Language:   normalizeLanguage(raw.Languages),
		Email:      raw.Email,
		TaxID:      raw.NIF,
		WebURL:     raw.WebURL,
		Activity:   raw.Activity,
		Town:       raw.Town,
		Street:     raw.Street,
		PostalCode: raw.PostalCode,
		Phone:      withPrefix(raw.Prefix, raw.Phone),
		Fax:        withPrefix(raw.Prefix, raw.Fax),
	}
	if raw.Country != "" {
		country, err := p.store.GetCountryByName(ctx, raw.Country)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("lookup country %q: %w", raw.Country, err)
		}
		if country != nil {
			org.CountryID = &country.ID
		}
	}

	err = p.store.CreateOrganization(ctx, org)
	if err == nil {
		return &Result{Outcome: OutcomeCreated}, nil
	}
	if !errors.Is(err, db.ErrDuplicate) {
		p.recordError(ctx, err.Error(), body)
		return nil, fmt.Errorf("create organization %q: %w", raw.Name, err)
	}

	// A tender delivery created this organization concurrently; enrich
	// the winner's row instead.
	winner, err := p.store.GetOrganizationBySlug(ctx, org.Slug)
	if err != nil {
		return nil, fmt.Errorf("re-read after duplicate create: %w", err)
	}
	if err := p.enrich(ctx, winner, raw); err != nil {
		p.recordError(ctx, err.Error(), body)
		return nil, err
	}
	return &Result{Outcome: OutcomeUpdated}, nil
}

// enrich applies the sparse profile patch: empty payload fields never
// clear stored values.
func (p *OrganizationPipeline) enrich(ctx context.Context, org *models.Organization, raw *RawOrganizationPayload) error {
	u := &db.OrganizationUpdate{}
	setStr := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	setStr(&u.PlayerType, raw.PlayerType)
	setStr(&u.Language, normalizeLanguage(raw.Languages))
	setStr(&u.Email, raw.Email)
	setStr(&u.TaxID, raw.NIF)
	setStr(&u.WebURL, raw.WebURL)
	setStr(&u.Activity, raw.Activity)
	setStr(&u.Town, raw.Town)
	setStr(&u.Street, raw.Street)
	setStr(&u.PostalCode, raw.PostalCode)
	setStr(&u.Phone, withPrefix(raw.Prefix, raw.Phone))
	setStr(&u.Fax, withPrefix(raw.Prefix, raw.Fax))

	if raw.Country != "" {
		country, err := p.store.GetCountryByName(ctx, raw.Country)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("lookup country %q: %w", raw.Country, err)
		}
		if country != nil {
			u.CountryID = &country.ID
		}
	}

	if err := p.store.UpdateOrganizationFields(ctx, org.ID, u); err != nil {
		return fmt.Errorf("enrich organization %d: %w", org.ID, err)
	}
	return nil
}

func (p *OrganizationPipeline) recordError(ctx context.Context, message string, payload []byte) {
	e := &models.IngestError{
		ID:      uuid.NewString(),
		Source:  orgSourceName,
		Message: message,
		Payload: string(payload),
	}
	if err := p.store.CreateIngestError(ctx, e); err != nil {
		log.Printf("record ingest error for %s: %v", orgSourceName, err)
	}
}

// The organization feed reports the language in Spanish.
func normalizeLanguage(s string) string {
	if s == "Español" {
		return "Spanish"
	}
	return s
}

func withPrefix(prefix, number string) string {
	if number == "" {
		return ""
	}
	return prefix + number
}
