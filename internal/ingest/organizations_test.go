package ingest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tenderwatch/db"
	"tenderwatch/internal/ingest"
	"tenderwatch/models"
)

type mockOrgStore struct {
	byName  map[string]*models.Organization
	bySlug  map[string]*models.Organization
	nextID  int64
	patches map[int64]*db.OrganizationUpdate
	errors  []models.IngestError
}

func newMockOrgStore() *mockOrgStore {
	return &mockOrgStore{
		byName:  map[string]*models.Organization{},
		bySlug:  map[string]*models.Organization{},
		patches: map[int64]*db.OrganizationUpdate{},
	}
}

func (m *mockOrgStore) GetOrganizationByName(ctx context.Context, name string) (*models.Organization, error) {
	if o, ok := m.byName[name]; ok {
		return o, nil
	}
	return nil, db.ErrNotFound
}

func (m *mockOrgStore) GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	if o, ok := m.bySlug[slug]; ok {
		return o, nil
	}
	return nil, db.ErrNotFound
}

func (m *mockOrgStore) CreateOrganization(ctx context.Context, o *models.Organization) error {
	if _, ok := m.bySlug[o.Slug]; ok {
		return db.ErrDuplicate
	}
	m.nextID++
	o.ID = m.nextID
	m.byName[o.Name] = o
	m.bySlug[o.Slug] = o
	return nil
}

func (m *mockOrgStore) UpdateOrganizationFields(ctx context.Context, id int64, u *db.OrganizationUpdate) error {
	m.patches[id] = u
	return nil
}

func (m *mockOrgStore) GetCountryByName(ctx context.Context, name string) (*models.Country, error) {
	if name == "Spain" {
		return &models.Country{ID: 1, Code: "ES", Name: "Spain"}, nil
	}
	return nil, db.ErrNotFound
}

func (m *mockOrgStore) CreateIngestError(ctx context.Context, e *models.IngestError) error {
	m.errors = append(m.errors, *e)
	return nil
}

func orgPayload() *ingest.RawOrganizationPayload {
	return &ingest.RawOrganizationPayload{
		Name:      "Ayuntamiento de Alcalá",
		Country:   "Spain",
		Languages: "Español",
		Email:     "contratacion@alcala.es",
		NIF:       "P2800500H",
		Prefix:    "+34",
		Phone:     "918888888",
		SourceURL: "https://contrataciondelestado.es/org-1",
	}
}

func TestOrganizationCreate(t *testing.T) {
	store := newMockOrgStore()
	p := ingest.NewOrganizationPipeline(store)

	res, err := p.Process(context.Background(), orgPayload())
	require.NoError(t, err)
	require.Equal(t, ingest.OutcomeCreated, res.Outcome)

	org := store.byName["Ayuntamiento de Alcalá"]
	require.NotNil(t, org)
	require.Equal(t, "ayuntamiento-de-alcala", org.Slug)
	require.Equal(t, "Spanish", org.Language)
	require.Equal(t, "+34918888888", org.Phone)
	require.Equal(t, "", org.Fax, "prefix is not applied to an empty number")
	require.NotNil(t, org.CountryID)
}

func TestOrganizationEnrichExisting(t *testing.T) {
	store := newMockOrgStore()
	existing := &models.Organization{ID: 3, Slug: "ayuntamiento-de-alcala", Name: "Ayuntamiento de Alcalá"}
	store.byName[existing.Name] = existing
	store.bySlug[existing.Slug] = existing
	p := ingest.NewOrganizationPipeline(store)

	res, err := p.Process(context.Background(), orgPayload())
	require.NoError(t, err)
	require.Equal(t, ingest.OutcomeUpdated, res.Outcome)

	patch := store.patches[3]
	require.NotNil(t, patch)
	require.NotNil(t, patch.Email)
	require.Equal(t, "contratacion@alcala.es", *patch.Email)
	require.Nil(t, patch.Fax, "absent fields stay untouched")
}

func TestOrganizationMissingSourceURL(t *testing.T) {
	store := newMockOrgStore()
	p := ingest.NewOrganizationPipeline(store)

	payload := orgPayload()
	payload.SourceURL = ""
	res, err := p.Process(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, ingest.OutcomeRejected, res.Outcome)
	require.Len(t, store.errors, 1)
}
