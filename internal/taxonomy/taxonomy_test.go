package taxonomy_test

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"tenderwatch/db"
	"tenderwatch/internal/normalize"
	"tenderwatch/internal/taxonomy"
	"tenderwatch/models"
)

// MockStore implements taxonomy.Store in memory.
type MockStore struct {
	cpvs          map[string]models.Cpv
	orgs          map[string]*models.Organization
	nextOrgID     int64
	createErr     error
	createCalls   int
	duplicateOnce bool
}

func newMockStore() *MockStore {
	return &MockStore{
		cpvs: map[string]models.Cpv{},
		orgs: map[string]*models.Organization{},
	}
}

func (m *MockStore) FindCpvByCodes(ctx context.Context, codes []string) ([]models.Cpv, error) {
	var out []models.Cpv
	for _, code := range codes {
		if cpv, ok := m.cpvs[code]; ok {
			out = append(out, cpv)
		}
	}
	return out, nil
}

func (m *MockStore) GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	if o, ok := m.orgs[slug]; ok {
		return o, nil
	}
	return nil, db.ErrNotFound
}

func (m *MockStore) CreateOrganization(ctx context.Context, o *models.Organization) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	if m.duplicateOnce {
		// Simulate losing a race: another writer inserted this slug
		// between our lookup and our insert.
		m.duplicateOnce = false
		m.orgs[o.Slug] = &models.Organization{ID: 99, Slug: o.Slug, Name: o.Name, PlayerType: o.PlayerType}
		return db.ErrDuplicate
	}
	if _, ok := m.orgs[o.Slug]; ok {
		return db.ErrDuplicate
	}
	m.nextOrgID++
	o.ID = m.nextOrgID
	m.orgs[o.Slug] = o
	return nil
}

func (m *MockStore) GetCountryByCode(ctx context.Context, code string) (*models.Country, error) {
	if code == "ES" {
		return &models.Country{ID: 1, Code: "ES", Name: "Spain"}, nil
	}
	return nil, db.ErrNotFound
}

func (m *MockStore) GetCurrencyByName(ctx context.Context, name string) (*models.Currency, error) {
	if name == "Euro" {
		return &models.Currency{ID: 1, Code: "EUR", Name: "Euro"}, nil
	}
	return nil, db.ErrNotFound
}

func TestResolveCpvCodesDropsUnknown(t *testing.T) {
	store := newMockStore()
	store.cpvs["45000000"] = models.Cpv{ID: 1, Code: "45000000"}
	r := taxonomy.NewResolver(store)

	cpvs, err := r.ResolveCpvCodes(context.Background(), []string{"45000000", "99999999"})
	require.NoError(t, err)
	require.Len(t, cpvs, 1)
	require.Equal(t, "45000000", cpvs[0].Code)
}

func TestResolveOrganizationFindOrCreate(t *testing.T) {
	store := newMockStore()
	r := taxonomy.NewResolver(store)
	ctx := context.Background()

	org, err := r.ResolveOrganization(ctx, "Ayuntamiento de Alcalá", models.PlayerContractingInstitution)
	require.NoError(t, err)
	require.NotNil(t, org)
	require.Equal(t, "ayuntamiento-de-alcala", org.Slug)

	// Identical input name must not create a second record.
	again, err := r.ResolveOrganization(ctx, "Ayuntamiento de Alcalá", models.PlayerContractingInstitution)
	require.NoError(t, err)
	require.Equal(t, org.ID, again.ID)
	require.Equal(t, 1, store.createCalls)
}

func TestResolveOrganizationJunkAndEmpty(t *testing.T) {
	store := newMockStore()
	r := taxonomy.NewResolver(store)
	ctx := context.Background()

	org, err := r.ResolveOrganization(ctx, "", models.PlayerBidder)
	require.NoError(t, err)
	require.Nil(t, org)

	org, err = r.ResolveOrganization(ctx, "Ver detalle de la adjudicación", models.PlayerBidder)
	require.NoError(t, err)
	require.Nil(t, org)
	require.Zero(t, store.createCalls)
}

func TestResolveOrganizationRaceLoser(t *testing.T) {
	store := newMockStore()
	store.duplicateOnce = true
	r := taxonomy.NewResolver(store)

	org, err := r.ResolveOrganization(context.Background(), "Diputación de Sevilla", models.PlayerContractingInstitution)
	require.NoError(t, err)
	require.NotNil(t, org)
	require.Equal(t, int64(99), org.ID, "loser must adopt the winner's row")
}

func TestResolveOrganizationSlugStability(t *testing.T) {
	store := newMockStore()
	r := taxonomy.NewResolver(store)
	ctx := context.Background()

	gofakeit.Seed(11)
	for i := 0; i < 20; i++ {
		name := gofakeit.Company() + " " + gofakeit.City()
		org, err := r.ResolveOrganization(ctx, name, models.PlayerBidder)
		require.NoError(t, err)
		require.NotNil(t, org)
		require.Equal(t, normalize.Slugify(name), org.Slug)

		again, err := r.ResolveOrganization(ctx, name, models.PlayerBidder)
		require.NoError(t, err)
		require.Equal(t, org.ID, again.ID)
	}
}

func TestResolveCountryAndCurrency(t *testing.T) {
	r := taxonomy.NewResolver(newMockStore())
	ctx := context.Background()

	country, err := r.ResolveCountryByCode(ctx, "ES")
	require.NoError(t, err)
	require.Equal(t, "Spain", country.Name)

	country, err = r.ResolveCountryByCode(ctx, "XX")
	require.NoError(t, err)
	require.Nil(t, country)

	currency, err := r.ResolveCurrencyByName(ctx, "Euro")
	require.NoError(t, err)
	require.Equal(t, "EUR", currency.Code)

	currency, err = r.ResolveCurrencyByName(ctx, "")
	require.NoError(t, err)
	require.Nil(t, currency)
}
