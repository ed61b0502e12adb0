package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tenderwatch/db"
	"tenderwatch/internal/reconcile"
	"tenderwatch/models"
)

type MockStore struct {
	sources     []models.SourceAttribution
	lastPatch   *db.TenderUpdate
	updateCalls int
	tender      *models.Tender
}

func (m *MockStore) AddTenderSource(ctx context.Context, src *models.SourceAttribution) error {
	m.sources = append(m.sources, *src)
	return nil
}

func (m *MockStore) UpdateTenderFields(ctx context.Context, id int64, u *db.TenderUpdate) (*models.Tender, error) {
	m.updateCalls++
	m.lastPatch = u
	out := *m.tender
	if u.Name != nil {
		out.Name = *u.Name
	}
	if u.Status != nil {
		out.Status = *u.Status
	}
	if u.BudgetNoTaxes != nil {
		out.BudgetNoTaxes = u.BudgetNoTaxes
	}
	if u.ExpedientUpdatedAt != nil {
		out.ExpedientUpdatedAt = u.ExpedientUpdatedAt
	}
	if u.SuccessBidderOrganizationID != nil {
		out.SuccessBidderOrganizationID = u.SuccessBidderOrganizationID
	}
	if u.IsAdjudication != nil {
		out.IsAdjudication = *u.IsAdjudication
	}
	if u.IsMinorContract != nil {
		out.IsMinorContract = *u.IsMinorContract
	}
	return &out, nil
}

type MockOrgs struct {
	err   error
	calls int
}

func (m *MockOrgs) ResolveOrganization(ctx context.Context, name, playerType string) (*models.Organization, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &models.Organization{ID: 7, Name: name, PlayerType: playerType}, nil
}

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func storedTender(store *MockStore) *models.Tender {
	budget := 500.0
	t := &models.Tender{
		ID:                 1,
		Expedient:          "EXP-2023-001",
		Name:               "Suministro de papel",
		Status:             "Publicada",
		BudgetNoTaxes:      &budget,
		ExpedientUpdatedAt: ts("2023-03-05T10:00:00Z"),
		Sources: []models.SourceAttribution{
			{TenderID: 1, Name: "Contratos Menores"},
		},
	}
	store.tender = t
	return t
}

func strptr(s string) *string { return &s }

func TestStaleUpdateIsAttributionOnly(t *testing.T) {
	store := &MockStore{}
	tender := storedTender(store)
	engine := reconcile.NewEngine(store, &MockOrgs{})

	newName := "Nombre distinto"
	got, applied, err := engine.Apply(context.Background(), tender, &reconcile.Update{
		Attribution:        models.SourceAttribution{Name: "Boletín Oficial del Estado"},
		ExpedientUpdatedAt: ts("2023-03-01T10:00:00Z"),
		Name:               &newName,
	})
	require.NoError(t, err)
	require.False(t, applied)
	require.Equal(t, "Suministro de papel", got.Name)
	require.Zero(t, store.updateCalls)
	require.Len(t, store.sources, 1)
	require.Equal(t, "Boletín Oficial del Estado", store.sources[0].Name)
}

func TestAttributionIdempotentPerSource(t *testing.T) {
	store := &MockStore{}
	tender := storedTender(store)
	engine := reconcile.NewEngine(store, &MockOrgs{})

	_, _, err := engine.Apply(context.Background(), tender, &reconcile.Update{
		Attribution:        models.SourceAttribution{Name: "Contratos Menores"},
		ExpedientUpdatedAt: ts("2023-03-01T10:00:00Z"),
	})
	require.NoError(t, err)
	require.Empty(t, store.sources, "existing attribution must not be re-added")
}

func TestFreshUpdateAppliesSparseMerge(t *testing.T) {
	store := &MockStore{}
	tender := storedTender(store)
	engine := reconcile.NewEngine(store, &MockOrgs{})

	got, applied, err := engine.Apply(context.Background(), tender, &reconcile.Update{
		Attribution:        models.SourceAttribution{Name: "Contratos Menores"},
		ExpedientUpdatedAt: ts("2023-03-10T10:00:00Z"),
		Name:               strptr("Suministro de papel A4"),
	})
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, "Suministro de papel A4", got.Name)

	// Omitted budget must never clear the stored value.
	require.Nil(t, store.lastPatch.BudgetNoTaxes)
	require.NotNil(t, got.BudgetNoTaxes)
	require.Equal(t, 500.0, *got.BudgetNoTaxes)
}

func TestAdjudicationRecomputedFromMergedStatus(t *testing.T) {
	store := &MockStore{}
	tender := storedTender(store)
	engine := reconcile.NewEngine(store, &MockOrgs{})

	got, applied, err := engine.Apply(context.Background(), tender, &reconcile.Update{
		Attribution:        models.SourceAttribution{Name: "Contratos Menores"},
		ExpedientUpdatedAt: ts("2023-03-10T10:00:00Z"),
		Status:             strptr(models.StatusAdjudicated),
	})
	require.NoError(t, err)
	require.True(t, applied)
	require.True(t, got.IsAdjudication)

	// A later payload without a status keeps the stored status and the
	// derived flag follows it.
	store.tender = got
	got2, applied, err := engine.Apply(context.Background(), got, &reconcile.Update{
		Attribution:        models.SourceAttribution{Name: "Contratos Menores"},
		ExpedientUpdatedAt: ts("2023-03-11T10:00:00Z"),
	})
	require.NoError(t, err)
	require.True(t, applied)
	require.True(t, got2.IsAdjudication)
}

func TestSuccessBidderFirstWriterWins(t *testing.T) {
	store := &MockStore{}
	tender := storedTender(store)
	orgs := &MockOrgs{}
	engine := reconcile.NewEngine(store, orgs)

	got, applied, err := engine.Apply(context.Background(), tender, &reconcile.Update{
		Attribution:        models.SourceAttribution{Name: "Contratos Menores"},
		ExpedientUpdatedAt: ts("2023-03-10T10:00:00Z"),
		SuccessBidderName:  "Construcciones Pérez SL",
	})
	require.NoError(t, err)
	require.True(t, applied)
	require.NotNil(t, got.SuccessBidderOrganizationID)
	require.Equal(t, int64(7), *got.SuccessBidderOrganizationID)
	require.Equal(t, 1, orgs.calls)

	// Award information, once set, is not overwritten.
	store.tender = got
	got2, applied, err := engine.Apply(context.Background(), got, &reconcile.Update{
		Attribution:        models.SourceAttribution{Name: "Contratos Menores"},
		ExpedientUpdatedAt: ts("2023-03-12T10:00:00Z"),
		SuccessBidderName:  "Otra Empresa SA",
	})
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, int64(7), *got2.SuccessBidderOrganizationID)
	require.Equal(t, 1, orgs.calls, "no second resolution attempt")
}

func TestResolutionFailureAbortsWithoutPartialWrite(t *testing.T) {
	store := &MockStore{}
	tender := storedTender(store)
	orgs := &MockOrgs{err: errors.New("taxonomy store down")}
	engine := reconcile.NewEngine(store, orgs)

	_, applied, err := engine.Apply(context.Background(), tender, &reconcile.Update{
		Attribution:        models.SourceAttribution{Name: "Contratos Menores"},
		ExpedientUpdatedAt: ts("2023-03-10T10:00:00Z"),
		Name:               strptr("Nuevo nombre"),
		SuccessBidderName:  "Construcciones Pérez SL",
	})
	require.Error(t, err)
	require.False(t, applied)
	require.Zero(t, store.updateCalls, "no field write after a resolution failure")
}

func TestMinorContractFlagSticks(t *testing.T) {
	store := &MockStore{}
	tender := storedTender(store)
	engine := reconcile.NewEngine(store, &MockOrgs{})

	got, applied, err := engine.Apply(context.Background(), tender, &reconcile.Update{
		Attribution:        models.SourceAttribution{Name: "Contratos Menores"},
		ExpedientUpdatedAt: ts("2023-03-10T10:00:00Z"),
		MarkMinorContract:  true,
	})
	require.NoError(t, err)
	require.True(t, applied)
	require.True(t, got.IsMinorContract)
}
