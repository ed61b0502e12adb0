// Package reconcile merges a fresh source payload into an existing
// canonical tender. Updates are monotonic on the expedient update
// timestamp: stale or out-of-order redeliveries only leave an
// attribution behind and never regress tender state.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"tenderwatch/db"
	"tenderwatch/models"
)

// Store is the slice of storage the engine mutates through.
type Store interface {
	AddTenderSource(ctx context.Context, src *models.SourceAttribution) error
	UpdateTenderFields(ctx context.Context, id int64, u *db.TenderUpdate) (*models.Tender, error)
}

// OrganizationResolver resolves the success bidder on award payloads.
type OrganizationResolver interface {
	ResolveOrganization(ctx context.Context, name, playerType string) (*models.Organization, error)
}

// Update is a normalized, already-typed merge candidate built by a
// source adapter. Nil pointer fields and nil slices mean "absent from
// the payload": the sparse merge leaves the canonical value untouched.
type Update struct {
	Attribution models.SourceAttribution

	ExpedientUpdatedAt     *time.Time
	Name                   *string
	ContractType           *string
	Status                 *string
	Procedure              *string
	CpvCodes               []models.Cpv
	SubmissionDeadlineDate *time.Time
	BudgetNoTaxes          *float64
	ContractEstimatedValue *float64
	Result                 *string
	BiddersNumber          *int
	AwardAmount            *float64
	Documents              models.DocumentGroups
	Sheets                 models.Sheets
	Consultation           *models.Consultation

	// SuccessBidderName is resolved lazily and only applied when the
	// tender has no bidder yet (first writer wins on award data).
	SuccessBidderName string

	// MarkMinorContract flags updates coming from the minor-contracts
	// feed; once seen there, the tender stays a minor contract.
	MarkMinorContract bool
}

type Engine struct {
	store Store
	orgs  OrganizationResolver
}

func NewEngine(store Store, orgs OrganizationResolver) *Engine {
	return &Engine{store: store, orgs: orgs}
}

// Apply attaches the source attribution and, when the payload is
// strictly fresher than the stored tender, applies the sparse merge.
// Returns the (possibly updated) tender and whether a merge happened.
// On resolution failure nothing beyond the attribution is written.
func (e *Engine) Apply(ctx context.Context, tender *models.Tender, u *Update) (*models.Tender, bool, error) {
	// Attribution first, even for stale payloads. Idempotent per source
	// name: an existing entry is never overwritten.
	if !tender.HasSource(u.Attribution.Name) {
		src := u.Attribution
		src.TenderID = tender.ID
		if err := e.store.AddTenderSource(ctx, &src); err != nil {
			return nil, false, fmt.Errorf("attach source %q: %w", src.Name, err)
		}
	}

	if !fresher(u.ExpedientUpdatedAt, tender.ExpedientUpdatedAt) {
		return tender, false, nil
	}

	patch := &db.TenderUpdate{
		Name:                   u.Name,
		ContractType:           u.ContractType,
		Status:                 u.Status,
		Procedure:              u.Procedure,
		SubmissionDeadlineDate: u.SubmissionDeadlineDate,
		ExpedientUpdatedAt:     u.ExpedientUpdatedAt,
		BudgetNoTaxes:          u.BudgetNoTaxes,
		ContractEstimatedValue: u.ContractEstimatedValue,
		Result:                 u.Result,
		BiddersNumber:          u.BiddersNumber,
		AwardAmount:            u.AwardAmount,
		Documents:              u.Documents,
		Sheets:                 u.Sheets,
		Consultation:           u.Consultation,
	}

	if u.CpvCodes != nil {
		ids := make([]int64, len(u.CpvCodes))
		for i, c := range u.CpvCodes {
			ids[i] = c.ID
		}
		patch.CpvIDs = ids
	}

	if u.SuccessBidderName != "" && tender.SuccessBidderOrganizationID == nil {
		org, err := e.orgs.ResolveOrganization(ctx, u.SuccessBidderName, models.PlayerBidder)
		if err != nil {
			return nil, false, fmt.Errorf("resolve success bidder: %w", err)
		}
		if org != nil {
			patch.SuccessBidderOrganizationID = &org.ID
		}
	}

	// Derived booleans are recomputed on every applied update.
	status := tender.Status
	if u.Status != nil {
		status = *u.Status
	}
	isAdjudication := status == models.StatusAdjudicated
	patch.IsAdjudication = &isAdjudication
	if u.MarkMinorContract {
		isMinor := true
		patch.IsMinorContract = &isMinor
	}

	updated, err := e.store.UpdateTenderFields(ctx, tender.ID, patch)
	if err != nil {
		return nil, false, fmt.Errorf("update tender %d: %w", tender.ID, err)
	}
	return updated, true, nil
}

// fresher reports whether the incoming timestamp is strictly later than
// the stored one. A tender with no stored timestamp accepts any dated
// payload; an undated payload never passes.
func fresher(incoming, stored *time.Time) bool {
	if incoming == nil {
		return false
	}
	if stored == nil {
		return true
	}
	return incoming.After(*stored)
}
