// Package ingest turns raw scraper payloads into canonical tenders:
// credential-free normalization, identity resolution against the stored
// pool, and create-or-reconcile with duplicate-delivery protection.
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
	"tenderwatch/internal/reconcile"
	"tenderwatch/internal/similarity"
	"tenderwatch/models"
)

// Outcome classifies what one delivery did.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeUpdated  Outcome = "updated"
	OutcomeRejected Outcome = "rejected"
)

// Rejection reasons surfaced to the HTTP layer.
const (
	ReasonMissingSourceURL = "missing sourceUrl"
	ReasonDuplicate        = "duplicate delivery"
)

type Result struct {
	Outcome Outcome
	Reason  string
	Tender  *models.Tender

	// applied reports whether the delivery changed stored state. False
	// for stale redeliveries, where only attribution went through.
	applied bool
}

// Store is the storage slice the pipeline needs directly; tender
// mutation goes through the reconciliation engine.
type Store interface {
	FindTendersByExpedient(ctx context.Context, expedient string) ([]models.Tender, error)
	CreateTender(ctx context.Context, t *models.Tender) error
	CreateIngestError(ctx context.Context, e *models.IngestError) error
}

// Reconciler merges a payload into an existing tender.
type Reconciler interface {
	Apply(ctx context.Context, tender *models.Tender, u *reconcile.Update) (*models.Tender, bool, error)
}

// Taxonomies resolves reference entities for new tenders.
type Taxonomies interface {
	ResolveCpvCodes(ctx context.Context, codes []string) ([]models.Cpv, error)
	ResolveOrganization(ctx context.Context, name, playerType string) (*models.Organization, error)
	ResolveCountryByCode(ctx context.Context, code string) (*models.Country, error)
	ResolveCurrencyByName(ctx context.Context, name string) (*models.Currency, error)
}

// Analyzer runs subscription matching after a write.
type Analyzer interface {
	Evaluate(ctx context.Context, tender *models.Tender) error
}

// Deduper detects redelivered payloads. Optional; nil disables the
// check.
type Deduper interface {
	Seen(ctx context.Context, source string, payload []byte) (bool, error)
}

type Pipeline struct {
	store     Store
	engine    Reconciler
	taxonomy  Taxonomies
	analyzer  Analyzer
	dedup     Deduper
	scorer    similarity.Scorer
	threshold float64
}

func NewPipeline(store Store, engine Reconciler, taxonomy Taxonomies, analyzer Analyzer, dedup Deduper, scorer similarity.Scorer, threshold float64) *Pipeline {
	if scorer == nil {
		scorer = similarity.NewDiceScorer()
	}
	if threshold <= 0 {
		threshold = similarity.DefaultThreshold
	}
	return &Pipeline{
		store:     store,
		engine:    engine,
		taxonomy:  taxonomy,
		analyzer:  analyzer,
		dedup:     dedup,
		scorer:    scorer,
		threshold: threshold,
	}
}

// Process runs one delivery through the full pipeline. Rejections are
// reported in the Result, not as errors; errors mean the write itself
// failed and the payload was recorded for audit.
func (p *Pipeline) Process(ctx context.Context, cfg *SourceConfig, raw *RawTenderPayload) (*Result, error) {
	body, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	if cfg.RequireSourceURL && raw.SourceURL == "" {
		p.recordError(ctx, cfg.Name, "payload without sourceUrl", body)
		return &Result{Outcome: OutcomeRejected, Reason: ReasonMissingSourceURL}, nil
	}

	if p.dedup != nil {
		seen, err := p.dedup.Seen(ctx, cfg.Name, body)
		if err != nil {
			// Dedup is best-effort: a broken cache must not stop
			// ingestion.
			log.Printf("dedup check failed for %s: %v", cfg.Name, err)
		} else if seen {
			return &Result{Outcome: OutcomeRejected, Reason: ReasonDuplicate}, nil
		}
	}

	candidate, err := p.resolveIdentity(ctx, cfg, raw)
	if err != nil {
		return nil, err
	}

	attribution := models.SourceAttribution{
		Name:      cfg.Name,
		Country:   cfg.Country,
		SourceURL: raw.SourceURL,
		LinkURL:   raw.LinkURL,
		Body:      string(body),
	}

	var result *Result
	if candidate != nil {
		result, err = p.update(ctx, cfg, raw, candidate, attribution)
	} else {
		result, err = p.create(ctx, cfg, raw, attribution)
	}
	if err != nil {
		p.recordError(ctx, cfg.Name, err.Error(), body)
		return nil, err
	}

	if raw.Match && p.analyzer != nil && result.applied && result.Tender != nil {
		if err := p.analyzer.Evaluate(ctx, result.Tender); err != nil {
			log.Printf("matching failed for tender %d: %v", result.Tender.ID, err)
		}
	}
	return result, nil
}

// resolveIdentity finds the stored tender this payload reports on, or
// nil for a first sighting. The candidate pool is every live tender
// with the payload's expedient; cross-border feeds try the parent
// expedient first. Within the pool the best name match wins when its
// distance stays at or below the threshold.
func (p *Pipeline) resolveIdentity(ctx context.Context, cfg *SourceConfig, raw *RawTenderPayload) (*models.Tender, error) {
	var pool []models.Tender
	var err error

	if cfg.ParentLookup && raw.ParentTenderID != "" {
		pool, err = p.store.FindTendersByExpedient(ctx, raw.ParentTenderID)
		if err != nil {
			return nil, fmt.Errorf("lookup parent %q: %w", raw.ParentTenderID, err)
		}
	}
	if len(pool) == 0 {
		pool, err = p.store.FindTendersByExpedient(ctx, raw.Expedient)
		if err != nil {
			return nil, fmt.Errorf("lookup expedient %q: %w", raw.Expedient, err)
		}
	}
	return p.bestMatch(pool, raw.TenderName()), nil
}

func (p *Pipeline) bestMatch(pool []models.Tender, name string) *models.Tender {
	var best *models.Tender
	bestDistance := 0.0
	for i := range pool {
		d := p.scorer.Distance(name, pool[i].Name)
		if best == nil || d < bestDistance {
			best = &pool[i]
			bestDistance = d
		}
	}
	if best == nil || bestDistance > p.threshold {
		return nil
	}
	return best
}

func (p *Pipeline) update(ctx context.Context, cfg *SourceConfig, raw *RawTenderPayload, tender *models.Tender, attribution models.SourceAttribution) (*Result, error) {
	u, err := p.buildUpdate(ctx, cfg, raw, attribution)
	if err != nil {
		return nil, err
	}
	updated, applied, err := p.engine.Apply(ctx, tender, u)
	if err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeUpdated, Tender: updated, applied: applied}, nil
}

func (p *Pipeline) buildUpdate(ctx context.Context, cfg *SourceConfig, raw *RawTenderPayload, attribution models.SourceAttribution) (*reconcile.Update, error) {
	u := &reconcile.Update{
		Attribution:        attribution,
		ExpedientUpdatedAt: normalize.RepairDate(raw.ExpedientUpdatedAt, cfg.DateOffset),
		SuccessBidderName:  raw.SuccessBidderOrganization,
		MarkMinorContract:  cfg.MinorContract,
	}

	if name := raw.TenderName(); name != "" {
		u.Name = &name
	}
	if ct := raw.RawContractType(); ct != "" {
		mapped := cfg.MapContractType(ct)
		u.ContractType = &mapped
	}
	if raw.Status != "" {
		mapped := cfg.MapStatus(raw.Status)
		u.Status = &mapped
	}
	if proc := raw.RawProcedure(); proc != "" {
		mapped := cfg.MapProcedure(proc)
		u.Procedure = &mapped
	}
	if raw.CpvCodes != "" {
		cpvs, err := p.taxonomy.ResolveCpvCodes(ctx, normalize.SplitCodeList(raw.CpvCodes, cfg.CpvDelimiter))
		if err != nil {
			return nil, fmt.Errorf("resolve cpv codes: %w", err)
		}
		if cpvs == nil {
			cpvs = []models.Cpv{}
		}
		u.CpvCodes = cpvs
	}
	u.SubmissionDeadlineDate = normalize.RepairDate(raw.SubmissionDeadlineDate, cfg.DateOffset)
	u.BudgetNoTaxes = normalize.ParsePriceString(raw.BudgetNoTaxes)
	u.ContractEstimatedValue = normalize.ParsePriceString(raw.ContractEstimatedValue)
	u.AwardAmount = normalize.ParsePriceString(raw.AwardAmount)
	u.BiddersNumber = normalize.ParseIntegerString(raw.BiddersNumber)
	if raw.Result != "" {
		u.Result = &raw.Result
	}
	u.Documents = raw.NormalizeDocuments(cfg.DateOffset)
	if len(raw.Sheets) > 0 {
		u.Sheets = raw.Sheets
	}
	if cfg.Consultation {
		c := p.buildConsultation(cfg, raw)
		if !c.IsZero() {
			u.Consultation = &c
		}
	}
	return u, nil
}

func (p *Pipeline) create(ctx context.Context, cfg *SourceConfig, raw *RawTenderPayload, attribution models.SourceAttribution) (*Result, error) {
	name := raw.TenderName()
	status := cfg.MapStatus(raw.Status)

	tender := &models.Tender{
		Slug:            tenderSlug(raw.Expedient, name),
		Expedient:       raw.Expedient,
		Name:            name,
		NameSlug:        normalize.Slugify(name),
		ContractType:    cfg.MapContractType(raw.RawContractType()),
		Procedure:       cfg.MapProcedure(raw.RawProcedure()),
		Status:          status,
		LocationText:    raw.LocationText,
		Locations:       models.JSONMap(raw.Locations),
		Result:          raw.Result,
		IsAdjudication:  status == models.StatusAdjudicated,
		IsMinorContract: cfg.MinorContract,
		Documents:       raw.NormalizeDocuments(cfg.DateOffset),
		Sheets:          raw.Sheets,
		Sources:         []models.SourceAttribution{attribution},
	}

	tender.SubmissionDeadlineDate = normalize.RepairDate(raw.SubmissionDeadlineDate, cfg.DateOffset)
	tender.ExpedientCreatedAt = normalize.RepairDate(raw.ExpedientCreatedAt, cfg.DateOffset)
	tender.ExpedientUpdatedAt = normalize.RepairDate(raw.ExpedientUpdatedAt, cfg.DateOffset)
	tender.BudgetNoTaxes = normalize.ParsePriceString(raw.BudgetNoTaxes)
	tender.ContractEstimatedValue = normalize.ParsePriceString(raw.ContractEstimatedValue)
	tender.AwardAmount = normalize.ParsePriceString(raw.AwardAmount)
	tender.BiddersNumber = normalize.ParseIntegerString(raw.BiddersNumber)

	if cfg.Consultation {
		tender.Consultation = p.buildConsultation(cfg, raw)
	}

	cpvs, err := p.taxonomy.ResolveCpvCodes(ctx, normalize.SplitCodeList(raw.CpvCodes, cfg.CpvDelimiter))
	if err != nil {
		return nil, fmt.Errorf("resolve cpv codes: %w", err)
	}
	tender.CpvCodes = cpvs

	if org, err := p.taxonomy.ResolveOrganization(ctx, raw.ContractingOrganization, models.PlayerContractingInstitution); err != nil {
		return nil, fmt.Errorf("resolve contracting organization: %w", err)
	} else if org != nil {
		tender.ContractingOrganizationID = &org.ID
	}
	if org, err := p.taxonomy.ResolveOrganization(ctx, raw.SuccessBidderOrganization, models.PlayerBidder); err != nil {
		return nil, fmt.Errorf("resolve success bidder: %w", err)
	} else if org != nil {
		tender.SuccessBidderOrganizationID = &org.ID
	}

	if cfg.CountryCode != "" {
		country, err := p.taxonomy.ResolveCountryByCode(ctx, cfg.CountryCode)
		if err != nil {
			return nil, fmt.Errorf("resolve country: %w", err)
		}
		if country != nil {
			tender.CountryID = &country.ID
		}
	}
	currencyName := cfg.CurrencyName
	if cfg.CurrencyFromPayload {
		currencyName = raw.Currency
	}
	if currencyName != "" {
		currency, err := p.taxonomy.ResolveCurrencyByName(ctx, currencyName)
		if err != nil {
			return nil, fmt.Errorf("resolve currency: %w", err)
		}
		if currency != nil {
			tender.CurrencyID = &currency.ID
		}
	}

	err = p.store.CreateTender(ctx, tender)
	if err == nil {
		return &Result{Outcome: OutcomeCreated, Tender: tender, applied: true}, nil
	}
	if !errors.Is(err, db.ErrDuplicate) {
		return nil, fmt.Errorf("create tender %q: %w", raw.Expedient, err)
	}

	// Lost a create race: another delivery inserted the same logical
	// tender first. Re-read the pool and merge into the winner.
	pool, err := p.store.FindTendersByExpedient(ctx, raw.Expedient)
	if err != nil {
		return nil, fmt.Errorf("re-read after duplicate create: %w", err)
	}
	winner := p.bestMatch(pool, name)
	if winner == nil {
		return nil, fmt.Errorf("duplicate create for %q but no matching tender found", raw.Expedient)
	}
	return p.update(ctx, cfg, raw, winner, attribution)
}

func (p *Pipeline) buildConsultation(cfg *SourceConfig, raw *RawTenderPayload) models.Consultation {
	c := models.Consultation{
		Name:          raw.ConsultationName,
		Status:        raw.Status,
		StartDate:     normalize.RepairDate(raw.ConsultationStartDate, cfg.DateOffset),
		Deadline:      normalize.RepairDate(raw.ConsultationDeadline, cfg.DateOffset),
		Participants:  raw.Participants,
		SelectionType: raw.SelectionType,
		WebURL:        raw.WebURL,
		Conditions:    raw.Conditions,
		CreatedAt:     normalize.RepairDate(raw.ConsultationCreatedAt, cfg.DateOffset),
	}
	if raw.ConsultationOpen != "" {
		open := normalize.Slugify(raw.ConsultationOpen) == "si"
		c.Open = &open
	}
	return c
}

func (p *Pipeline) recordError(ctx context.Context, source, message string, payload []byte) {
	e := &models.IngestError{
		ID:      uuid.NewString(),
		Source:  source,
		Message: message,
		Payload: string(payload),
	}
	if err := p.store.CreateIngestError(ctx, e); err != nil {
		log.Printf("record ingest error for %s: %v", source, err)
	}
}

// tenderSlug derives a URL identity for a new tender. The uuid fragment
// keeps slugs unique even when two distinct procedures share an
// expedient and a near-identical name.
func tenderSlug(expedient, name string) string {
	base := normalize.Slugify(expedient + " " + name)
	if len(base) > 60 {
		base = base[:60]
	}
	return base + "-" + uuid.NewString()[:8]
}
