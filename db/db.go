package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tenderwatch/internal/normalize"
	"tenderwatch/models"
)

// Sentinel errors surfaced to callers so they can recover from races on
// identity keys (unique slug / expedient+name) without parsing driver
// errors themselves.
var (
	ErrNotFound  = errors.New("db: not found")
	ErrDuplicate = errors.New("db: duplicate key")
)

const uniqueViolation = "23505"

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

// Cpv (taxonomy)

func (s *Storage) FindCpvByCodes(ctx context.Context, codes []string) ([]models.Cpv, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	cpvs := []models.Cpv{}
	query := `SELECT id, code, description FROM cpv WHERE code = ANY($1) ORDER BY code`
	err := s.db.SelectContext(ctx, &cpvs, query, pq.Array(codes))
	if err != nil {
		return nil, translate(err)
	}
	return cpvs, nil
}

// Country / Currency

func (s *Storage) GetCountryByCode(ctx context.Context, code string) (*models.Country, error) {
	c := &models.Country{}
	query := `SELECT id, code, name FROM country WHERE code = $1`
	if err := s.db.GetContext(ctx, c, query, code); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (s *Storage) GetCountryByName(ctx context.Context, name string) (*models.Country, error) {
	c := &models.Country{}
	query := `SELECT id, code, name FROM country WHERE name = $1`
	if err := s.db.GetContext(ctx, c, query, name); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (s *Storage) GetCurrencyByName(ctx context.Context, name string) (*models.Currency, error) {
	c := &models.Currency{}
	query := `SELECT id, code, name FROM currency WHERE name = $1`
	if err := s.db.GetContext(ctx, c, query, name); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// Organization

func (s *Storage) GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	o := &models.Organization{}
	query := `SELECT * FROM organization WHERE slug = $1 AND deleted_at IS NULL`
	if err := s.db.GetContext(ctx, o, query, slug); err != nil {
		return nil, translate(err)
	}
	return o, nil
}

func (s *Storage) GetOrganizationByName(ctx context.Context, name string) (*models.Organization, error) {
	o := &models.Organization{}
	query := `SELECT * FROM organization WHERE name = $1 AND deleted_at IS NULL`
	if err := s.db.GetContext(ctx, o, query, name); err != nil {
		return nil, translate(err)
	}
	return o, nil
}

// CreateOrganization inserts a new organization. The unique index on slug
// makes concurrent find-or-create races surface as ErrDuplicate; callers
// re-read and proceed with the winner's row.
func (s *Storage) CreateOrganization(ctx context.Context, o *models.Organization) error {
	query := `
        INSERT INTO organization
            (slug, name, player_type, country_id, language, email,
             tax_identification_number, web_url, activity, phone, fax,
             town, street, postal_code)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		o.Slug, o.Name, o.PlayerType, o.CountryID, o.Language, o.Email,
		o.TaxID, o.WebURL, o.Activity, o.Phone, o.Fax,
		o.Town, o.Street, o.PostalCode).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	return translate(err)
}

// OrganizationUpdate is a sparse patch; nil fields are left untouched.
type OrganizationUpdate struct {
	PlayerType *string
	CountryID  *int64
	Language   *string
	Email      *string
	TaxID      *string
	WebURL     *string
	Activity   *string
	Phone      *string
	Fax        *string
	Town       *string
	Street     *string
	PostalCode *string
}

func (s *Storage) UpdateOrganizationFields(ctx context.Context, id int64, u *OrganizationUpdate) error {
	set := []string{}
	args := []interface{}{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.PlayerType != nil {
		add("player_type", *u.PlayerType)
	}
	if u.CountryID != nil {
		add("country_id", *u.CountryID)
	}
	if u.Language != nil {
		add("language", *u.Language)
	}
	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.TaxID != nil {
		add("tax_identification_number", *u.TaxID)
	}
	if u.WebURL != nil {
		add("web_url", *u.WebURL)
	}
	if u.Activity != nil {
		add("activity", *u.Activity)
	}
	if u.Phone != nil {
		add("phone", *u.Phone)
	}
	if u.Fax != nil {
		add("fax", *u.Fax)
	}
	if u.Town != nil {
		add("town", *u.Town)
	}
	if u.Street != nil {
		add("street", *u.Street)
	}
	if u.PostalCode != nil {
		add("postal_code", *u.PostalCode)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE organization SET %s WHERE id = $%d",
		strings.Join(set, ", "), len(args))
	_, err := s.db.ExecContext(ctx, query, args...)
	return translate(err)
}

// Tender

const tenderColumns = `
    id, slug, expedient, name, name_slug, contract_type, procedure, status,
    location_text, locations, contracting_organization_id,
    success_bidder_organization_id, country_id, currency_id,
    submission_deadline_date, expedient_created_at, expedient_updated_at,
    budget_no_taxes, contract_estimated_value, award_amount, bidders_number,
    result, is_adjudication, is_minor_contract, consultation, documents,
    sheets, created_at, updated_at, deleted_at`

// FindTendersByExpedient returns the identity-resolution candidate pool
// for one expedient, with CPV codes and source attributions populated.
func (s *Storage) FindTendersByExpedient(ctx context.Context, expedient string) ([]models.Tender, error) {
	tenders := []models.Tender{}
	query := `SELECT ` + tenderColumns + ` FROM tender
        WHERE expedient = $1 AND deleted_at IS NULL`
	if err := s.db.SelectContext(ctx, &tenders, query, expedient); err != nil {
		return nil, translate(err)
	}
	if err := s.populateTenders(ctx, tenders); err != nil {
		return nil, err
	}
	return tenders, nil
}

func (s *Storage) GetTender(ctx context.Context, id int64) (*models.Tender, error) {
	tenders := []models.Tender{}
	query := `SELECT ` + tenderColumns + ` FROM tender
        WHERE id = $1 AND deleted_at IS NULL`
	if err := s.db.SelectContext(ctx, &tenders, query, id); err != nil {
		return nil, translate(err)
	}
	if len(tenders) == 0 {
		return nil, ErrNotFound
	}
	if err := s.populateTenders(ctx, tenders); err != nil {
		return nil, err
	}
	return &tenders[0], nil
}

// CreateTender inserts the tender, its CPV links and its initial source
// attributions in one transaction. The partial unique index on
// (expedient, name_slug) turns concurrent creates of the same logical
// tender into ErrDuplicate for the loser.
func (s *Storage) CreateTender(ctx context.Context, t *models.Tender) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO tender
            (slug, expedient, name, name_slug, contract_type, procedure,
             status, location_text, locations, contracting_organization_id,
             success_bidder_organization_id, country_id, currency_id,
             submission_deadline_date, expedient_created_at,
             expedient_updated_at, budget_no_taxes, contract_estimated_value,
             award_amount, bidders_number, result, is_adjudication,
             is_minor_contract, consultation, documents, sheets)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
                $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
        RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		t.Slug, t.Expedient, t.Name, t.NameSlug, t.ContractType, t.Procedure,
		t.Status, t.LocationText, t.Locations, t.ContractingOrganizationID,
		t.SuccessBidderOrganizationID, t.CountryID, t.CurrencyID,
		t.SubmissionDeadlineDate, t.ExpedientCreatedAt,
		t.ExpedientUpdatedAt, t.BudgetNoTaxes, t.ContractEstimatedValue,
		t.AwardAmount, t.BiddersNumber, t.Result, t.IsAdjudication,
		t.IsMinorContract, t.Consultation, t.Documents, t.Sheets).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return translate(err)
	}

	for i := range t.CpvCodes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tender_cpv (tender_id, cpv_id) VALUES ($1, $2)
             ON CONFLICT DO NOTHING`, t.ID, t.CpvCodes[i].ID)
		if err != nil {
			return translate(err)
		}
	}

	for i := range t.Sources {
		src := &t.Sources[i]
		src.TenderID = t.ID
		err = tx.QueryRowContext(ctx,
			`INSERT INTO tender_source
                (tender_id, name, country, source_url, link_url, body)
             VALUES ($1, $2, $3, $4, $5, $6)
             RETURNING id, attributed_at`,
			src.TenderID, src.Name, src.Country, src.SourceURL, src.LinkURL, src.Body).
			Scan(&src.ID, &src.AttributedAt)
		if err != nil {
			return translate(err)
		}
	}

	return tx.Commit()
}

// AddTenderSource appends an attribution entry. Idempotent per source
// name: resubmission for an already-attributed source is a no-op.
func (s *Storage) AddTenderSource(ctx context.Context, src *models.SourceAttribution) error {
	query := `
        INSERT INTO tender_source (tender_id, name, country, source_url, link_url, body)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (tender_id, name) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query,
		src.TenderID, src.Name, src.Country, src.SourceURL, src.LinkURL, src.Body)
	return translate(err)
}

// TenderUpdate is the sparse merge patch applied by the reconciliation
// engine. Nil fields are left untouched; CpvIDs nil means "keep links".
type TenderUpdate struct {
	Name                        *string
	ContractType                *string
	Status                      *string
	Procedure                   *string
	SubmissionDeadlineDate      *time.Time
	ExpedientUpdatedAt          *time.Time
	BudgetNoTaxes               *float64
	ContractEstimatedValue      *float64
	Result                      *string
	BiddersNumber               *int
	AwardAmount                 *float64
	SuccessBidderOrganizationID *int64
	IsAdjudication              *bool
	IsMinorContract             *bool
	Consultation                *models.Consultation
	Documents                   models.DocumentGroups
	Sheets                      models.Sheets
	CpvIDs                      []int64
}

// setClauses renders the sparse SET list. name_slug tracks name so the
// expedient+name_slug identity index never drifts from the stored name.
func (u *TenderUpdate) setClauses() ([]string, []interface{}) {
	set := []string{}
	args := []interface{}{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.Name != nil {
		add("name", *u.Name)
		add("name_slug", normalize.Slugify(*u.Name))
	}
	if u.ContractType != nil {
		add("contract_type", *u.ContractType)
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.Procedure != nil {
		add("procedure", *u.Procedure)
	}
	if u.SubmissionDeadlineDate != nil {
		add("submission_deadline_date", *u.SubmissionDeadlineDate)
	}
	if u.ExpedientUpdatedAt != nil {
		add("expedient_updated_at", *u.ExpedientUpdatedAt)
	}
	if u.BudgetNoTaxes != nil {
		add("budget_no_taxes", *u.BudgetNoTaxes)
	}
	if u.ContractEstimatedValue != nil {
		add("contract_estimated_value", *u.ContractEstimatedValue)
	}
	if u.Result != nil {
		add("result", *u.Result)
	}
	if u.BiddersNumber != nil {
		add("bidders_number", *u.BiddersNumber)
	}
	if u.AwardAmount != nil {
		add("award_amount", *u.AwardAmount)
	}
	if u.SuccessBidderOrganizationID != nil {
		add("success_bidder_organization_id", *u.SuccessBidderOrganizationID)
	}
	if u.IsAdjudication != nil {
		add("is_adjudication", *u.IsAdjudication)
	}
	if u.IsMinorContract != nil {
		add("is_minor_contract", *u.IsMinorContract)
	}
	if u.Consultation != nil {
		add("consultation", u.Consultation)
	}
	if u.Documents != nil {
		add("documents", u.Documents)
	}
	if u.Sheets != nil {
		add("sheets", u.Sheets)
	}
	return set, args
}

// UpdateTenderFields applies the patch in one transaction so a failure
// never leaves the tender partially written.
func (s *Storage) UpdateTenderFields(ctx context.Context, id int64, u *TenderUpdate) (*models.Tender, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	set, args := u.setClauses()
	if len(set) > 0 {
		set = append(set, "updated_at = NOW()")
		args = append(args, id)
		query := fmt.Sprintf("UPDATE tender SET %s WHERE id = $%d",
			strings.Join(set, ", "), len(args))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, translate(err)
		}
	}

	if u.CpvIDs != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM tender_cpv WHERE tender_id = $1`, id); err != nil {
			return nil, translate(err)
		}
		for _, cpvID := range u.CpvIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tender_cpv (tender_id, cpv_id) VALUES ($1, $2)
                 ON CONFLICT DO NOTHING`, id, cpvID); err != nil {
				return nil, translate(err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetTender(ctx, id)
}

// TenderFilter narrows GetTenders. Zero values mean "no filter".
type TenderFilter struct {
	Statuses        []string
	IsAdjudication  *bool
	IsMinorContract *bool
	Source          string
	Country         string
	ActiveOnly      bool
	Limit           int
	Offset          int
}

// GetTenders lists tenders newest-first by expedient update time, with a
// total count for pagination.
func (s *Storage) GetTenders(ctx context.Context, f TenderFilter) ([]models.Tender, int, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if len(f.Statuses) > 0 {
		add("status = ANY($%d)", pq.Array(f.Statuses))
	}
	if f.IsAdjudication != nil {
		add("is_adjudication = $%d", *f.IsAdjudication)
	}
	if f.IsMinorContract != nil {
		add("is_minor_contract = $%d", *f.IsMinorContract)
	}
	if f.Source != "" {
		add("id IN (SELECT tender_id FROM tender_source WHERE name = $%d)", f.Source)
	}
	if f.Country != "" {
		add("locations->>'country' = $%d", f.Country)
	}
	if f.ActiveOnly {
		where = append(where,
			"submission_deadline_date IS NOT NULL AND submission_deadline_date >= NOW()")
	}

	filter := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := s.db.GetContext(ctx, &total,
		"SELECT COUNT(1) FROM tender"+filter, args...); err != nil {
		return nil, 0, translate(err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	query := "SELECT " + tenderColumns + " FROM tender" + filter +
		" ORDER BY expedient_updated_at DESC NULLS LAST, id DESC" +
		fmt.Sprintf(" LIMIT %d OFFSET %d", limit, f.Offset)

	tenders := []models.Tender{}
	if err := s.db.SelectContext(ctx, &tenders, query, args...); err != nil {
		return nil, 0, translate(err)
	}
	if err := s.populateTenders(ctx, tenders); err != nil {
		return nil, 0, err
	}
	return tenders, total, nil
}

func (s *Storage) CountTenders(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(1) FROM tender WHERE deleted_at IS NULL`)
	return count, translate(err)
}

// populateTenders loads CPV codes and source attributions for a page of
// tenders (populate-on-read; they live in separate tables).
func (s *Storage) populateTenders(ctx context.Context, tenders []models.Tender) error {
	if len(tenders) == 0 {
		return nil
	}
	ids := make([]int64, len(tenders))
	index := make(map[int64]*models.Tender, len(tenders))
	for i := range tenders {
		ids[i] = tenders[i].ID
		index[tenders[i].ID] = &tenders[i]
	}

	type tenderCpv struct {
		TenderID int64 `db:"tender_id"`
		models.Cpv
	}
	cpvs := []tenderCpv{}
	err := s.db.SelectContext(ctx, &cpvs, `
        SELECT tc.tender_id, c.id, c.code, c.description
        FROM tender_cpv tc
        JOIN cpv c ON c.id = tc.cpv_id
        WHERE tc.tender_id = ANY($1)
        ORDER BY c.code`, pq.Array(ids))
	if err != nil {
		return translate(err)
	}
	for _, row := range cpvs {
		t := index[row.TenderID]
		t.CpvCodes = append(t.CpvCodes, row.Cpv)
	}

	sources := []models.SourceAttribution{}
	err = s.db.SelectContext(ctx, &sources, `
        SELECT id, tender_id, name, country, source_url, link_url, body, attributed_at
        FROM tender_source
        WHERE tender_id = ANY($1)
        ORDER BY attributed_at ASC, id ASC`, pq.Array(ids))
	if err != nil {
		return translate(err)
	}
	for _, src := range sources {
		t := index[src.TenderID]
		t.Sources = append(t.Sources, src)
	}
	return nil
}

// SearchCriteria (subscriptions)

const criteriaColumns = `
    sc.id, sc.account_id, sc.name, sc.is_active, sc.is_archived,
    a.is_allowed_customer, sc.email_frequency, sc.notification_channel,
    sc.chat_webhook_url, sc.keywords, sc.exclude_words, sc.cpv_codes,
    sc.excluded_cpv_codes, sc.locations, sc.excluded_locations, sc.statuses,
    sc.contractor_ids, sc.min_budget_no_taxes, sc.max_budget_no_taxes,
    sc.user_emails, sc.watcher_emails, sc.created_at`

func scanCriteria(rows *sql.Rows) (*models.SearchCriteria, error) {
	c := &models.SearchCriteria{}
	err := rows.Scan(
		&c.ID, &c.AccountID, &c.Name, &c.IsActive, &c.IsArchived,
		&c.IsAllowedCustomer, &c.EmailFrequency, &c.NotificationChannel,
		&c.ChatWebhookURL, pq.Array(&c.Keywords), pq.Array(&c.ExcludeWords),
		pq.Array(&c.CpvCodes), pq.Array(&c.ExcludedCpvCodes),
		pq.Array(&c.Locations), pq.Array(&c.ExcludedLocations),
		pq.Array(&c.Statuses), pq.Array(&c.ContractorIDs),
		&c.MinBudgetNoTaxes, &c.MaxBudgetNoTaxes,
		pq.Array(&c.UserEmails), pq.Array(&c.WatcherEmails), &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListActiveCriteria returns every subscription the matching engine must
// evaluate: active and not archived.
func (s *Storage) ListActiveCriteria(ctx context.Context) ([]models.SearchCriteria, error) {
	query := `
        SELECT ` + criteriaColumns + `
        FROM search_criteria sc
        JOIN account a ON a.id = sc.account_id
        WHERE sc.is_active AND NOT sc.is_archived
        ORDER BY sc.id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	criteria := []models.SearchCriteria{}
	for rows.Next() {
		c, err := scanCriteria(rows)
		if err != nil {
			return nil, err
		}
		criteria = append(criteria, *c)
	}
	return criteria, rows.Err()
}

// FindOrCreateTenderAccount records a match pairing at most once per
// (tender, criteria). Returns whether this call created the pairing.
func (s *Storage) FindOrCreateTenderAccount(ctx context.Context, tenderID, criteriaID, accountID int64) (bool, *models.TenderAccount, error) {
	ta := &models.TenderAccount{}
	query := `
        INSERT INTO tender_account (tender_id, criteria_id, account_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (tender_id, criteria_id) DO NOTHING
        RETURNING id, tender_id, criteria_id, account_id, is_archived, notified_at, created_at`
	err := s.db.QueryRowxContext(ctx, query, tenderID, criteriaID, accountID).StructScan(ta)
	if err == nil {
		return true, ta, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, nil, translate(err)
	}

	// Conflict: the pairing already exists, fetch it.
	query = `
        SELECT id, tender_id, criteria_id, account_id, is_archived, notified_at, created_at
        FROM tender_account WHERE tender_id = $1 AND criteria_id = $2`
	if err := s.db.GetContext(ctx, ta, query, tenderID, criteriaID); err != nil {
		return false, nil, translate(err)
	}
	return false, ta, nil
}

func (s *Storage) MarkTenderAccountNotified(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tender_account SET notified_at = NOW() WHERE id = $1`, id)
	return translate(err)
}

// DigestItem is one not-yet-notified pairing for a non-real-time
// subscription, flattened for the digest scheduler.
type DigestItem struct {
	AccountRowID int64
	CriteriaID   int64
	CriteriaName string
	Channel      string
	WebhookURL   string
	TenderID     int64
	TenderName   string
	UserEmails   []string
	Watchers     []string
}

// ListPendingDigest returns pairings awaiting digest delivery, oldest
// first; the scheduler groups them by criteria.
func (s *Storage) ListPendingDigest(ctx context.Context) ([]DigestItem, error) {
	query := `
        SELECT ta.id, sc.id, sc.name, sc.notification_channel, sc.chat_webhook_url,
               t.id, t.name, sc.user_emails, sc.watcher_emails
        FROM tender_account ta
        JOIN search_criteria sc ON sc.id = ta.criteria_id
        JOIN tender t ON t.id = ta.tender_id
        WHERE ta.notified_at IS NULL
          AND sc.email_frequency <> $1
          AND sc.is_active AND NOT sc.is_archived
        ORDER BY ta.created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, models.FrequencyRealTime)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	items := []DigestItem{}
	for rows.Next() {
		var it DigestItem
		err := rows.Scan(&it.AccountRowID, &it.CriteriaID, &it.CriteriaName,
			&it.Channel, &it.WebhookURL, &it.TenderID, &it.TenderName,
			pq.Array(&it.UserEmails), pq.Array(&it.Watchers))
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// IngestError (audit)

func (s *Storage) CreateIngestError(ctx context.Context, e *models.IngestError) error {
	query := `
        INSERT INTO ingest_error (id, source, message, payload)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`
	return translate(s.db.QueryRowContext(ctx, query,
		e.ID, e.Source, e.Message, e.Payload).Scan(&e.CreatedAt))
}
