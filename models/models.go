package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Contract type, procedure and status fallbacks shared by every source
// adapter. Unknown vocabulary never blocks ingestion; it maps to these.
const (
	ContractTypeUndefined = "No definido"
	ProcedureOther        = "Otros"
	StatusUndefined       = "No definido"
	StatusAdjudicated     = "Adjudicada"
)

// Organization player types.
const (
	PlayerContractingInstitution = "public-contracting-institution"
	PlayerBidder                 = "bidder"
)

// SearchCriteria delivery settings.
const (
	FrequencyRealTime = "real-time"
	ChannelChat       = "chat"
	ChannelEmail      = "email"
)

// JSONMap is a small string key-value bag stored as JSONB (tender locations).
type JSONMap map[string]string

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("JSONMap: cannot scan %T", src)
	}
	return json.Unmarshal(b, m)
}

// Document is a single downloadable attachment.
type Document struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DocumentGroup is a dated publication batch of attachments.
type DocumentGroup struct {
	PublicationDate *time.Time `json:"publicationDate"`
	Name            string     `json:"name"`
	Documents       []Document `json:"documents"`
}

// Sheet is administrative/technical sheet metadata.
type Sheet struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DocumentGroups and Sheets are stored as JSONB columns.
type DocumentGroups []DocumentGroup

func (d DocumentGroups) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

func (d *DocumentGroups) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("DocumentGroups: cannot scan %T", src)
	}
	return json.Unmarshal(b, d)
}

type Sheets []Sheet

func (s Sheets) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *Sheets) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("Sheets: cannot scan %T", src)
	}
	return json.Unmarshal(b, s)
}

// Consultation carries the preliminary market consultation sub-record
// reported by the Plataforma consultation feed.
type Consultation struct {
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	StartDate     *time.Time `json:"startDate"`
	Deadline      *time.Time `json:"deadline"`
	Open          *bool      `json:"open"`
	Participants  string     `json:"participants"`
	SelectionType string     `json:"selectionType"`
	WebURL        string     `json:"webUrl"`
	Conditions    string     `json:"conditions"`
	CreatedAt     *time.Time `json:"consultationCreatedAt"`
}

// IsZero reports whether no consultation data was ever recorded.
func (c Consultation) IsZero() bool {
	return c == Consultation{}
}

func (c Consultation) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return json.Marshal(c)
}

func (c *Consultation) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("Consultation: cannot scan %T", src)
	}
	return json.Unmarshal(b, c)
}

// SourceAttribution records that one external feed reported on a tender.
// Append-only: one row per source name, never overwritten.
type SourceAttribution struct {
	ID           int64     `db:"id" json:"id"`
	TenderID     int64     `db:"tender_id" json:"tenderId"`
	Name         string    `db:"name" json:"name"`
	Country      string    `db:"country" json:"country"`
	SourceURL    string    `db:"source_url" json:"sourceUrl"`
	LinkURL      string    `db:"link_url" json:"linkUrl"`
	Body         string    `db:"body" json:"body"`
	AttributedAt time.Time `db:"attributed_at" json:"attributedAt"`
}

// Cpv is an EU Common Procurement Vocabulary entry.
type Cpv struct {
	ID          int64  `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Description string `db:"description" json:"description"`
}

// Country and Currency are reference entities seeded once.
type Country struct {
	ID   int64  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

type Currency struct {
	ID   int64  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// Organization identity key is the slug of the display name; at most one
// organization per slug (unique constraint, enforced by the store).
type Organization struct {
	ID         int64      `db:"id" json:"id"`
	Slug       string     `db:"slug" json:"slug"`
	Name       string     `db:"name" json:"name"`
	PlayerType string     `db:"player_type" json:"playerType"`
	CountryID  *int64     `db:"country_id" json:"countryId"`
	Language   string     `db:"language" json:"language"`
	Email      string     `db:"email" json:"email"`
	TaxID      string     `db:"tax_identification_number" json:"taxIdentificationNumber"`
	WebURL     string     `db:"web_url" json:"webUrl"`
	Activity   string     `db:"activity" json:"activity"`
	Phone      string     `db:"phone" json:"phone"`
	Fax        string     `db:"fax" json:"fax"`
	Town       string     `db:"town" json:"town"`
	Street     string     `db:"street" json:"street"`
	PostalCode string     `db:"postal_code" json:"postalCode"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"-"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`
}

// Tender is the canonical record, one row per real-world procurement
// procedure. Created by a source adapter on first sighting, mutated only
// through the reconciliation engine, never physically deleted.
type Tender struct {
	ID                          int64          `db:"id" json:"id"`
	Slug                        string         `db:"slug" json:"slug"`
	Expedient                   string         `db:"expedient" json:"expedient"`
	Name                        string         `db:"name" json:"name"`
	NameSlug                    string         `db:"name_slug" json:"-"`
	ContractType                string         `db:"contract_type" json:"contractType"`
	Procedure                   string         `db:"procedure" json:"procedure"`
	Status                      string         `db:"status" json:"status"`
	LocationText                string         `db:"location_text" json:"locationText"`
	Locations                   JSONMap        `db:"locations" json:"locations"`
	ContractingOrganizationID   *int64         `db:"contracting_organization_id" json:"contractingOrganizationId"`
	SuccessBidderOrganizationID *int64         `db:"success_bidder_organization_id" json:"successBidderOrganizationId"`
	CountryID                   *int64         `db:"country_id" json:"countryId"`
	CurrencyID                  *int64         `db:"currency_id" json:"currencyId"`
	SubmissionDeadlineDate      *time.Time     `db:"submission_deadline_date" json:"submissionDeadlineDate"`
	ExpedientCreatedAt          *time.Time     `db:"expedient_created_at" json:"expedientCreatedAt"`
	ExpedientUpdatedAt          *time.Time     `db:"expedient_updated_at" json:"expedientUpdatedAt"`
	BudgetNoTaxes               *float64       `db:"budget_no_taxes" json:"budgetNoTaxes"`
	ContractEstimatedValue      *float64       `db:"contract_estimated_value" json:"contractEstimatedValue"`
	AwardAmount                 *float64       `db:"award_amount" json:"awardAmount"`
	BiddersNumber               *int           `db:"bidders_number" json:"biddersNumber"`
	Result                      string         `db:"result" json:"result"`
	IsAdjudication              bool           `db:"is_adjudication" json:"isAdjudication"`
	IsMinorContract             bool           `db:"is_minor_contract" json:"isMinorContract"`
	Consultation                Consultation   `db:"consultation" json:"consultation"`
	Documents                   DocumentGroups `db:"documents" json:"documents"`
	Sheets                      Sheets         `db:"sheets" json:"sheets"`
	CreatedAt                   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt                   time.Time      `db:"updated_at" json:"-"`
	DeletedAt                   *time.Time     `db:"deleted_at" json:"-"`

	// Populated on read, not columns of the tender table.
	CpvCodes []Cpv               `db:"-" json:"cpvCodes"`
	Sources  []SourceAttribution `db:"-" json:"sources"`
}

// HasSource reports whether an attribution for the given source name is
// already present.
func (t *Tender) HasSource(name string) bool {
	for _, s := range t.Sources {
		if s.Name == name {
			return true
		}
	}
	return false
}

// LocationPairs renders locations as "key/value" strings, the form the
// matching engine and search criteria use.
func (t *Tender) LocationPairs() []string {
	pairs := make([]string, 0, len(t.Locations))
	for k, v := range t.Locations {
		pairs = append(pairs, k+"/"+v)
	}
	return pairs
}

// CpvCodeStrings returns the codes of the tender's CPV entries.
func (t *Tender) CpvCodeStrings() []string {
	codes := make([]string, 0, len(t.CpvCodes))
	for _, c := range t.CpvCodes {
		codes = append(codes, c.Code)
	}
	return codes
}

// SearchCriteria is a saved subscription: match parameters plus delivery
// preference. Active/archived flags gate evaluation.
type SearchCriteria struct {
	ID                  int64     `db:"id" json:"id"`
	AccountID           int64     `db:"account_id" json:"accountId"`
	Name                string    `db:"name" json:"name"`
	IsActive            bool      `db:"is_active" json:"isActive"`
	IsArchived          bool      `db:"is_archived" json:"isArchived"`
	IsAllowedCustomer   bool      `db:"is_allowed_customer" json:"isAllowedCustomer"`
	EmailFrequency      string    `db:"email_frequency" json:"emailFrequency"`
	NotificationChannel string    `db:"notification_channel" json:"notificationChannel"`
	ChatWebhookURL      string    `db:"chat_webhook_url" json:"chatWebhookUrl"`
	Keywords            []string  `db:"keywords" json:"keywords"`
	ExcludeWords        []string  `db:"exclude_words" json:"excludeWords"`
	CpvCodes            []string  `db:"cpv_codes" json:"cpvCodes"`
	ExcludedCpvCodes    []string  `db:"excluded_cpv_codes" json:"excludedCpvCodes"`
	Locations           []string  `db:"locations" json:"locations"`
	ExcludedLocations   []string  `db:"excluded_locations" json:"excludedLocations"`
	Statuses            []string  `db:"statuses" json:"statuses"`
	ContractorIDs       []int64   `db:"contractor_ids" json:"contractorIds"`
	MinBudgetNoTaxes    *float64  `db:"min_budget_no_taxes" json:"minBudgetNoTaxes"`
	MaxBudgetNoTaxes    *float64  `db:"max_budget_no_taxes" json:"maxBudgetNoTaxes"`
	UserEmails          []string  `db:"user_emails" json:"userEmails"`
	WatcherEmails       []string  `db:"watcher_emails" json:"watcherEmails"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
}

// TenderAccount pairs a subscription with a tender. Created at most once
// per (tender, criteria); find-or-create semantics prevent duplicate
// notifications across re-evaluation.
type TenderAccount struct {
	ID         int64      `db:"id" json:"id"`
	TenderID   int64      `db:"tender_id" json:"tenderId"`
	CriteriaID int64      `db:"criteria_id" json:"criteriaId"`
	AccountID  int64      `db:"account_id" json:"accountId"`
	IsArchived bool       `db:"is_archived" json:"isArchived"`
	NotifiedAt *time.Time `db:"notified_at" json:"notifiedAt"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

// IngestError is an audit record for rejected or failed payloads.
type IngestError struct {
	ID        string    `db:"id" json:"id"`
	Source    string    `db:"source" json:"source"`
	Message   string    `db:"message" json:"message"`
	Payload   string    `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
