package ingest

import (
	"time"

	"tenderwatch/internal/normalize"
	"tenderwatch/models"
)

// RawTenderPayload is the wire format every scraper posts. All fields
// are strings in the source's own encoding; normalization happens here,
// not in the scrapers. Fields a source does not report are simply
// absent.
type RawTenderPayload struct {
	Expedient      string `json:"expedient"`
	Name           string `json:"name"`
	ExpedientName  string `json:"expedientName"`
	ParentTenderID string `json:"parentTenderId"`

	ContractType          string `json:"contractType"`
	ExpedientContractType string `json:"expedientContractType"`
	Status                string `json:"status"`
	Procedure             string `json:"procedure"`
	ExpedientProcedure    string `json:"expedientProcedure"`

	CpvCodes     string            `json:"cpvCodes"`
	LocationText string            `json:"locationText"`
	Locations    map[string]string `json:"locations"`

	SubmissionDeadlineDate string `json:"submissionDeadlineDate"`
	ExpedientCreatedAt     string `json:"expedientCreatedAt"`
	ExpedientUpdatedAt     string `json:"expedientUpdatedAt"`

	BudgetNoTaxes          string `json:"budgetNoTaxes"`
	ContractEstimatedValue string `json:"contractEstimatedValue"`
	AwardAmount            string `json:"awardAmount"`
	BiddersNumber          string `json:"biddersNumber"`
	Result                 string `json:"result"`
	Currency               string `json:"currency"`

	ContractingOrganization   string `json:"contractingOrganization"`
	SuccessBidderOrganization string `json:"successBidderOrganization"`

	Documents []RawDocumentGroup `json:"documents"`
	Sheets    []models.Sheet     `json:"sheets"`

	SourceURL string `json:"sourceUrl"`
	LinkURL   string `json:"linkUrl"`

	// Match asks the pipeline to run subscription matching after the
	// write. Scrapers set it on live runs and leave it off on backfills.
	Match bool `json:"match"`

	// Consultation feed extras.
	ConsultationName      string `json:"consultationName"`
	ConsultationStartDate string `json:"consultationStartDate"`
	ConsultationDeadline  string `json:"consultationDeadline"`
	ConsultationOpen      string `json:"consultationOpen"`
	ConsultationCreatedAt string `json:"consultationCreatedAt"`
	Participants          string `json:"participants"`
	SelectionType         string `json:"selectionType"`
	WebURL                string `json:"webUrl"`
	Conditions            string `json:"conditions"`
}

// RawDocumentGroup mirrors models.DocumentGroup with the publication
// date still in source encoding.
type RawDocumentGroup struct {
	PublicationDate string            `json:"publicationDate"`
	Name            string            `json:"name"`
	Documents       []models.Document `json:"documents"`
}

// TenderName returns the display name of the payload. The consultation
// feed reports it as expedientName, everyone else as name.
func (p *RawTenderPayload) TenderName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ExpedientName
}

// RawContractType returns whichever contract type field the source
// filled in.
func (p *RawTenderPayload) RawContractType() string {
	if p.ContractType != "" {
		return p.ContractType
	}
	return p.ExpedientContractType
}

func (p *RawTenderPayload) RawProcedure() string {
	if p.Procedure != "" {
		return p.Procedure
	}
	return p.ExpedientProcedure
}

// NormalizeDocuments converts the raw document groups, repairing each
// publication date with the source's offset.
func (p *RawTenderPayload) NormalizeDocuments(offset time.Duration) models.DocumentGroups {
	if len(p.Documents) == 0 {
		return nil
	}
	groups := make(models.DocumentGroups, len(p.Documents))
	for i, g := range p.Documents {
		groups[i] = models.DocumentGroup{
			PublicationDate: normalize.RepairDate(g.PublicationDate, offset),
			Name:            g.Name,
			Documents:       g.Documents,
		}
	}
	return groups
}

// RawOrganizationPayload is the wire format of the organization
// enrichment feed.
type RawOrganizationPayload struct {
	Name       string `json:"name"`
	PlayerType string `json:"playerType"`
	Country    string `json:"country"`
	Languages  string `json:"languages"`
	Email      string `json:"email"`
	NIF        string `json:"nif"`
	WebURL     string `json:"webUrl"`
	Activity   string `json:"activity"`
	Town       string `json:"town"`
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	Prefix     string `json:"prefix"`
	Phone      string `json:"phone"`
	Fax        string `json:"fax"`
	SourceURL  string `json:"sourceUrl"`
}
