package handlers

import (
	"context"

	"tenderwatch/db"
	"tenderwatch/internal/ingest"
	"tenderwatch/models"
)

// StorageInterface is the read surface the query handlers need.
type StorageInterface interface {
	GetTenders(ctx context.Context, f db.TenderFilter) ([]models.Tender, int, error)
	GetTender(ctx context.Context, id int64) (*models.Tender, error)
	CountTenders(ctx context.Context) (int, error)
}

// TenderIngestor runs one scraper delivery through the pipeline.
type TenderIngestor interface {
	Process(ctx context.Context, cfg *ingest.SourceConfig, raw *ingest.RawTenderPayload) (*ingest.Result, error)
}

// OrganizationIngestor handles the organization enrichment feed.
type OrganizationIngestor interface {
	Process(ctx context.Context, raw *ingest.RawOrganizationPayload) (*ingest.Result, error)
}
