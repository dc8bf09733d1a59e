// Package service contains the business logic layer.
//
// This file implements the quota-gated lead ingestion operation: the single
// externally visible write path for leads.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leadboost/leadboost/internal/domain"
	"github.com/leadboost/leadboost/internal/enrich"
	"github.com/leadboost/leadboost/internal/metrics"
)

// =============================================================================
// Interface Definition
// =============================================================================

// LeadService validates, quota-gates, and persists lead records.
type LeadService interface {
	// Ingest validates and normalizes the candidate, charges one unit of
	// quota, and stores the lead. Validation failures never touch quota.
	// Returns the new lead's id.
	//
	// Failure modes: domain.EINVALID (bad email), domain.EQUOTA (allowance
	// exhausted, nothing stored), domain.EPARTIAL (quota consumed but the
	// lead insert failed - surfaced for reconciliation, never hidden).
	Ingest(ctx context.Context, userID uuid.UUID, params domain.IngestParams) (uuid.UUID, error)

	// IngestEnriched is Ingest preceded by a best-effort provider lookup
	// that fills blank fields. Enrichment failures degrade to plain Ingest.
	IngestEnriched(ctx context.Context, userID uuid.UUID, params domain.IngestParams) (uuid.UUID, error)

	// IngestBulk processes rows independently in order: a bad row is
	// reported and skipped, never aborts the batch. Only an unreachable
	// store (or context cancellation) stops the run early; rows already
	// ingested stay ingested.
	IngestBulk(ctx context.Context, userID uuid.UUID, rows []domain.LeadRow, enrichRows bool) (*domain.BulkResult, error)

	// Recent returns the caller's newest leads.
	Recent(ctx context.Context, userID uuid.UUID, limit int32) ([]domain.Lead, error)

	// ListFor returns all leads of ownerID. Callers other than the owner
	// must be admins.
	ListFor(ctx context.Context, callerID, ownerID uuid.UUID) ([]domain.Lead, error)
}

// LeadStore is the persistence surface lead ingestion needs.
type LeadStore interface {
	InsertLead(ctx context.Context, lead *domain.Lead) (uuid.UUID, error)
	ListLeadsByUser(ctx context.Context, userID uuid.UUID, limit int32) ([]domain.Lead, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// =============================================================================
// Implementation
// =============================================================================

type leadService struct {
	store    LeadStore
	quota    QuotaService
	audit    AuditService
	enricher enrich.Provider
	logger   *slog.Logger
}

// NewLeadService creates a new LeadService. The enricher may be nil when no
// provider is configured; enrichment then silently degrades.
func NewLeadService(store LeadStore, quota QuotaService, audit AuditService, enricher enrich.Provider, logger *slog.Logger) LeadService {
	return &leadService{
		store:    store,
		quota:    quota,
		audit:    audit,
		enricher: enricher,
		logger:   logger,
	}
}

func (s *leadService) Ingest(ctx context.Context, userID uuid.UUID, params domain.IngestParams) (uuid.UUID, error) {
	id, err := s.ingest(ctx, userID, params, domain.SourceManual)
	if err != nil {
		return uuid.Nil, err
	}

	metrics.LeadsIngested.WithLabelValues("single").Inc()
	s.audit.Record(ctx, userID, domain.AuditInsertLead, map[string]any{
		"lead_id": id.String(),
		"email":   params.Email,
		"company": params.Company,
	})
	return id, nil
}

func (s *leadService) IngestEnriched(ctx context.Context, userID uuid.UUID, params domain.IngestParams) (uuid.UUID, error) {
	s.enrichParams(ctx, &params)
	return s.Ingest(ctx, userID, params)
}

// ingest is the shared quota-then-store path. It assumes nothing about the
// candidate: normalization and validation happen here, before any quota is
// touched.
func (s *leadService) ingest(ctx context.Context, userID uuid.UUID, params domain.IngestParams, defaultSource string) (uuid.UUID, error) {
	const op = "LeadService.Ingest"

	params.Normalize(defaultSource)
	if err := params.Validate(); err != nil {
		return uuid.Nil, err
	}

	if err := s.quota.TryConsume(ctx, userID, 1); err != nil {
		if domain.ErrorCode(err) == domain.EQUOTA {
			metrics.QuotaExceededTotal.Inc()
		}
		return uuid.Nil, err
	}

	id, err := s.store.InsertLead(ctx, &domain.Lead{
		UserID:   userID,
		Email:    params.Email,
		Company:  params.Company,
		Position: params.Position,
		Verified: params.Verified,
		Sources:  params.Sources,
	})
	if err != nil {
		// Quota is already consumed and is deliberately not rolled back;
		// compensating here would race other consumers. Surface the
		// inconsistency loudly instead.
		metrics.PartialFailuresTotal.Inc()
		s.logger.Error("lead insert failed after quota consume",
			"user_id", userID,
			"email", params.Email,
			"error", err,
		)
		return uuid.Nil, domain.PartialFailure(err, op)
	}

	return id, nil
}

func (s *leadService) IngestBulk(ctx context.Context, userID uuid.UUID, rows []domain.LeadRow, enrichRows bool) (*domain.BulkResult, error) {
	const op = "LeadService.IngestBulk"

	result := &domain.BulkResult{}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, domain.Wrap(err, domain.EUNAVAILABLE, op, "Bulk ingestion interrupted")
		}

		params := row.IngestParams()
		if enrichRows {
			s.enrichParams(ctx, &params)
		}

		_, err := s.ingest(ctx, userID, params, domain.SourceCSV)
		if err == nil {
			result.Inserted++
			metrics.LeadsIngested.WithLabelValues("bulk").Inc()
			continue
		}

		code := domain.ErrorCode(err)
		result.Errors = append(result.Errors, domain.RowError{
			Row:     i + 1,
			Code:    code,
			Message: domain.ErrorMessage(err),
		})

		// A broken row or an exhausted allowance is a per-row outcome; an
		// unreachable store would fail every remaining row the same way,
		// consuming quota it cannot back out.
		if code == domain.EINTERNAL || code == domain.EUNAVAILABLE || code == domain.EPARTIAL {
			s.logger.Error("bulk ingestion aborted", "row", i+1, "error", err)
			break
		}
	}

	s.audit.Record(ctx, userID, domain.AuditBulkInsert, map[string]any{
		"rows":     len(rows),
		"inserted": result.Inserted,
		"errors":   len(result.Errors),
	})

	return result, nil
}

// enrichParams asks the configured provider to fill blank candidate fields.
// Provider absence or failure leaves the candidate as-is.
func (s *leadService) enrichParams(ctx context.Context, params *domain.IngestParams) {
	if s.enricher == nil {
		return
	}
	email := domain.NormalizeEmail(params.Email)
	if domain.ValidateEmail(email) != nil {
		return
	}

	result, err := s.enricher.Enrich(ctx, email)
	if err != nil {
		if !errors.Is(err, enrich.ErrUnavailable) {
			s.logger.Warn("enrichment failed", "provider", s.enricher.Name(), "error", err)
		}
		return
	}
	result.Merge(params)
}

func (s *leadService) Recent(ctx context.Context, userID uuid.UUID, limit int32) ([]domain.Lead, error) {
	const op = "LeadService.Recent"

	if limit <= 0 || limit > 100 {
		limit = 5
	}
	leads, err := s.store.ListLeadsByUser(ctx, userID, limit)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list leads")
	}
	return leads, nil
}

func (s *leadService) ListFor(ctx context.Context, callerID, ownerID uuid.UUID) ([]domain.Lead, error) {
	const op = "LeadService.ListFor"

	if callerID != ownerID {
		caller, err := s.store.GetUserByID(ctx, callerID)
		if err != nil {
			return nil, domain.Internal(err, op, "Failed to resolve caller")
		}
		if !caller.IsAdmin() {
			return nil, domain.Forbidden(op, "Leads are visible to their owner or an admin")
		}
	}

	leads, err := s.store.ListLeadsByUser(ctx, ownerID, 0)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list leads")
	}
	return leads, nil
}
