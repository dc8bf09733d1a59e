package handler

import (
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/leadboost/leadboost/internal/auth"
	"github.com/leadboost/leadboost/internal/domain"
	"github.com/leadboost/leadboost/internal/service"
)

// maxCSVUploadBytes caps bulk upload files at 5 MiB.
const maxCSVUploadBytes = 5 << 20

// maxCSVRows caps the number of data rows accepted in one bulk upload.
const maxCSVRows = 10000

// LeadHandler handles lead ingestion and listing.
type LeadHandler struct {
	leads  service.LeadService
	logger *slog.Logger
}

// NewLeadHandler creates a new LeadHandler.
func NewLeadHandler(leads service.LeadService, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{
		leads:  leads,
		logger: logger,
	}
}

type createLeadRequest struct {
	Email       string `json:"email"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	ContactName string `json:"contact_name"`
	Verified    string `json:"verified"`
	Enrich      bool   `json:"enrich"`
}

// Create handles POST /api/leads: single-lead ingestion, optionally
// enriched via the provider before storage.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req createLeadRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	position := req.Position
	if position == "" {
		position = req.ContactName
	}
	params := domain.IngestParams{
		Email:    req.Email,
		Company:  req.Company,
		Position: position,
		Verified: domain.ParseVerification(req.Verified),
	}

	ingest := h.leads.Ingest
	if req.Enrich {
		ingest = h.leads.IngestEnriched
	}

	id, err := ingest(r.Context(), user.ID, params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// Bulk handles POST /api/leads/bulk: a multipart CSV upload. Rows are
// processed independently; the response reports inserted count and per-row
// errors with 1-based row numbers.
func (h *LeadHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCSVUploadBytes)
	if err := r.ParseMultipartForm(maxCSVUploadBytes); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.bulk", "Invalid multipart upload (max 5 MiB)"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.bulk", "Missing 'file' field"))
		return
	}
	defer file.Close()

	rows, err := parseLeadCSV(file)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	enrich := r.FormValue("enrich") == "true"

	result, err := h.leads.IngestBulk(r.Context(), user.ID, rows, enrich)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Recent handles GET /api/leads/recent?limit=N (default 5, max 100).
func (h *LeadHandler) Recent(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var limit int32
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 0 {
			ErrorResponse(w, r, h.logger, domain.Invalid("handler.recent", "Invalid limit"))
			return
		}
		limit = int32(n)
	}

	leads, err := h.leads.Recent(r.Context(), user.ID, limit)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"leads": newLeadViews(leads)})
}

// List handles GET /api/leads: all of the caller's leads, newest first.
// Admins may list another user's leads via ?user_id=.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	ownerID := user.ID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("handler.list_leads", "Invalid user_id"))
			return
		}
		ownerID = parsed
	}

	leads, err := h.leads.ListFor(r.Context(), user.ID, ownerID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"leads": newLeadViews(leads)})
}

// parseLeadCSV reads a CSV stream into typed rows. The header row is
// required and must contain an "email" column; other recognized columns are
// optional and matched case-insensitively.
func parseLeadCSV(rd io.Reader) ([]domain.LeadRow, error) {
	const op = "handler.parse_csv"

	reader := csv.NewReader(rd)
	reader.FieldsPerRecord = -1 // ragged rows tolerated, missing cells are blank
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, domain.Invalid(op, "Empty or unreadable CSV file")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["email"]; !ok {
		return nil, domain.Invalid(op, "CSV header must contain an 'email' column")
	}

	cell := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []domain.LeadRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.Invalid(op, "Malformed CSV content")
		}
		rows = append(rows, domain.LeadRow{
			Email:       cell(record, "email"),
			Company:     cell(record, "company"),
			ContactName: cell(record, "contact_name"),
			Position:    cell(record, "position"),
			Phone:       cell(record, "phone"),
			Source:      cell(record, "source"),
			Verified:    cell(record, "verified"),
		})
		if len(rows) > maxCSVRows {
			return nil, domain.Invalid(op, "Too many rows (max 10000)")
		}
	}
	if len(rows) == 0 {
		return nil, domain.Invalid(op, "CSV file contains no data rows")
	}
	return rows, nil
}
