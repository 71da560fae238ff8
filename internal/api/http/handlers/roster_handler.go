package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/roster-service/internal/api/dto"
	"github.com/spec-kit/roster-service/internal/auth"
	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/ingestion"
	"github.com/spec-kit/roster-service/internal/observability"
	"github.com/spec-kit/roster-service/internal/service"
	apperrors "github.com/spec-kit/roster-service/pkg/util"
)

// RosterHandler manages roster preview, import, and rollback endpoints.
type RosterHandler struct {
	imports   *service.ImportService
	rollbacks *service.RollbackService
	parser    *ingestion.Parser
	metrics   *observability.Metrics
}

// NewRosterHandler constructs handler.
func NewRosterHandler(imports *service.ImportService, rollbacks *service.RollbackService, parser *ingestion.Parser, metrics *observability.Metrics) *RosterHandler {
	return &RosterHandler{imports: imports, rollbacks: rollbacks, parser: parser, metrics: metrics}
}

// Preview POST /orgs/:org_id/roster/preview.
func (h *RosterHandler) Preview(c *fiber.Ctx) error {
	var req dto.RosterBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.imports.Preview(c.UserContext(), c.Params("org_id"), dto.ToImportRows(req.Rows))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// PreviewFile POST /orgs/:org_id/roster/preview/file.
func (h *RosterHandler) PreviewFile(c *fiber.Ctx) error {
	rows, err := h.rowsFromUpload(c)
	if err != nil {
		return err
	}

	result, err := h.imports.Preview(c.UserContext(), c.Params("org_id"), rows)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// Import POST /orgs/:org_id/roster/import.
func (h *RosterHandler) Import(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RosterBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	orgID := c.Params("org_id")
	opts := service.ImportOptions{MarkMissingAsRetired: req.Options.Retire()}
	result, err := h.imports.Execute(c.UserContext(), orgID, dto.ToImportRows(req.Rows), opts, principal.ActorID)
	if err != nil {
		return err
	}
	h.metrics.RecordImport(orgID, len(req.Rows))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": result})
}

// ImportFile POST /orgs/:org_id/roster/import/file.
func (h *RosterHandler) ImportFile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	rows, err := h.rowsFromUpload(c)
	if err != nil {
		return err
	}

	orgID := c.Params("org_id")
	opts := service.ImportOptions{MarkMissingAsRetired: c.FormValue("mark_missing_as_retired", "true") != "false"}
	result, err := h.imports.Execute(c.UserContext(), orgID, rows, opts, principal.ActorID)
	if err != nil {
		return err
	}
	h.metrics.RecordImport(orgID, len(rows))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": result})
}

// Cancel POST /orgs/:org_id/roster/import/cancel.
func (h *RosterHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	orgID := c.Params("org_id")
	result, err := h.rollbacks.Cancel(c.UserContext(), orgID, principal.ActorID)
	if err != nil {
		return err
	}
	h.metrics.RecordRollback(orgID)
	return c.JSON(fiber.Map{"data": result})
}

// Pending GET /orgs/:org_id/roster/import/pending.
func (h *RosterHandler) Pending(c *fiber.Ctx) error {
	result, err := h.rollbacks.Pending(c.UserContext(), c.Params("org_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

func (h *RosterHandler) rowsFromUpload(c *fiber.Ctx) ([]domain.ImportRow, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, apperrors.NewValidationError("file is required", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("unable to read file", nil)
	}
	defer file.Close()

	rows, err := h.parser.Parse(fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, ingestion.ErrUnsupportedFormat) {
			return nil, apperrors.NewValidationError("unsupported file format", map[string]any{"file": fileHeader.Filename})
		}
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	return rows, nil
}
