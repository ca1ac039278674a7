package intake

import (
	"errors"
	"fmt"

	"packhouse-backend/internal/allocation"
	"packhouse-backend/internal/audit"
	"packhouse-backend/internal/auth"
	"packhouse-backend/internal/database"
	"packhouse-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type AllocationRequestBody struct {
	SubCommodity models.SubCommodity `json:"sub_commodity"`
	Team         string              `json:"team"`
	Quantity     decimal.Decimal     `json:"quantity"`
	Note         string              `json:"note"`
}

type AllocationBatchRequest struct {
	Requests []AllocationRequestBody `json:"requests"`
}

type BalanceWarning struct {
	SubCommodity models.SubCommodity `json:"sub_commodity"`
	Requested    decimal.Decimal     `json:"requested"`
	Available    decimal.Decimal     `json:"available"`
}

type LedgerEntryResponse struct {
	ID           uint                `json:"id"`
	AllocationID string              `json:"allocation_id"`
	Date         string              `json:"date"`
	SubCommodity models.SubCommodity `json:"sub_commodity"`
	Team         string              `json:"team"`
	StageName    string              `json:"stage_name"`
	Quantity     decimal.Decimal     `json:"quantity"`
	UnitPrice    decimal.Decimal     `json:"unit_price"`
	Amount       decimal.Decimal     `json:"amount"`
	Note         string              `json:"note"`
	CreatedBy    string              `json:"created_by"`
	CreatedAt    string              `json:"created_at"`
}

func entryResponse(e models.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:           e.ID,
		AllocationID: e.AllocationID.String(),
		Date:         e.Date.Format("2006-01-02"),
		SubCommodity: e.SubCommodity,
		Team:         e.Team,
		StageName:    e.StageName,
		Quantity:     e.Quantity,
		UnitPrice:    e.UnitPrice,
		Amount:       e.Amount,
		Note:         e.Note,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// buildSession loads the intake and the full stage configuration, opens a
// session and feeds the batch in. Balance overruns come back as warnings;
// everything else rejects the batch.
func buildSession(c *fiber.Ctx, body AllocationBatchRequest, userName string) (*allocation.Session, []BalanceWarning, error) {
	var e models.IntakeEvent
	if err := database.DB.First(&e, "id = ?", c.Params("id")).Error; err != nil {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "Intake event not found")
	}

	var stages []models.WorkStage
	if err := database.DB.Find(&stages).Error; err != nil {
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load work-stage configuration")
	}

	session := allocation.NewSession(e, allocation.NewRegistry(stages), userName)
	var warnings []BalanceWarning
	for _, req := range body.Requests {
		warning, err := session.Add(allocation.AllocationRequest(req))
		if err != nil {
			switch {
			case errors.Is(err, allocation.ErrNoEligibleStages):
				return nil, nil, fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("Team %s has no eligible stages for %s on %s", req.Team, req.SubCommodity, e.Date.Format("2006-01-02")))
			case errors.Is(err, allocation.ErrDuplicateTeamRequest):
				return nil, nil, fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("Team %s already has a pending %s request in this batch", req.Team, req.SubCommodity))
			default:
				return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Quantity must be a positive number")
			}
		}
		if warning != nil {
			warnings = append(warnings, BalanceWarning{
				SubCommodity: warning.SubCommodity,
				Requested:    warning.Requested,
				Available:    warning.Available,
			})
		}
	}
	return session, warnings, nil
}

// POST /api/intakes/:id/allocations/validate
// Advisory check while the operator is still editing: reports balance
// warnings without persisting anything.
func ValidateAllocationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AllocationBatchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if len(body.Requests) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "requests must not be empty")
		}

		_, userName, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		_, warnings, err := buildSession(c, body, userName)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"ok":       len(warnings) == 0,
			"warnings": warnings,
		})
	}
}

// POST /api/intakes/:id/allocations
// The save step: the whole batch commits atomically or not at all. The
// advisory warnings the operator may have clicked past become hard
// failures here.
func CommitAllocationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AllocationBatchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if len(body.Requests) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "requests must not be empty")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		session, _, err := buildSession(c, body, userName)
		if err != nil {
			return err
		}

		res, err := session.Finalize()
		if err != nil {
			var balErr *allocation.BalanceError
			if errors.As(err, &balErr) {
				return fiber.NewError(fiber.StatusConflict, balErr.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := allocation.Commit(TxRunner{DB: database.DB}, res); err != nil {
			var balErr *allocation.BalanceError
			if errors.As(err, &balErr) {
				// Someone else allocated between our read and our save.
				return fiber.NewError(fiber.StatusConflict, balErr.Error())
			}
			var partial *allocation.PartialFailureError
			if errors.As(err, &partial) {
				return fiber.NewError(fiber.StatusInternalServerError, partial.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not commit allocations")
		}

		var e models.IntakeEvent
		if err := database.DB.First(&e, "id = ?", res.IntakeID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not reload intake event")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "intake_event",
			EntityID:    e.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Allocated %d request(s), %d ledger entries", len(body.Requests), len(res.Entries)),
			After:       e,
		})

		entries := make([]LedgerEntryResponse, 0, len(res.Entries))
		for _, le := range res.Entries {
			entries = append(entries, entryResponse(le))
		}
		status, summary := statusFor(e)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"intake":  intakeResponse(e, status),
			"entries": entries,
			"summary": summary,
		})
	}
}

// GET /api/intakes/:id/allocations
func ListIntakeAllocationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var e models.IntakeEvent
		if err := database.DB.First(&e, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Intake event not found")
		}

		var entries []models.LedgerEntry
		if err := database.DB.
			Where("intake_event_id = ?", e.ID).
			Order("created_at ASC, id ASC").
			Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list ledger entries")
		}

		resp := make([]LedgerEntryResponse, 0, len(entries))
		for _, le := range entries {
			resp = append(resp, entryResponse(le))
		}
		return c.JSON(resp)
	}
}

// GET /api/intakes/:id/status
func IntakeStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var e models.IntakeEvent
		if err := database.DB.First(&e, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Intake event not found")
		}

		status, summary := statusFor(e)
		return c.JSON(fiber.Map{
			"intake_id": e.ID,
			"status":    status,
			"teams":     summary,
			"anh":       lineResponse(e.Anh),
			"em":        lineResponse(e.Em),
		})
	}
}

func statusFor(e models.IntakeEvent) (allocation.Status, []allocation.TeamSummary) {
	var entries []models.LedgerEntry
	_ = database.DB.Where("intake_event_id = ?", e.ID).Find(&entries).Error
	return allocation.Classify(e, entries)
}
