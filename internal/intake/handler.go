package intake

import (
	"fmt"
	"time"

	"packhouse-backend/internal/allocation"
	"packhouse-backend/internal/audit"
	"packhouse-backend/internal/auth"
	"packhouse-backend/internal/database"
	"packhouse-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateIntakeRequest struct {
	Date         string          `json:"date"` // "2026-03-10"
	VehiclePlate string          `json:"vehicle_plate"`
	CustomerName string          `json:"customer_name"`
	Note         string          `json:"note"`
	GrossAnh     decimal.Decimal `json:"gross_anh"`
	GrossEm      decimal.Decimal `json:"gross_em"`
}

type UpdateIntakeRequest struct {
	Date         *string          `json:"date"`
	VehiclePlate *string          `json:"vehicle_plate"`
	CustomerName *string          `json:"customer_name"`
	Note         *string          `json:"note"`
	GrossAnh     *decimal.Decimal `json:"gross_anh"`
	GrossEm      *decimal.Decimal `json:"gross_em"`
}

type IntakeLineResponse struct {
	Gross     decimal.Decimal `json:"gross"`
	Deduction decimal.Decimal `json:"deduction"`
	Net       decimal.Decimal `json:"net"`
	Allocated decimal.Decimal `json:"allocated"`
	Yard      decimal.Decimal `json:"yard"` // clamped to >= 0 for display
}

type IntakeResponse struct {
	ID           uint               `json:"id"`
	Date         string             `json:"date"`
	VehiclePlate string             `json:"vehicle_plate"`
	CustomerName string             `json:"customer_name"`
	Note         string             `json:"note"`
	CreatedBy    string             `json:"created_by"`
	Anh          IntakeLineResponse `json:"anh"`
	Em           IntakeLineResponse `json:"em"`
	Status       allocation.Status  `json:"status"`
	CreatedAt    string             `json:"created_at"`
}

func lineResponse(l models.IntakeLine) IntakeLineResponse {
	yard := l.Yard
	if yard.IsNegative() {
		yard = decimal.Zero
	}
	return IntakeLineResponse{
		Gross:     l.Gross,
		Deduction: l.Deduction,
		Net:       l.Net,
		Allocated: l.Allocated,
		Yard:      yard,
	}
}

func intakeResponse(e models.IntakeEvent, status allocation.Status) IntakeResponse {
	return IntakeResponse{
		ID:           e.ID,
		Date:         e.Date.Format("2006-01-02"),
		VehiclePlate: e.VehiclePlate,
		CustomerName: e.CustomerName,
		Note:         e.Note,
		CreatedBy:    e.CreatedBy,
		Anh:          lineResponse(e.Anh),
		Em:           lineResponse(e.Em),
		Status:       status,
		CreatedAt:    e.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/intakes
func CreateIntakeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateIntakeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.VehiclePlate == "" || body.CustomerName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "vehicle_plate and customer_name are required")
		}
		d, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
		}
		if !body.GrossAnh.IsPositive() && !body.GrossEm.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "at least one sub-commodity must have a gross quantity")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		e := models.IntakeEvent{
			Date:         d,
			VehiclePlate: body.VehiclePlate,
			CustomerName: body.CustomerName,
			Note:         body.Note,
			CreatedBy:    userName,
		}
		if err := allocation.RecomputeLine(&e.Anh, body.GrossAnh); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "gross_anh must not be negative")
		}
		if err := allocation.RecomputeLine(&e.Em, body.GrossEm); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "gross_em must not be negative")
		}

		if err := database.DB.Create(&e).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create intake event")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "intake_event",
			EntityID:    e.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Intake %s: ANH %s, EM %s", e.VehiclePlate, e.Anh.Gross, e.Em.Gross),
			After:       e,
		})

		return c.Status(fiber.StatusCreated).JSON(intakeResponse(e, allocation.StatusUnallocated))
	}
}

// GET /api/intakes?from=2026-03-01&to=2026-03-31
func ListIntakesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.IntakeEvent{})
		if from := c.Query("from"); from != "" {
			if d, err := time.Parse("2006-01-02", from); err == nil {
				dbq = dbq.Where("date >= ?", d)
			}
		}
		if to := c.Query("to"); to != "" {
			if d, err := time.Parse("2006-01-02", to); err == nil {
				dbq = dbq.Where("date <= ?", d)
			}
		}

		var events []models.IntakeEvent
		if err := dbq.Order("date DESC, id DESC").Find(&events).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list intake events")
		}

		// Status needs the linked ledger entries; one bulk fetch.
		ids := make([]uint, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		var entries []models.LedgerEntry
		if len(ids) > 0 {
			if err := database.DB.Where("intake_event_id IN ?", ids).Find(&entries).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not load ledger entries")
			}
		}
		byIntake := make(map[uint][]models.LedgerEntry)
		for _, le := range entries {
			byIntake[le.IntakeEventID] = append(byIntake[le.IntakeEventID], le)
		}

		resp := make([]IntakeResponse, 0, len(events))
		for _, e := range events {
			status, _ := allocation.Classify(e, byIntake[e.ID])
			resp = append(resp, intakeResponse(e, status))
		}
		return c.JSON(resp)
	}
}

// GET /api/intakes/:id
func GetIntakeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var e models.IntakeEvent
		if err := database.DB.First(&e, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Intake event not found")
		}
		var entries []models.LedgerEntry
		if err := database.DB.Where("intake_event_id = ?", e.ID).Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load ledger entries")
		}
		status, _ := allocation.Classify(e, entries)
		return c.JSON(intakeResponse(e, status))
	}
}

// PUT /api/intakes/:id
func UpdateIntakeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var e models.IntakeEvent
		if err := database.DB.First(&e, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Intake event not found")
		}

		var body UpdateIntakeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		before := e

		var entryCount int64
		database.DB.Model(&models.LedgerEntry{}).
			Where("intake_event_id = ?", e.ID).
			Count(&entryCount)

		if body.Date != nil {
			d, err := time.Parse("2006-01-02", *body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
			}
			// Ledger entries are stamped with the intake date and stage
			// eligibility was checked against it.
			if entryCount > 0 && !d.Equal(e.Date) {
				return fiber.NewError(fiber.StatusBadRequest, "Cannot change the date after allocations exist")
			}
			e.Date = d
		}
		if body.VehiclePlate != nil {
			if *body.VehiclePlate == "" {
				return fiber.NewError(fiber.StatusBadRequest, "vehicle_plate must not be empty")
			}
			e.VehiclePlate = *body.VehiclePlate
		}
		if body.CustomerName != nil {
			if *body.CustomerName == "" {
				return fiber.NewError(fiber.StatusBadRequest, "customer_name must not be empty")
			}
			e.CustomerName = *body.CustomerName
		}
		if body.Note != nil {
			e.Note = *body.Note
		}

		if body.GrossAnh != nil {
			if err := allocation.RecomputeLine(&e.Anh, *body.GrossAnh); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "gross_anh must not be negative")
			}
		}
		if body.GrossEm != nil {
			if err := allocation.RecomputeLine(&e.Em, *body.GrossEm); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "gross_em must not be negative")
			}
		}
		if !e.Anh.Gross.IsPositive() && !e.Em.Gross.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "at least one sub-commodity must have a gross quantity")
		}

		// A gross reduction must not strand quantities that were already
		// allocated to teams.
		for _, sc := range models.SubCommodities {
			line := e.Line(sc)
			if line.Yard.LessThan(allocation.Epsilon.Neg()) {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("%s gross too low: %s already allocated, net would be %s",
						sc, line.Allocated, line.Net))
			}
		}

		if err := database.DB.Save(&e).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update intake event")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "intake_event",
				EntityID:    e.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Intake %s updated", e.VehiclePlate),
				Before:      before,
				After:       e,
			})
		}

		var entries []models.LedgerEntry
		_ = database.DB.Where("intake_event_id = ?", e.ID).Find(&entries).Error
		status, _ := allocation.Classify(e, entries)
		return c.JSON(intakeResponse(e, status))
	}
}

// DELETE /api/intakes/:id
func DeleteIntakeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var e models.IntakeEvent
		if err := database.DB.First(&e, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Intake event not found")
		}

		// The ledger is append-only; an intake with allocations cannot be
		// removed without stranding its entries.
		var count int64
		database.DB.Model(&models.LedgerEntry{}).
			Where("intake_event_id = ?", e.ID).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Intake has %d ledger entries and cannot be deleted", count))
		}

		if err := database.DB.Delete(&e).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete intake event")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "intake_event",
				EntityID:    e.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Intake %s (%s) deleted", e.VehiclePlate, e.Date.Format("2006-01-02")),
				Before:      e,
			})
		}

		return c.JSON(fiber.Map{"deleted": e.ID})
	}
}
