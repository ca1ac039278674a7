package catalog

import (
	"fmt"
	"time"

	"packhouse-backend/internal/audit"
	"packhouse-backend/internal/auth"
	"packhouse-backend/internal/database"
	"packhouse-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type FinishedGoodResponse struct {
	ID            uint            `json:"id"`
	ProductSpecID uint            `json:"product_spec_id"`
	ProductSpec   string          `json:"product_spec"`
	Date          string          `json:"date"`
	Quantity      decimal.Decimal `json:"quantity"`
	Note          string          `json:"note"`
}

type FinishedGoodRequest struct {
	ProductSpecID uint            `json:"product_spec_id"`
	Date          string          `json:"date"`
	Quantity      decimal.Decimal `json:"quantity"`
	Note          string          `json:"note"`
}

func finishedGoodResponse(m models.FinishedGood) FinishedGoodResponse {
	return FinishedGoodResponse{
		ID:            m.ID,
		ProductSpecID: m.ProductSpecID,
		ProductSpec:   m.ProductSpec.Name,
		Date:          m.Date.Format("2006-01-02"),
		Quantity:      m.Quantity,
		Note:          m.Note,
	}
}

// GET /api/finished-goods?from=2026-03-01&to=2026-03-31
func ListFinishedGoodsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.FinishedGood{}).Preload("ProductSpec")
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

		var goods []models.FinishedGood
		if err := dbq.Order("date DESC, id DESC").Find(&goods).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list finished goods")
		}

		res := make([]FinishedGoodResponse, 0, len(goods))
		for _, m := range goods {
			res = append(res, finishedGoodResponse(m))
		}
		return c.JSON(res)
	}
}

// POST /api/finished-goods
func CreateFinishedGoodHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body FinishedGoodRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.ProductSpecID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_spec_id is required")
		}
		if !body.Quantity.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
		}
		d, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
		}

		var spec models.ProductSpec
		if err := database.DB.First(&spec, "id = ?", body.ProductSpecID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Product spec not found")
		}

		m := models.FinishedGood{
			ProductSpecID: body.ProductSpecID,
			Date:          d,
			Quantity:      body.Quantity,
			Note:          body.Note,
		}
		if err := database.DB.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create finished-goods entry")
		}
		m.ProductSpec = spec

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID: userID, UserName: userName,
				EntityType: "finished_good", EntityID: m.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Finished goods: %s - %s %s", spec.Name, m.Quantity, spec.Unit),
				After:       m,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(finishedGoodResponse(m))
	}
}

// DELETE /api/finished-goods/:id
func DeleteFinishedGoodHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m models.FinishedGood
		if err := database.DB.First(&m, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Finished-goods entry not found")
		}

		if err := database.DB.Delete(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete finished-goods entry")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID: userID, UserName: userName,
				EntityType: "finished_good", EntityID: m.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Finished-goods entry %d deleted", m.ID),
				Before:      m,
			})
		}

		return c.JSON(fiber.Map{"deleted": m.ID})
	}
}
