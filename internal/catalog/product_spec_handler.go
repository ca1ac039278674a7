package catalog

import (
	"fmt"
	"strings"

	"packhouse-backend/internal/audit"
	"packhouse-backend/internal/auth"
	"packhouse-backend/internal/database"
	"packhouse-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ProductSpecResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Dimension string `json:"dimension"`
	Grade     string `json:"grade"`
	Unit      string `json:"unit"`
}

type ProductSpecRequest struct {
	Name      string `json:"name"`
	Dimension string `json:"dimension"`
	Grade     string `json:"grade"`
	Unit      string `json:"unit"`
}

func specResponse(m models.ProductSpec) ProductSpecResponse {
	return ProductSpecResponse{ID: m.ID, Name: m.Name, Dimension: m.Dimension, Grade: m.Grade, Unit: m.Unit}
}

// GET /api/product-specs
func ListProductSpecsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var specs []models.ProductSpec
		if err := database.DB.Order("name asc").Find(&specs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list product specs")
		}

		res := make([]ProductSpecResponse, 0, len(specs))
		for _, m := range specs {
			res = append(res, specResponse(m))
		}
		return c.JSON(res)
	}
}

// POST /api/product-specs
func CreateProductSpecHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductSpecRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)
		if body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and unit are required")
		}

		m := models.ProductSpec{
			Name:      body.Name,
			Dimension: strings.TrimSpace(body.Dimension),
			Grade:     strings.TrimSpace(body.Grade),
			Unit:      body.Unit,
		}
		if err := database.DB.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not create product spec (name may be taken)")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID: userID, UserName: userName,
				EntityType: "product_spec", EntityID: m.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Product spec %s", m.Name),
				After:       m,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(specResponse(m))
	}
}

// PUT /api/product-specs/:id
func UpdateProductSpecHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m models.ProductSpec
		if err := database.DB.First(&m, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product spec not found")
		}

		var body ProductSpecRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)
		if body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and unit are required")
		}

		before := m
		m.Name = body.Name
		m.Dimension = strings.TrimSpace(body.Dimension)
		m.Grade = strings.TrimSpace(body.Grade)
		m.Unit = body.Unit

		if err := database.DB.Save(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product spec")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID: userID, UserName: userName,
				EntityType: "product_spec", EntityID: m.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Product spec %s updated", m.Name),
				Before:      before, After: m,
			})
		}

		return c.JSON(specResponse(m))
	}
}

// DELETE /api/product-specs/:id
func DeleteProductSpecHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m models.ProductSpec
		if err := database.DB.First(&m, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product spec not found")
		}

		var used int64
		database.DB.Model(&models.Contract{}).Where("product_spec_id = ?", m.ID).Count(&used)
		if used == 0 {
			database.DB.Model(&models.FinishedGood{}).Where("product_spec_id = ?", m.ID).Count(&used)
		}
		if used > 0 {
			return fiber.NewError(fiber.StatusConflict, "Product spec is in use and cannot be deleted")
		}

		if err := database.DB.Delete(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete product spec")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID: userID, UserName: userName,
				EntityType: "product_spec", EntityID: m.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Product spec %s deleted", m.Name),
				Before:      m,
			})
		}

		return c.JSON(fiber.Map{"deleted": m.ID})
	}
}
