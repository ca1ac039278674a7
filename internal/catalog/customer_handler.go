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

type CustomerResponse struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	TaxCode string `json:"tax_code"`
}

type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	TaxCode string `json:"tax_code"`
}

type UpdateCustomerRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	TaxCode *string `json:"tax_code"`
}

func customerResponse(m models.Customer) CustomerResponse {
	return CustomerResponse{ID: m.ID, Name: m.Name, Address: m.Address, Phone: m.Phone, TaxCode: m.TaxCode}
}

// GET /api/customers
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customers []models.Customer
		if err := database.DB.Order("name asc").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list customers")
		}

		res := make([]CustomerResponse, 0, len(customers))
		for _, m := range customers {
			res = append(res, customerResponse(m))
		}
		return c.JSON(res)
	}
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		m := models.Customer{
			Name:    body.Name,
			Address: strings.TrimSpace(body.Address),
			Phone:   strings.TrimSpace(body.Phone),
			TaxCode: strings.TrimSpace(body.TaxCode),
		}
		if err := database.DB.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not create customer (name may be taken)")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID: userID, UserName: userName,
				EntityType: "customer", EntityID: m.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Customer %s", m.Name),
				After:       m,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(customerResponse(m))
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m models.Customer
		if err := database.DB.First(&m, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}

		var body UpdateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		before := m
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			m.Name = name
		}
		if body.Address != nil {
			m.Address = strings.TrimSpace(*body.Address)
		}
		if body.Phone != nil {
			m.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.TaxCode != nil {
			m.TaxCode = strings.TrimSpace(*body.TaxCode)
		}

		if err := database.DB.Save(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update customer")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID: userID, UserName: userName,
				EntityType: "customer", EntityID: m.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Customer %s updated", m.Name),
				Before:      before, After: m,
			})
		}

		return c.JSON(customerResponse(m))
	}
}

// DELETE /api/customers/:id
func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m models.Customer
		if err := database.DB.First(&m, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}

		var contracts int64
		database.DB.Model(&models.Contract{}).Where("customer_id = ?", m.ID).Count(&contracts)
		if contracts > 0 {
			return fiber.NewError(fiber.StatusConflict, "Customer has contracts and cannot be deleted")
		}

		if err := database.DB.Delete(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete customer")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID: userID, UserName: userName,
				EntityType: "customer", EntityID: m.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Customer %s deleted", m.Name),
				Before:      m,
			})
		}

		return c.JSON(fiber.Map{"deleted": m.ID})
	}
}
