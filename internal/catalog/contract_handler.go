package catalog

import (
	"fmt"
	"strings"
	"time"

	"packhouse-backend/internal/audit"
	"packhouse-backend/internal/auth"
	"packhouse-backend/internal/database"
	"packhouse-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ContractResponse struct {
	ID            uint            `json:"id"`
	CustomerID    uint            `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	ProductSpecID uint            `json:"product_spec_id"`
	ProductSpec   string          `json:"product_spec"`
	ContractNo    string          `json:"contract_no"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	SignedDate    string          `json:"signed_date"`
	Note          string          `json:"note"`
}

type ContractRequest struct {
	CustomerID    uint            `json:"customer_id"`
	ProductSpecID uint            `json:"product_spec_id"`
	ContractNo    string          `json:"contract_no"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	SignedDate    string          `json:"signed_date"`
	Note          string          `json:"note"`
}

func contractResponse(m models.Contract) ContractResponse {
	return ContractResponse{
		ID:            m.ID,
		CustomerID:    m.CustomerID,
		CustomerName:  m.Customer.Name,
		ProductSpecID: m.ProductSpecID,
		ProductSpec:   m.ProductSpec.Name,
		ContractNo:    m.ContractNo,
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		SignedDate:    m.SignedDate.Format("2006-01-02"),
		Note:          m.Note,
	}
}

func parseContractRequest(body ContractRequest) (models.Contract, error) {
	body.ContractNo = strings.TrimSpace(body.ContractNo)
	if body.CustomerID == 0 || body.ProductSpecID == 0 || body.ContractNo == "" {
		return models.Contract{}, fiber.NewError(fiber.StatusBadRequest, "customer_id, product_spec_id and contract_no are required")
	}
	if !body.Quantity.IsPositive() || !body.UnitPrice.IsPositive() {
		return models.Contract{}, fiber.NewError(fiber.StatusBadRequest, "quantity and unit_price must be positive")
	}
	signed, err := time.Parse("2006-01-02", body.SignedDate)
	if err != nil {
		return models.Contract{}, fiber.NewError(fiber.StatusBadRequest, "signed_date must be 'YYYY-MM-DD'")
	}

	var customer models.Customer
	if err := database.DB.First(&customer, "id = ?", body.CustomerID).Error; err != nil {
		return models.Contract{}, fiber.NewError(fiber.StatusBadRequest, "Customer not found")
	}
	var spec models.ProductSpec
	if err := database.DB.First(&spec, "id = ?", body.ProductSpecID).Error; err != nil {
		return models.Contract{}, fiber.NewError(fiber.StatusBadRequest, "Product spec not found")
	}

	return models.Contract{
		CustomerID:    body.CustomerID,
		ProductSpecID: body.ProductSpecID,
		ContractNo:    body.ContractNo,
		Quantity:      body.Quantity,
		UnitPrice:     body.UnitPrice,
		SignedDate:    signed,
		Note:          body.Note,
	}, nil
}

// GET /api/contracts
func ListContractsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var contracts []models.Contract
		if err := database.DB.
			Preload("Customer").
			Preload("ProductSpec").
			Order("signed_date DESC, id DESC").
			Find(&contracts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list contracts")
		}

		res := make([]ContractResponse, 0, len(contracts))
		for _, m := range contracts {
			res = append(res, contractResponse(m))
		}
		return c.JSON(res)
	}
}

// POST /api/contracts
func CreateContractHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ContractRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		m, err := parseContractRequest(body)
		if err != nil {
			return err
		}
		if err := database.DB.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not create contract (contract_no may be taken)")
		}
		database.DB.Preload("Customer").Preload("ProductSpec").First(&m, m.ID)

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID: userID, UserName: userName,
				EntityType: "contract", EntityID: m.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Contract %s", m.ContractNo),
				After:       m,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(contractResponse(m))
	}
}

// PUT /api/contracts/:id
func UpdateContractHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var existing models.Contract
		if err := database.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Contract not found")
		}

		var body ContractRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		m, err := parseContractRequest(body)
		if err != nil {
			return err
		}

		before := existing
		existing.CustomerID = m.CustomerID
		existing.ProductSpecID = m.ProductSpecID
		existing.ContractNo = m.ContractNo
		existing.Quantity = m.Quantity
		existing.UnitPrice = m.UnitPrice
		existing.SignedDate = m.SignedDate
		existing.Note = m.Note

		if err := database.DB.Save(&existing).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update contract")
		}
		database.DB.Preload("Customer").Preload("ProductSpec").First(&existing, existing.ID)

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID: userID, UserName: userName,
				EntityType: "contract", EntityID: existing.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Contract %s updated", existing.ContractNo),
				Before:      before, After: existing,
			})
		}

		return c.JSON(contractResponse(existing))
	}
}

// DELETE /api/contracts/:id
func DeleteContractHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m models.Contract
		if err := database.DB.First(&m, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Contract not found")
		}

		if err := database.DB.Delete(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete contract")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID: userID, UserName: userName,
				EntityType: "contract", EntityID: m.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Contract %s deleted", m.ContractNo),
				Before:      m,
			})
		}

		return c.JSON(fiber.Map{"deleted": m.ID})
	}
}
