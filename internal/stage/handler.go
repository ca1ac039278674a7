package stage

import (
	"fmt"
	"strings"
	"time"

	"packhouse-backend/internal/allocation"
	"packhouse-backend/internal/audit"
	"packhouse-backend/internal/auth"
	"packhouse-backend/internal/database"
	"packhouse-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type WorkStageRequest struct {
	Team          string              `json:"team"`
	StageName     string              `json:"stage_name"`
	SubCommodity  models.SubCommodity `json:"sub_commodity"`
	UnitPrice     decimal.Decimal     `json:"unit_price"`
	Unit          string              `json:"unit"`
	Staffing      string              `json:"staffing"`
	EffectiveFrom string              `json:"effective_from"`
	EffectiveTo   string              `json:"effective_to"`
}

type WorkStageResponse struct {
	ID            uint                `json:"id"`
	Team          string              `json:"team"`
	StageName     string              `json:"stage_name"`
	SubCommodity  models.SubCommodity `json:"sub_commodity"`
	UnitPrice     decimal.Decimal     `json:"unit_price"`
	Unit          string              `json:"unit"`
	Staffing      string              `json:"staffing"`
	EffectiveFrom string              `json:"effective_from"`
	EffectiveTo   string              `json:"effective_to"`
}

func stageResponse(w models.WorkStage) WorkStageResponse {
	return WorkStageResponse{
		ID:            w.ID,
		Team:          w.Team,
		StageName:     w.StageName,
		SubCommodity:  w.SubCommodity,
		UnitPrice:     w.UnitPrice,
		Unit:          w.Unit,
		Staffing:      w.Staffing,
		EffectiveFrom: w.EffectiveFrom.Format("2006-01-02"),
		EffectiveTo:   w.EffectiveTo.Format("2006-01-02"),
	}
}

func parseStageRequest(body WorkStageRequest) (models.WorkStage, error) {
	body.Team = strings.TrimSpace(body.Team)
	body.StageName = strings.TrimSpace(body.StageName)
	body.Unit = strings.TrimSpace(body.Unit)

	if body.Team == "" || body.StageName == "" || body.Unit == "" {
		return models.WorkStage{}, fiber.NewError(fiber.StatusBadRequest, "team, stage_name and unit are required")
	}
	if !body.SubCommodity.Valid() {
		return models.WorkStage{}, fiber.NewError(fiber.StatusBadRequest, "sub_commodity must be ANH or EM")
	}
	if !body.UnitPrice.IsPositive() {
		return models.WorkStage{}, fiber.NewError(fiber.StatusBadRequest, "unit_price must be positive")
	}
	from, err := time.Parse("2006-01-02", body.EffectiveFrom)
	if err != nil {
		return models.WorkStage{}, fiber.NewError(fiber.StatusBadRequest, "effective_from must be 'YYYY-MM-DD'")
	}
	to, err := time.Parse("2006-01-02", body.EffectiveTo)
	if err != nil {
		return models.WorkStage{}, fiber.NewError(fiber.StatusBadRequest, "effective_to must be 'YYYY-MM-DD'")
	}
	if to.Before(from) {
		return models.WorkStage{}, fiber.NewError(fiber.StatusBadRequest, "effective_to must not be before effective_from")
	}

	return models.WorkStage{
		Team:          body.Team,
		StageName:     body.StageName,
		SubCommodity:  body.SubCommodity,
		UnitPrice:     body.UnitPrice,
		Unit:          body.Unit,
		Staffing:      body.Staffing,
		EffectiveFrom: from,
		EffectiveTo:   to,
	}, nil
}

// checkOverlap rejects a window that intersects another row for the same
// team/stage/category. Overlapping windows would make stagesFor ambiguous;
// the config must be disjoint instead of silently letting the last row win.
func checkOverlap(w models.WorkStage, excludeID uint) error {
	var count int64
	q := database.DB.Model(&models.WorkStage{}).
		Where("team = ? AND stage_name = ? AND sub_commodity = ?", w.Team, w.StageName, w.SubCommodity).
		Where("effective_from <= ? AND effective_to >= ?", w.EffectiveTo, w.EffectiveFrom)
	if excludeID > 0 {
		q = q.Where("id != ?", excludeID)
	}
	q.Count(&count)
	if count > 0 {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("An effective window for %s / %s / %s already overlaps this range", w.Team, w.StageName, w.SubCommodity))
	}
	return nil
}

// POST /api/work-stages
func CreateWorkStageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body WorkStageRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		w, err := parseStageRequest(body)
		if err != nil {
			return err
		}
		if err := checkOverlap(w, 0); err != nil {
			return err
		}

		if err := database.DB.Create(&w).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create work stage")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "work_stage",
				EntityID:    w.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Stage %s / %s (%s)", w.Team, w.StageName, w.SubCommodity),
				After:       w,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(stageResponse(w))
	}
}

// GET /api/work-stages?team=To%201&sub_commodity=ANH
func ListWorkStagesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.WorkStage{})
		if team := c.Query("team"); team != "" {
			dbq = dbq.Where("team = ?", team)
		}
		if sc := c.Query("sub_commodity"); sc != "" {
			dbq = dbq.Where("sub_commodity = ?", sc)
		}

		var stages []models.WorkStage
		if err := dbq.Order("team ASC, sub_commodity ASC, stage_name ASC").Find(&stages).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list work stages")
		}

		resp := make([]WorkStageResponse, 0, len(stages))
		for _, w := range stages {
			resp = append(resp, stageResponse(w))
		}
		return c.JSON(resp)
	}
}

// GET /api/work-stages/eligible?sub_commodity=ANH&date=2026-03-10[&team=To%201]
// Teams (or one team's fan-out set) usable as allocation targets on a date.
func EligibleStagesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc := models.SubCommodity(c.Query("sub_commodity"))
		if !sc.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "sub_commodity must be ANH or EM")
		}
		asOf, err := time.Parse("2006-01-02", c.Query("date"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
		}

		var stages []models.WorkStage
		if err := database.DB.Find(&stages).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load work-stage configuration")
		}
		reg := allocation.NewRegistry(stages)

		if team := c.Query("team"); team != "" {
			fanout := reg.StagesFor(team, sc, asOf)
			resp := make([]WorkStageResponse, 0, len(fanout))
			for _, w := range fanout {
				resp = append(resp, stageResponse(w))
			}
			return c.JSON(fiber.Map{
				"team":   team,
				"stages": resp,
			})
		}

		return c.JSON(fiber.Map{
			"teams": reg.EligibleTeams(sc, asOf),
		})
	}
}

// PUT /api/work-stages/:id
func UpdateWorkStageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var existing models.WorkStage
		if err := database.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Work stage not found")
		}

		var body WorkStageRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		w, err := parseStageRequest(body)
		if err != nil {
			return err
		}
		if err := checkOverlap(w, existing.ID); err != nil {
			return err
		}

		before := existing
		existing.Team = w.Team
		existing.StageName = w.StageName
		existing.SubCommodity = w.SubCommodity
		existing.UnitPrice = w.UnitPrice
		existing.Unit = w.Unit
		existing.Staffing = w.Staffing
		existing.EffectiveFrom = w.EffectiveFrom
		existing.EffectiveTo = w.EffectiveTo

		if err := database.DB.Save(&existing).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update work stage")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "work_stage",
				EntityID:    existing.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Stage %s / %s updated", existing.Team, existing.StageName),
				Before:      before,
				After:       existing,
			})
		}

		return c.JSON(stageResponse(existing))
	}
}

// DELETE /api/work-stages/:id
func DeleteWorkStageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var w models.WorkStage
		if err := database.DB.First(&w, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Work stage not found")
		}

		// Ledger entries copied this stage's price at allocation time, so
		// history survives; only the configuration row goes away.
		if err := database.DB.Delete(&w).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete work stage")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "work_stage",
				EntityID:    w.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Stage %s / %s deleted", w.Team, w.StageName),
				Before:      w,
			})
		}

		return c.JSON(fiber.Map{"deleted": w.ID})
	}
}
