package ledger

import (
	"time"

	"packhouse-backend/internal/database"
	"packhouse-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type LedgerEntryResponse struct {
	ID            uint                `json:"id"`
	AllocationID  string              `json:"allocation_id"`
	IntakeEventID uint                `json:"intake_event_id"`
	Date          string              `json:"date"`
	SubCommodity  models.SubCommodity `json:"sub_commodity"`
	Team          string              `json:"team"`
	StageName     string              `json:"stage_name"`
	Quantity      decimal.Decimal     `json:"quantity"`
	UnitPrice     decimal.Decimal     `json:"unit_price"`
	Amount        decimal.Decimal     `json:"amount"`
	Note          string              `json:"note"`
	CreatedBy     string              `json:"created_by"`
	CreatedAt     string              `json:"created_at"`
}

// GET /api/ledger-entries?team=To%201&sub_commodity=ANH&from=2026-03-01&to=2026-03-31
func ListLedgerEntriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.LedgerEntry{})

		if team := c.Query("team"); team != "" {
			dbq = dbq.Where("team = ?", team)
		}
		if sc := c.Query("sub_commodity"); sc != "" {
			dbq = dbq.Where("sub_commodity = ?", sc)
		}
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

		var entries []models.LedgerEntry
		if err := dbq.Order("date DESC, id DESC").Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list ledger entries")
		}

		resp := make([]LedgerEntryResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, LedgerEntryResponse{
				ID:            e.ID,
				AllocationID:  e.AllocationID.String(),
				IntakeEventID: e.IntakeEventID,
				Date:          e.Date.Format("2006-01-02"),
				SubCommodity:  e.SubCommodity,
				Team:          e.Team,
				StageName:     e.StageName,
				Quantity:      e.Quantity,
				UnitPrice:     e.UnitPrice,
				Amount:        e.Amount,
				Note:          e.Note,
				CreatedBy:     e.CreatedBy,
				CreatedAt:     e.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(resp)
	}
}

type StageProductivityRow struct {
	Team         string              `json:"team"`
	StageName    string              `json:"stage_name"`
	SubCommodity models.SubCommodity `json:"sub_commodity"`
	Quantity     decimal.Decimal     `json:"quantity"`
	Amount       decimal.Decimal     `json:"amount"`
	Entries      int                 `json:"entries"`
}

// GET /api/ledger-entries/summary/monthly?year=2026&month=3
// Billing input: per (team, stage) totals for the month. Every stage of a
// fan-out is billed independently, so summing per stage is correct here,
// unlike the per-team allocation rollup.
func MonthlyProductivityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		year := c.QueryInt("year")
		month := c.QueryInt("month")
		if year < 2000 || month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "year and month are required")
		}

		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)

		var rows []StageProductivityRow
		err := database.DB.Raw(`
			SELECT team, stage_name, sub_commodity,
			       COALESCE(SUM(quantity), 0) AS quantity,
			       COALESCE(SUM(amount), 0) AS amount,
			       COUNT(*) AS entries
			FROM ledger_entries
			WHERE date >= ? AND date < ?
			GROUP BY team, stage_name, sub_commodity
			ORDER BY team, sub_commodity, stage_name
		`, start, end).Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build productivity summary")
		}

		total := decimal.Zero
		for _, r := range rows {
			total = total.Add(r.Amount)
		}

		return c.JSON(fiber.Map{
			"year":         year,
			"month":        month,
			"rows":         rows,
			"total_amount": total,
		})
	}
}
