package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/online-booking/booking-service/internal/api/dto"
	"github.com/online-booking/booking-service/internal/domain"
	"github.com/online-booking/booking-service/internal/service"
)

// AdminHandler exposes the table browser and account administration.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: adminService}
}

// Tables handles GET /admin/tables.
func (h *AdminHandler) Tables(c *fiber.Ctx) error {
	tables, err := h.admin.Tables(callerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tables})
}

// ListRecords handles GET /admin/tables/:table/records.
func (h *AdminHandler) ListRecords(c *fiber.Ctx) error {
	problems := domain.FieldErrors{}
	q := service.ListQuery{
		SortBy: c.Query("sort_by"),
		Order:  c.Query("order"),
		Limit:  queryInt(c, "limit", problems),
		Offset: queryInt(c, "offset", problems),
	}
	if len(problems) > 0 {
		return problems
	}

	page, err := h.admin.ListRecords(c.UserContext(), callerFrom(c), c.Params("table"), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": page})
}

// GetRecord handles GET /admin/tables/:table/records/:id.
func (h *AdminHandler) GetRecord(c *fiber.Ctx) error {
	record, err := h.admin.GetRecord(c.UserContext(), callerFrom(c), c.Params("table"), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": record})
}

// PatchRecord handles PATCH /admin/tables/:table/records/:id.
func (h *AdminHandler) PatchRecord(c *fiber.Ctx) error {
	var fields map[string]any
	if err := bindJSON(c, &fields); err != nil {
		return err
	}

	record, err := h.admin.PatchRecord(c.UserContext(), callerFrom(c), c.Params("table"), c.Params("id"), fields)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": record})
}

// DeleteRecord handles DELETE /admin/tables/:table/records/:id.
func (h *AdminHandler) DeleteRecord(c *fiber.Ctx) error {
	if err := h.admin.DeleteRecord(c.UserContext(), callerFrom(c), c.Params("table"), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deleted"}})
}

// UpdateRole handles PUT /admin/accounts/:id/role.
func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	var req dto.RoleUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	account, err := h.admin.UpdateRole(c.UserContext(), callerFrom(c), c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"account": dto.NewAccountResponse(account)}})
}

// CreateAccount handles POST /admin/accounts.
func (h *AdminHandler) CreateAccount(c *fiber.Ctx) error {
	var req dto.CreateAccountRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	account, err := h.admin.CreateAccount(c.UserContext(), callerFrom(c), req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"account": dto.NewAccountResponse(account)},
	})
}
