package handlers

import (
	"Cooki-Backend/domain"
	"Cooki-Backend/internal/api/presenters"
	"Cooki-Backend/internal/middleware"
	"Cooki-Backend/pkg/item"
	"Cooki-Backend/pkg/pantry"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	PantryHandler interface {
		CreatePantry(c *fiber.Ctx) error
		GetPantries(c *fiber.Ctx) error
		GetCurrentPantry(c *fiber.Ctx) error
		GetPantry(c *fiber.Ctx) error
		UpdatePantry(c *fiber.Ctx) error
		RotateJoinToken(c *fiber.Ctx) error
		GetJoinQRCode(c *fiber.Ctx) error
		AddMember(c *fiber.Ctx) error
		RemoveMember(c *fiber.Ctx) error
		GetPantryStats(c *fiber.Ctx) error
	}

	pantryHandler struct {
		pantryService pantry.PantryService
		itemService   item.ItemService
		validator     *validator.Validate
	}
)

func NewPantryHandler(pantryService pantry.PantryService, itemService item.ItemService, validator *validator.Validate) PantryHandler {
	return &pantryHandler{
		pantryService: pantryService,
		itemService:   itemService,
		validator:     validator,
	}
}

func (h *pantryHandler) CreatePantry(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.CreatePantryRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreatePantry, err)
	}

	res, err := h.pantryService.CreatePantry(c.UserContext(), *req, userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedCreatePantry, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreatePantry)
}

func (h *pantryHandler) GetPantries(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.pantryService.GetUserPantries(c.UserContext(), userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetPantries, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetPantries)
}

func (h *pantryHandler) GetCurrentPantry(c *fiber.Ctx) error {
	session := middleware.Session(c)

	current, err := h.pantryService.CurrentPantry(c.UserContext(), session)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetPantry, err)
	}

	res, err := h.pantryService.GetPantry(c.UserContext(), current.ID.String(), session.UserID.String())
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetPantry, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetPantry)
}

func (h *pantryHandler) GetPantry(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.pantryService.GetPantry(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetPantry, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetPantry)
}

func (h *pantryHandler) UpdatePantry(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.UpdatePantryRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdatePantry, err)
	}

	res, err := h.pantryService.UpdatePantry(c.UserContext(), c.Params("id"), *req, userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedUpdatePantry, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdatePantry)
}

func (h *pantryHandler) RotateJoinToken(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.pantryService.RotateJoinToken(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedRotateJoinToken, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessRotateJoinToken)
}

func (h *pantryHandler) GetJoinQRCode(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	png, err := h.pantryService.JoinTokenQRCode(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGenerateQRCode, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Status(fiber.StatusOK).Send(png)
}

func (h *pantryHandler) AddMember(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.AddMemberRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddMember, err)
	}

	if err := h.pantryService.AddMember(c.UserContext(), c.Params("id"), userID, req.UserID); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedAddMember, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusCreated, domain.MessageSuccessAddMember)
}

func (h *pantryHandler) RemoveMember(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	if err := h.pantryService.RemoveMember(c.UserContext(), c.Params("id"), userID, c.Params("userId")); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedRemoveMember, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessRemoveMember)
}

func (h *pantryHandler) GetPantryStats(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.itemService.GetPantryStats(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetPantryStats, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetPantryStats)
}
