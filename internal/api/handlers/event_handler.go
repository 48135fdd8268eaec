package handlers

import (
	"Cooki-Backend/domain"
	"Cooki-Backend/internal/api/presenters"
	"Cooki-Backend/pkg/event"
	"Cooki-Backend/pkg/pantry"

	"github.com/gofiber/fiber/v2"
)

type (
	EventHandler interface {
		GetUserEvents(c *fiber.Ctx) error
		GetPantryEvents(c *fiber.Ctx) error
		MarkUserEventRead(c *fiber.Ctx) error
		MarkPantryEventRead(c *fiber.Ctx) error
	}

	eventHandler struct {
		eventService  event.EventService
		pantryService pantry.PantryService
	}
)

func NewEventHandler(eventService event.EventService, pantryService pantry.PantryService) EventHandler {
	return &eventHandler{
		eventService:  eventService,
		pantryService: pantryService,
	}
}

func (h *eventHandler) GetUserEvents(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	return h.list(c, domain.UserScope(userID), userID)
}

func (h *eventHandler) GetPantryEvents(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	pantryID := c.Params("id")

	if err := h.pantryService.Authorize(c.UserContext(), pantryID, userID); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetEvents, err)
	}
	return h.list(c, domain.PantryScope(pantryID), userID)
}

func (h *eventHandler) MarkUserEventRead(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	if err := h.eventService.MarkRead(c.UserContext(), domain.UserScope(userID), c.Params("id"), userID); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedMarkRead, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessMarkRead)
}

func (h *eventHandler) MarkPantryEventRead(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	pantryID := c.Params("id")

	if err := h.pantryService.Authorize(c.UserContext(), pantryID, userID); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedMarkRead, err)
	}
	if err := h.eventService.MarkRead(c.UserContext(), domain.PantryScope(pantryID), c.Params("eventId"), userID); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedMarkRead, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessMarkRead)
}

// list returns every event of the scope, or only the caller's unread ones
// with ?unread=true.
func (h *eventHandler) list(c *fiber.Ctx, scope domain.EventScope, userID string) error {
	var (
		res []domain.EventResponse
		err error
	)
	if c.QueryBool("unread") {
		res, err = h.eventService.GetUnreadEvents(c.UserContext(), scope, userID)
	} else {
		res, err = h.eventService.GetEvents(c.UserContext(), scope, userID)
	}
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetEvents, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetEvents)
}
