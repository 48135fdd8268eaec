package handlers

import (
	"Cooki-Backend/domain"
	"Cooki-Backend/internal/api/presenters"
	"Cooki-Backend/pkg/joinrequest"
	"Cooki-Backend/pkg/user"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	JoinRequestHandler interface {
		CreateJoinRequest(c *fiber.Ctx) error
		GetJoinRequests(c *fiber.Ctx) error
		ApproveJoinRequest(c *fiber.Ctx) error
		RejectJoinRequest(c *fiber.Ctx) error
	}

	joinRequestHandler struct {
		joinRequestService joinrequest.JoinRequestService
		userService        user.UserService
		validator          *validator.Validate
	}
)

func NewJoinRequestHandler(joinRequestService joinrequest.JoinRequestService, userService user.UserService, validator *validator.Validate) JoinRequestHandler {
	return &joinRequestHandler{
		joinRequestService: joinRequestService,
		userService:        userService,
		validator:          validator,
	}
}

func (h *joinRequestHandler) CreateJoinRequest(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.CreateJoinRequestRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateJoinRequest, err)
	}

	requester, err := h.userService.GetRequester(c.UserContext(), userID, req.Email)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedCreateJoinRequest, err)
	}

	res, err := h.joinRequestService.CreateJoinRequest(c.UserContext(), req.JoinToken, requester)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedCreateJoinRequest, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateJoinRequest)
}

// GetJoinRequests lists pending requests, or every request with ?status=all.
func (h *joinRequestHandler) GetJoinRequests(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	pantryID := c.Params("id")

	var (
		res []domain.JoinRequestResponse
		err error
	)
	if c.Query("status", "pending") == "all" {
		res, err = h.joinRequestService.GetJoinRequests(c.UserContext(), pantryID, userID)
	} else {
		res, err = h.joinRequestService.GetPendingJoinRequests(c.UserContext(), pantryID, userID)
	}
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetJoinRequests, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetJoinRequests)
}

func (h *joinRequestHandler) ApproveJoinRequest(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.joinRequestService.ApproveJoinRequest(c.UserContext(), c.Params("id"), c.Params("requestId"), userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedApproveJoinRequest, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessApproveJoinRequest)
}

func (h *joinRequestHandler) RejectJoinRequest(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.joinRequestService.RejectJoinRequest(c.UserContext(), c.Params("id"), c.Params("requestId"), userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedRejectJoinRequest, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessRejectJoinRequest)
}
