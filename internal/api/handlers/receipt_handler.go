package handlers

import (
	"Cooki-Backend/domain"
	"Cooki-Backend/internal/api/presenters"
	"Cooki-Backend/internal/middleware"
	"Cooki-Backend/pkg/receipt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ReceiptHandler interface {
		UploadReceipt(c *fiber.Ctx) error
		GetReceiptScan(c *fiber.Ctx) error
		RetryReceipt(c *fiber.Ctx) error
		SaveScannedItems(c *fiber.Ctx) error
	}

	receiptHandler struct {
		receiptService receipt.ReceiptService
		validator      *validator.Validate
	}
)

func NewReceiptHandler(receiptService receipt.ReceiptService, validator *validator.Validate) ReceiptHandler {
	return &receiptHandler{
		receiptService: receiptService,
		validator:      validator,
	}
}

func (h *receiptHandler) UploadReceipt(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadReceipt, err)
	}
	req := domain.UploadReceiptRequest{ReceiptFile: file}

	res, err := h.receiptService.UploadReceipt(c.UserContext(), middleware.Session(c), req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedProcessReceipt, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessUploadReceipt)
}

func (h *receiptHandler) GetReceiptScan(c *fiber.Ctx) error {
	res, err := h.receiptService.GetReceiptScan(c.UserContext(), middleware.Session(c), c.Params("id"))
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetReceiptScan, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetReceiptScan)
}

func (h *receiptHandler) RetryReceipt(c *fiber.Ctx) error {
	res, err := h.receiptService.RetryReceipt(c.UserContext(), middleware.Session(c), c.Params("id"))
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedRetryReceipt, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessRetryReceipt)
}

func (h *receiptHandler) SaveScannedItems(c *fiber.Ctx) error {
	req := new(domain.SaveScannedItemsRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
		}
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSaveScannedItems, err)
	}

	res, err := h.receiptService.SaveScannedItems(c.UserContext(), middleware.Session(c), c.Params("id"), *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedSaveScannedItems, err)
	}

	status := fiber.StatusCreated
	if len(res.Failed) > 0 {
		status = fiber.StatusMultiStatus
	}
	return presenters.SuccessResponse(c, res, status, domain.MessageSuccessSaveScannedItems)
}
