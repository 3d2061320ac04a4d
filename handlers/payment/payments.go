package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/services/payment"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gamifylearn/gamification-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Ledger records payment attempts; see payment.LedgerService
type Ledger interface {
	RecordPending(ctx context.Context, tx *model.PaymentTransaction) error
	FindByTxRef(ctx context.Context, txRef string) (*model.PaymentTransaction, error)
	MarkResult(ctx context.Context, txRef, status, gatewayID string, raw []byte) error
}

// PaymentHandler handles course purchases and card management
type PaymentHandler struct {
	courses   database.CourseStore
	gateway   *payment.Service
	ledger    Ledger
	validator *validation.Validator
}

// NewPaymentHandler creates a new payment handler; ledger may be nil
func NewPaymentHandler(courses database.CourseStore, gateway *payment.Service, ledger Ledger) *PaymentHandler {
	return &PaymentHandler{
		courses:   courses,
		gateway:   gateway,
		ledger:    ledger,
		validator: validation.NewValidator(),
	}
}

// ProcessPaymentRequest is the body of a course purchase
type ProcessPaymentRequest struct {
	CardToken string `json:"cardToken" validate:"required"`
}

// ProcessPayment handles POST /api/v1/payment/course/:courseId
func (h *PaymentHandler) ProcessPayment(c *fiber.Ctx) error {
	learner, err := middleware.CurrentLearner(c)
	if err != nil {
		return err
	}

	in := validation.InputFrom(c)
	courseID, err := in.ParamObjectID("courseId", "Invalid course id")
	if err != nil {
		return err
	}

	var req ProcessPaymentRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	course, err := h.courses.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.NotFound("Course not found")
		}
		return apperror.Internal(err)
	}
	if course.HasLearner(learner.ID) {
		return apperror.Conflict("You are already enrolled in this course")
	}

	txRef := "course-" + uuid.New().String()
	if h.ledger != nil {
		err := h.ledger.RecordPending(ctx, &model.PaymentTransaction{
			TxRef:    txRef,
			UserID:   learner.ID.Hex(),
			CourseID: courseID.Hex(),
			Amount:   course.Price,
			Currency: h.gateway.Currency(),
		})
		if err != nil {
			return apperror.Internal(err)
		}
	}

	resp, err := h.gateway.ProcessPayment(ctx, payment.PaymentRequest{
		TxRef:     txRef,
		UserID:    learner.ID.Hex(),
		Email:     learner.Email,
		CardToken: req.CardToken,
		Amount:    course.Price,
		CourseID:  courseID.Hex(),
	})
	if err != nil {
		h.markFailed(ctx, txRef, err)
		return gatewayFailure(err)
	}

	return response.Success(c, fiber.Map{
		"txRef":   txRef,
		"status":  resp.Status,
		"message": resp.Message,
		"data":    resp.Data,
	}, "Payment initiated successfully")
}

// VerifyPayment handles GET /api/v1/payment/verify/:transactionId.
// A successful transaction enrolls the paying learner in the course.
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	learner, err := middleware.CurrentLearner(c)
	if err != nil {
		return err
	}

	transactionID := c.Params("transactionId")
	if transactionID == "" {
		return apperror.BadRequest("Invalid transaction id")
	}

	ctx := c.UserContext()
	resp, err := h.gateway.VerifyPayment(ctx, transactionID)
	if err != nil {
		return gatewayFailure(err)
	}

	tx, err := resp.Transaction()
	if err != nil {
		return apperror.Payment("Unexpected payment gateway response", nil, err)
	}

	userID, courseHex := tx.Meta.UserID, tx.Meta.CourseID
	var expected float64
	currency := h.gateway.Currency()
	if h.ledger != nil {
		record, err := h.ledger.FindByTxRef(ctx, tx.TxRef)
		if err != nil {
			if errors.Is(err, payment.ErrTransactionNotFound) {
				return apperror.NotFound("Payment not found")
			}
			return apperror.Internal(err)
		}
		userID, courseHex, expected = record.UserID, record.CourseID, record.Amount
		if record.Currency != "" {
			currency = record.Currency
		}
	}
	if userID != learner.ID.Hex() {
		return apperror.Forbidden("This payment belongs to another user")
	}

	if !strings.EqualFold(tx.Status, model.PaymentStatusSuccessful) {
		if strings.EqualFold(tx.Status, model.PaymentStatusFailed) {
			h.record(ctx, tx.TxRef, model.PaymentStatusFailed, tx.ID, resp.Raw)
		}
		return response.Success(c, fiber.Map{"status": tx.Status, "txRef": tx.TxRef, "enrolled": false}, "Payment not completed")
	}

	courseID, err := validation.ObjectIDFromHex(courseHex)
	if err != nil {
		return apperror.BadRequest("Payment is not linked to a course")
	}
	// without a ledger the price comes from the course itself
	if h.ledger == nil {
		course, err := h.courses.GetCourse(ctx, courseID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return apperror.NotFound("Course not found")
			}
			return apperror.Internal(err)
		}
		expected = course.Price
	}
	if tx.Amount < expected || !strings.EqualFold(tx.Currency, currency) {
		h.record(ctx, tx.TxRef, model.PaymentStatusFailed, tx.ID, resp.Raw)
		return apperror.BadRequest("Paid amount does not match the course price")
	}

	if err := h.courses.AddLearnerToCourse(ctx, courseID, learner.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.NotFound("Course not found")
		}
		return apperror.Internal(err)
	}
	h.record(ctx, tx.TxRef, model.PaymentStatusSuccessful, tx.ID, resp.Raw)

	return response.Success(c, fiber.Map{"status": tx.Status, "txRef": tx.TxRef, "enrolled": true}, "Payment verified successfully")
}

// ChargeCard handles POST /api/v1/payment/charge
func (h *PaymentHandler) ChargeCard(c *fiber.Ctx) error {
	learner, err := middleware.CurrentLearner(c)
	if err != nil {
		return err
	}

	var req payment.CardChargeData
	if err := c.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body").Wrap(err)
	}
	if req.Customer.Email == "" {
		req.Customer.Email = learner.Email
	}
	if req.Customer.ID == "" {
		req.Customer.ID = learner.ID.Hex()
	}
	if err := h.validate(&req); err != nil {
		return err
	}
	if req.TxRef == "" {
		req.TxRef = "charge-" + uuid.New().String()
	}

	resp, err := h.gateway.ChargeCard(c.UserContext(), req)
	if err != nil {
		return gatewayFailure(err)
	}

	return response.Success(c, fiber.Map{"txRef": req.TxRef, "status": resp.Status, "data": resp.Data}, "Card charged successfully")
}

// SaveCard handles POST /api/v1/payment/card
func (h *PaymentHandler) SaveCard(c *fiber.Ctx) error {
	learner, err := middleware.CurrentLearner(c)
	if err != nil {
		return err
	}

	var req payment.SaveCardData
	if err := c.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body").Wrap(err)
	}
	if req.Customer.Email == "" {
		req.Customer.Email = learner.Email
	}
	req.Customer.ID = learner.ID.Hex()
	if err := h.validate(&req); err != nil {
		return err
	}

	resp, err := h.gateway.SaveCard(c.UserContext(), req)
	if err != nil {
		return gatewayFailure(err)
	}

	return response.Success(c, resp.Data, "Card saved successfully", fiber.StatusCreated)
}

// DeleteCard handles DELETE /api/v1/payment/card/:token
func (h *PaymentHandler) DeleteCard(c *fiber.Ctx) error {
	if _, err := middleware.CurrentLearner(c); err != nil {
		return err
	}

	token := c.Params("token")
	if token == "" {
		return apperror.BadRequest("Invalid card token")
	}

	if _, err := h.gateway.DeleteCard(c.UserContext(), token); err != nil {
		return gatewayFailure(err)
	}

	return response.Success(c, nil, "Card deleted successfully")
}

func (h *PaymentHandler) parse(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.BadRequest("Invalid request body").Wrap(err)
	}
	return h.validate(out)
}

func (h *PaymentHandler) validate(out interface{}) error {
	if err := h.validator.ValidateStruct(out); err != nil {
		return apperror.Validation(validation.FormatValidationErrors(err))
	}
	return nil
}

func (h *PaymentHandler) markFailed(ctx context.Context, txRef string, cause error) {
	var raw []byte
	var gwErr *payment.GatewayError
	if errors.As(cause, &gwErr) {
		raw = gwErr.Payload
	}
	h.recordRaw(ctx, txRef, model.PaymentStatusFailed, "", raw)
}

func (h *PaymentHandler) record(ctx context.Context, txRef, status string, gatewayID int64, raw []byte) {
	h.recordRaw(ctx, txRef, status, fmt.Sprintf("%d", gatewayID), raw)
}

func (h *PaymentHandler) recordRaw(ctx context.Context, txRef, status, gatewayID string, raw []byte) {
	if h.ledger == nil || txRef == "" {
		return
	}
	if err := h.ledger.MarkResult(ctx, txRef, status, gatewayID, raw); err != nil {
		log.Warnf("payment %s: failed to record status %s: %v", txRef, status, err)
	}
}

// gatewayFailure turns a gateway error into a PAYMENT_ERROR carrying the gateway payload
func gatewayFailure(err error) error {
	var gwErr *payment.GatewayError
	if !errors.As(err, &gwErr) {
		return apperror.Internal(err)
	}
	if gwErr.StatusCode == 0 {
		return apperror.Payment("Payment gateway is unavailable", gwErr.Details(), err)
	}
	return apperror.Payment(gwErr.Message(), gwErr.Details(), err)
}
