package handler

import (
	"errors"
	"strconv"

	"github.com/Shido75/Spectrasynth-CRM/internal/service"
	"github.com/gin-gonic/gin"
)

// Handlers aggregates all HTTP handlers.
type Handlers struct {
	Auth      *AuthHandler
	Inquiry   *InquiryHandler
	Quotation *QuotationHandler
	Product   *ProductHandler
	PO        *POHandler
	User      *UserHandler
}

// NewHandlers wires handlers to their services.
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:      NewAuthHandler(svc.Auth),
		Inquiry:   NewInquiryHandler(svc.Inquiry, svc.Quotation),
		Quotation: NewQuotationHandler(svc.Quotation, svc.Revision),
		Product:   NewProductHandler(svc.Product),
		PO:        NewPOHandler(svc.PO),
		User:      NewUserHandler(svc.Auth),
	}
}

// Response is the common envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success responds 200.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created responds 201.
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error responds with an application code whose first three digits are the
// HTTP status.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError maps service taxonomy errors onto responses.
func ServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrPermission):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrRender):
		Error(c, 50010, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID returns the authenticated user's id, 0 when absent.
func GetUserID(c *gin.Context) uint {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(uint); ok {
		return id
	}
	return 0
}

// Actor returns the authenticated user's display name for audit fields.
func Actor(c *gin.Context) string {
	if name := c.GetString("user_name"); name != "" {
		return name
	}
	return "System"
}

// ParamUint parses a numeric path parameter.
func ParamUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}
