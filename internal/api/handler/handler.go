package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/relation-engine/internal/api/middleware"
	"github.com/d60-Lab/relation-engine/internal/model"
	"github.com/d60-Lab/relation-engine/internal/service"
	"github.com/d60-Lab/relation-engine/pkg/response"
)

type Handler struct {
	relService service.RelationshipService
}

func New(relService service.RelationshipService) *Handler {
	registerValidations()
	return &Handler{relService: relService}
}

var registerOnce sync.Once

// registerValidations 注册 privacy / swipe_direction 两个 binding 标签
func registerValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("privacy", func(fl validator.FieldLevel) bool {
			return model.PrivacyMode(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("swipe_direction", func(fl validator.FieldLevel) bool {
			return model.SwipeDirection(fl.Field().String()).Valid()
		})
	})
}

// bindJSON writes a 400 and returns false when the body does not bind.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, bindingMessage(err))
		return false
	}
	return true
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// renderError 业务错误 -> HTTP 状态码
func renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrAlreadyActed):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidOperation):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return page, pageSize
}

func currentAccount(c *gin.Context) string { return middleware.AccountID(c) }
