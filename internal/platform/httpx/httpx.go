// Package httpx holds the gin helpers shared by the feature handlers.
package httpx

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/locale"
)

type ErrorDTO struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    apierr.Code `json:"code"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"`
}

// Lang は Accept-Language から表示言語を決める
func Lang(c *gin.Context) language.Tag {
	return locale.Match(c.GetHeader("Accept-Language"))
}

func Body(c *gin.Context, err error) ErrorDTO {
	code := apierr.CodeOf(err)
	body := ErrorBody{Code: code, Message: locale.ErrorMessage(Lang(c), string(code))}

	// ドメインエラーの詳細は開発者向けに残す（内部エラーの中身は出さない）
	var api *apierr.APIError
	if errors.As(err, &api) && code != apierr.CodeInternal && code != apierr.CodeTransactionFailure {
		body.Detail = api.Message
	}
	return ErrorDTO{Error: body}
}

// Error writes the localised error body with the status mapped from its code.
func Error(c *gin.Context, err error) {
	status := apierr.HTTPStatus(err)
	if status >= 500 {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
	}
	c.JSON(status, Body(c, err))
}

// Abort is Error for middleware.
func Abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apierr.HTTPStatus(err), Body(c, err))
}

func BadJSON(c *gin.Context, err error) {
	e := apierr.ErrInvalid("invalid json or missing required fields")
	dto := Body(c, e)
	if err != nil {
		dto.Error.Detail = err.Error()
	}
	c.JSON(apierr.HTTPStatus(e), dto)
}

func ParseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

// ParamInt64 reads a positive numeric path parameter.
func ParamInt64(c *gin.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		return 0, apierr.ErrInvalid(name + " must be a positive integer")
	}
	return v, nil
}
