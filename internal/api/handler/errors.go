package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shiftdesk/backend/internal/roster"
	"shiftdesk/backend/internal/service"
	pkgerrors "shiftdesk/backend/pkg/errors"
	"shiftdesk/backend/pkg/response"
)

// errorMapping 业务错误到响应方法与错误码的映射
type errorMapping struct {
	err     error
	respond func(c *gin.Context, code int, message string)
	code    int
}

// 错误码分段：11xxx 认证，12xxx 账号，13xxx 班次，14xxx 名单，15xxx 考勤
var errorMappings = []errorMapping{
	{service.ErrInvalidCredentials, response.Unauthorized, 11001},
	{service.ErrEmailExists, response.Conflict, 11002},
	{service.ErrUserNotFound, response.NotFound, 11003},

	{service.ErrUserSelfModify, response.BadRequest, 12001},
	{service.ErrUserSelfDelete, response.BadRequest, 12002},
	{service.ErrImportNoData, response.BadRequest, 12003},
	{service.ErrImportTooManyRows, response.BadRequest, 12004},
	{service.ErrImportBadHeader, response.BadRequest, 12005},

	{roster.ErrShiftNotFound, response.NotFound, 13001},
	{roster.ErrForbidden, response.Forbidden, 13002},
	{roster.ErrInvalidShiftWindow, response.BadRequest, 13003},
	{roster.ErrInvalidSlots, response.BadRequest, 13004},
	{roster.ErrInvalidTitle, response.BadRequest, 13005},
	{roster.ErrNotesTooLong, response.BadRequest, 13006},

	{roster.ErrEmployeeNotFound, response.NotFound, 14001},
	{roster.ErrInvalidRole, response.BadRequest, 14002},
	{roster.ErrAlreadyApplied, response.Conflict, 14003},
	{roster.ErrAlreadyAssigned, response.Conflict, 14004},
	{roster.ErrNotApplied, response.BadRequest, 14005},
	{roster.ErrNoCapacity, response.Conflict, 14006},

	{roster.ErrNotAccepted, response.BadRequest, 15001},
	{roster.ErrAlreadyCheckedIn, response.Conflict, 15002},
	{roster.ErrNotCheckedIn, response.BadRequest, 15003},
	{roster.ErrInvalidTimestamp, response.BadRequest, 15004},
	{roster.ErrInvalidRange, response.BadRequest, 15005},
	{service.ErrInvalidDateRange, response.BadRequest, 15006},

	{pkgerrors.ErrConflictRetriesExhausted, response.Conflict, response.CodeConflict},
	{pkgerrors.ErrOptimisticLock, response.Conflict, response.CodeConflict},
}

// handleServiceError 统一处理业务错误；未识别的错误一律返回 500，不暴露内部细节
func handleServiceError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			m.respond(c, m.code, m.err.Error())
			return
		}
	}
	_ = c.Error(err)
	response.InternalError(c)
}
