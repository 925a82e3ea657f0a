package handler

import (
	"github.com/gin-gonic/gin"

	"whispr_chat_server/internal/dto/request"
	"whispr_chat_server/internal/service"
	"whispr_chat_server/pkg/errorx"
)

// StartCallHandler 发起通话
func StartCallHandler(c *gin.Context) {
	var req request.StartCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := service.Svc.Call.StartCall(currentUser(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// EndCallHandler 结束通话
func EndCallHandler(c *gin.Context) {
	callUuid := c.Param("call_id")
	if callUuid == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	rsp, err := service.Svc.Call.EndCall(currentUser(c), callUuid)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
