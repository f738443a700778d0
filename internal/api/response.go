package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/middleware"
	"github.com/wfunc/monopoly-game/internal/repository"
	"github.com/wfunc/monopoly-game/internal/service"
)

// Response 成功响应
type Response struct {
	Success    bool                   `json:"success"`
	Data       interface{}            `json:"data,omitempty"`
	Pagination *repository.Pagination `json:"pagination,omitempty"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func page(c *gin.Context, data interface{}, p *repository.Pagination) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: p})
}

func fail(c *gin.Context, err error) {
	middleware.Abort(c, err)
}

func badRequest(c *gin.Context, err error) {
	middleware.Abort(c, apperrors.New(apperrors.ErrInvalidParam, "请求参数错误").WithDetails(err.Error()))
}

// currentUser 取认证后的用户ID，路由均挂在 RequireAuth 之后
func currentUser(c *gin.Context) (uint, bool) {
	id, exists := middleware.GetUserID(c)
	if !exists {
		fail(c, apperrors.New(apperrors.ErrAuthentication, "未登录"))
		return 0, false
	}
	return id, true
}

// uintParam 解析路径中的数字ID
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		fail(c, apperrors.Newf(apperrors.ErrInvalidParam, "无效的%s", name))
		return 0, false
	}
	return uint(v), true
}

func intQuery(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

// member 校验调用者是游戏玩家，返回游戏ID与用户ID
func member(c *gin.Context, games service.GameService) (gameID, userID uint, passed bool) {
	if userID, passed = currentUser(c); !passed {
		return
	}
	if gameID, passed = uintParam(c, "id"); !passed {
		return
	}
	players, err := games.Participants(c.Request.Context(), gameID)
	if err != nil {
		fail(c, err)
		return 0, 0, false
	}
	for _, p := range players {
		if p.UserID == userID {
			return gameID, userID, true
		}
	}
	fail(c, apperrors.New(apperrors.ErrNotParticipant, "不是该游戏的玩家"))
	return 0, 0, false
}
