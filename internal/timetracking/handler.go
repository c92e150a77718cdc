package timetracking

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// 打刻（技術者アプリから）
	// POST /timeclock/events
	r.POST("/timeclock/events", h.Clock)

	// 現在状態と押せるボタン
	// GET /technicians/:technician_ulid/timeclock/status
	r.GET("/technicians/:technician_ulid/timeclock/status", h.Status)

	// セッション一覧（再構築結果）
	// GET /technicians/:technician_ulid/sessions
	r.GET("/technicians/:technician_ulid/sessions", h.Sessions)

	// 進行中セッション（無ければ404）
	// GET /technicians/:technician_ulid/sessions/current
	r.GET("/technicians/:technician_ulid/sessions/current", h.Current)
}

// RegisterAdminRoutes: admin専用の集計
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	// GET /timeclock/stats?from=&to=
	r.GET("/timeclock/stats", h.Stats)
}

// ---------- handlers ----------

func (h *Handler) Clock(c *gin.Context) {
	var req ClockActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Clock(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Status(c *gin.Context) {
	res, err := h.svc.Status(c.Request.Context(), c.Param("technician_ulid"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Sessions(c *gin.Context) {
	q := ListSessionsQuery{}
	if v := c.Query("from"); v != "" {
		q.From = &v
	}
	if v := c.Query("to"); v != "" {
		q.To = &v
	}
	if v := c.Query("status"); v != "" {
		st := SessionStatus(v)
		q.Status = &st
	}
	res, err := h.svc.Sessions(c.Request.Context(), c.Param("technician_ulid"), q)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Current(c *gin.Context) {
	res, err := h.svc.Current(c.Request.Context(), c.Param("technician_ulid"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Stats(c *gin.Context) {
	req := StatsRequest{From: c.Query("from"), To: c.Query("to")}
	res, err := h.svc.Stats(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": res})
}

// ---------- helpers ----------

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var msg string
	var code Code = CodeInternal
	if api, ok := err.(*APIError); ok {
		code, msg = api.Code, api.Message
	} else {
		msg = err.Error()
	}
	return errorBody(code, msg)
}
