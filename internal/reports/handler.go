package reports

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/reports", h.Create)
	r.GET("/reports", h.List)
	r.GET("/reports/:report_ulid", h.Get)
	r.POST("/reports/:report_ulid/submit", h.Submit)
	r.GET("/reports/:report_ulid/pdf", h.ReportPDF)

	// 勤務表（timetrackingの再構築結果から生成）
	// GET /technicians/:technician_ulid/timesheet/pdf?from=&to=
	r.GET("/technicians/:technician_ulid/timesheet/pdf", h.TimesheetPDF)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Header("Location", "/reports/"+res.ReportULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) List(c *gin.Context) {
	q := ListQuery{
		Limit:  parseIntDefault(c.Query("limit"), DefaultPageLimit),
		Offset: parseIntDefault(c.Query("offset"), 0),
	}
	if v := c.Query("client_id"); v != "" {
		q.ClientULID = &v
	}
	if v := c.Query("technician_id"); v != "" {
		q.TechnicianULID = &v
	}
	if v := c.Query("from"); v != "" {
		q.From = &v
	}
	if v := c.Query("to"); v != "" {
		q.To = &v
	}
	if v := c.Query("status"); v != "" {
		q.Status = &v
	}
	res, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("report_ulid"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Submit(c *gin.Context) {
	res, err := h.svc.Submit(c.Request.Context(), c.Param("report_ulid"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ReportPDF(c *gin.Context) {
	buf, err := h.svc.ReportPDF(c.Request.Context(), c.Param("report_ulid"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="report-`+c.Param("report_ulid")+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf)
}

func (h *Handler) TimesheetPDF(c *gin.Context) {
	buf, err := h.svc.TimesheetPDF(c.Request.Context(),
		c.Param("technician_ulid"), c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="timesheet-`+c.Param("technician_ulid")+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf)
}

// ---------- helpers ----------

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

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
