package http

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complaint-service/internal/http/middleware"
	"complaint-service/internal/media"
	"complaint-service/internal/model"
	"complaint-service/internal/realtime"
	"complaint-service/internal/service"
)

const photoField = "photo"

type Handler struct {
	complaints  *service.ComplaintService
	auth        *service.AuthService
	hub         *realtime.Hub
	healthCheck func(ctx context.Context) error
	log         zerolog.Logger
}

func NewHandler(
	complaints *service.ComplaintService,
	auth *service.AuthService,
	hub *realtime.Hub,
	healthCheck func(ctx context.Context) error,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		complaints:  complaints,
		auth:        auth,
		hub:         hub,
		healthCheck: healthCheck,
		log:         log,
	}
}

func (h *Handler) health(c *gin.Context) {
	if h.healthCheck != nil {
		if err := h.healthCheck(c.Request.Context()); err != nil {
			h.log.Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		FullName string `json:"full_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	employee, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(employee))
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(session))
}

func (h *Handler) createDraft(c *gin.Context) {
	photo, err := openPhoto(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	if photo != nil {
		defer photo.Close()
	}

	draft, err := h.complaints.Draft(c.Request.Context(), service.DraftInput{
		Photo:               photo,
		LocationDescription: c.PostForm("location_description"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(draft))
}

func (h *Handler) createComplaint(c *gin.Context) {
	photo, err := openPhoto(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	if photo != nil {
		defer photo.Close()
	}

	latitude, err := parseCoordinate(c.PostForm("latitude"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid latitude"))
		return
	}
	longitude, err := parseCoordinate(c.PostForm("longitude"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid longitude"))
		return
	}

	input := service.SubmitInput{
		Photo:               photo,
		Issue:               c.PostForm("issue"),
		LocationDescription: c.PostForm("location_description"),
		Latitude:            latitude,
		Longitude:           longitude,
	}
	if raw := strings.TrimSpace(c.PostForm("category")); raw != "" {
		category, ok := parseCategory(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, errorResponse("invalid category"))
			return
		}
		input.Category = &category
	}

	complaint, err := h.complaints.Submit(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(complaint))
}

func (h *Handler) publicBoard(c *gin.Context) {
	board, err := h.complaints.PublicBoard(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(board))
}

func (h *Handler) listComplaints(c *gin.Context) {
	opts, err := parseListQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	complaints, err := h.complaints.List(c.Request.Context(), opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": complaints}))
}

func (h *Handler) getComplaint(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}

	complaint, err := h.complaints.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) complaintHistory(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}

	entries, err := h.complaints.History(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": entries}))
}

func (h *Handler) resolveComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}
	id, ok := complaintID(c)
	if !ok {
		return
	}

	photo, err := openPhoto(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	if photo != nil {
		defer photo.Close()
	}

	result, err := h.complaints.Resolve(c.Request.Context(), principal, id, photo)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) denyComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}
	id, ok := complaintID(c)
	if !ok {
		return
	}

	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	complaint, err := h.complaints.Deny(c.Request.Context(), principal, id, req.Confirm)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) dashboard(c *gin.Context) {
	stats, err := h.complaints.Dashboard(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(stats))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var extErr *service.ExternalError

	switch {
	case errors.As(err, &extErr):
		h.log.Error().Err(extErr.Err).Str("external_service", extErr.Service).Msg("external service failed")
		c.JSON(http.StatusBadGateway, errorResponse(extErr.Service+" is unavailable, please try again"))
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrConfirmationRequired),
		errors.Is(err, media.ErrMissingImage),
		errors.Is(err, media.ErrUnsupportedImage):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, media.ErrImageTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse(err.Error()))
	case errors.Is(err, service.ErrSignupDisabled):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

// openPhoto returns nil without error when no photo part was sent.
func openPhoto(c *gin.Context) (multipart.File, error) {
	header, err := c.FormFile(photoField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return header.Open()
}

func complaintID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return uuid.Nil, false
	}
	return id, true
}

func parseCoordinate(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

func parseListQuery(c *gin.Context) (service.ListOptions, error) {
	var opts service.ListOptions

	for _, val := range splitCSV(c.Query("status")) {
		status, ok := parseStatus(val)
		if !ok {
			return opts, errors.New("invalid status " + strconv.Quote(val))
		}
		opts.Statuses = append(opts.Statuses, status)
	}
	for _, val := range splitCSV(c.Query("category")) {
		category, ok := parseCategory(val)
		if !ok {
			return opts, errors.New("invalid category " + strconv.Quote(val))
		}
		opts.Categories = append(opts.Categories, category)
	}
	for _, val := range splitCSV(c.Query("department")) {
		department, ok := parseDepartment(val)
		if !ok {
			return opts, errors.New("invalid department " + strconv.Quote(val))
		}
		opts.Departments = append(opts.Departments, department)
	}
	if limit := strings.TrimSpace(c.Query("limit")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			opts.Limit = v
		}
	}
	if offset := strings.TrimSpace(c.Query("offset")); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			opts.Offset = v
		}
	}

	opts.Search = strings.TrimSpace(c.Query("search"))

	return opts, nil
}

func parseStatus(value string) (model.ComplaintStatus, bool) {
	for _, s := range model.AllStatuses {
		if strings.EqualFold(string(s), value) {
			return s, true
		}
	}
	return "", false
}

func parseCategory(value string) (model.ComplaintCategory, bool) {
	for _, c := range model.AllCategories {
		if strings.EqualFold(string(c), value) {
			return c, true
		}
	}
	return "", false
}

func parseDepartment(value string) (model.Department, bool) {
	for _, d := range model.AllDepartments {
		if strings.EqualFold(string(d), value) {
			return d, true
		}
	}
	return "", false
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}
