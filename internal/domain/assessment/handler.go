package assessment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rheumatrack/rheumatrack/internal/platform/auth"
	"github.com/rheumatrack/rheumatrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "clinician", "nurse"))
	readGroup.GET("/patients/:patientId/assessments", h.List)
	readGroup.GET("/patients/:patientId/assessments/:id", h.Get)

	writeGroup := api.Group("", auth.RequireRole("admin", "clinician"))
	writeGroup.POST("/patients/:patientId/assessments", h.Create)
	writeGroup.PUT("/patients/:patientId/assessments/:id", h.Update)
	writeGroup.DELETE("/patients/:patientId/assessments/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	authorID, err := callerID(c)
	if err != nil {
		return err
	}

	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Create(c.Request().Context(), patientID, authorID, &in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	patientID, id, err := pathIDs(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), patientID, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)
	indexType := IndexType(c.QueryParam("index"))
	order := ListOrder(c.QueryParam("order"))

	items, total, err := h.svc.ListForPatient(c.Request().Context(), patientID, indexType, order, pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	patientID, id, err := pathIDs(c)
	if err != nil {
		return err
	}
	authorID, err := callerID(c)
	if err != nil {
		return err
	}

	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Update(c.Request().Context(), patientID, id, authorID, &in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Delete(c echo.Context) error {
	patientID, id, err := pathIDs(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), patientID, id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func pathIDs(c echo.Context) (patientID, id uuid.UUID, err error) {
	patientID, err = uuid.Parse(c.Param("patientId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	id, err = uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid assessment id")
	}
	return patientID, id, nil
}

// callerID resolves the authenticated user recorded as the assessment author.
func callerID(c echo.Context) (uuid.UUID, error) {
	uid := auth.UserIDFromContext(c.Request().Context())
	if uid == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}
	id, err := uuid.Parse(uid)
	if err != nil {
		// Dev-mode subjects are not UUIDs; derive a stable id from the name.
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(uid)), nil
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "assessment not found")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
