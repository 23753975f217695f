package labs

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
	readGroup := api.Group("", auth.RequireRole("admin", "clinician", "nurse", "lab_tech"))
	readGroup.GET("/patients/:patientId/lab-orders", h.List)
	readGroup.GET("/patients/:patientId/lab-orders/:id", h.Get)

	writeGroup := api.Group("", auth.RequireRole("admin", "clinician"))
	writeGroup.POST("/patients/:patientId/lab-orders", h.Create)
	writeGroup.DELETE("/patients/:patientId/lab-orders/:id", h.Delete)
	writeGroup.POST("/patients/:patientId/lab-orders/:id/items", h.AddItems)
	writeGroup.DELETE("/patients/:patientId/lab-orders/:id/items", h.RemoveItems)
	writeGroup.POST("/patients/:patientId/lab-orders/:id/cancel", h.Cancel)

	// Result entry is the lab's job, not only the ordering clinician's.
	resultGroup := api.Group("", auth.RequireRole("admin", "clinician", "lab_tech"))
	resultGroup.PUT("/patients/:patientId/lab-orders/:id/items/:itemId/result", h.UpsertResult)
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

	var in CreateOrderInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.svc.CreateOrder(c.Request().Context(), patientID, authorID, &in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *Handler) Get(c echo.Context) error {
	patientID, orderID, err := pathIDs(c)
	if err != nil {
		return err
	}
	order, err := h.svc.GetOrder(c.Request().Context(), patientID, orderID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) List(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)
	status := OrderStatus(c.QueryParam("status"))

	orders, total, err := h.svc.ListForPatient(c.Request().Context(), patientID, status, pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(orders, total, pg.Limit, pg.Offset))
}

type itemsRequest struct {
	TestIDs []uuid.UUID `json:"test_ids"`
}

func (h *Handler) AddItems(c echo.Context) error {
	patientID, orderID, err := pathIDs(c)
	if err != nil {
		return err
	}
	var req itemsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	order, err := h.svc.AddItems(c.Request().Context(), patientID, orderID, req.TestIDs)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) RemoveItems(c echo.Context) error {
	patientID, orderID, err := pathIDs(c)
	if err != nil {
		return err
	}
	var req itemsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	order, err := h.svc.RemoveItems(c.Request().Context(), patientID, orderID, req.TestIDs)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) Delete(c echo.Context) error {
	patientID, orderID, err := pathIDs(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteOrder(c.Request().Context(), patientID, orderID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type cancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func (h *Handler) Cancel(c echo.Context) error {
	patientID, orderID, err := pathIDs(c)
	if err != nil {
		return err
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	order, err := h.svc.CancelOrder(c.Request().Context(), patientID, orderID, req.Reason)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) UpsertResult(c echo.Context) error {
	patientID, orderID, err := pathIDs(c)
	if err != nil {
		return err
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	var in ResultInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	order, err := h.svc.UpsertResult(c.Request().Context(), patientID, orderID, itemID, &in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func pathIDs(c echo.Context) (patientID, orderID uuid.UUID, err error) {
	patientID, err = uuid.Parse(c.Param("patientId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	orderID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return patientID, orderID, nil
}

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
		return echo.NewHTTPError(http.StatusNotFound, "lab order not found")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrOrderHasResults):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrOrderCancelled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
