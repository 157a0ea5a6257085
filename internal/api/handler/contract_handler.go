package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/holycode/contracts-api/internal/api/metrics"
	"github.com/holycode/contracts-api/internal/core/ports"
)

// ContractHandler handles HTTP requests for contract operations. Every route
// is expected behind RequirePermission, which supplies the acting user.
type ContractHandler struct {
	service ports.ContractService
}

func NewContractHandler(service ports.ContractService) *ContractHandler {
	return &ContractHandler{service: service}
}

// Create handles POST /api/v1/contracts.
// A repeated Idempotency-Key returns the original contract with 200.
func (h *ContractHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createContractRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.service.Create(c.Request().Context(), ports.CreateContractInput{
		OwnerID:        actor.ID,
		Title:          req.Title,
		CompanyName:    req.CompanyName,
		YearlyPrice:    req.YearlyPrice,
		Content:        req.Content,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		return err
	}

	if res.Replayed {
		metrics.IdempotentReplaysTotal.Inc()
		return c.JSON(http.StatusOK, res.Contract)
	}
	metrics.ContractsCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, res.Contract)
}

// List handles GET /api/v1/contracts?limit=&skip=.
func (h *ContractHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var limit, skip int
	if err := echo.QueryParamsBinder(c).
		Int("limit", &limit).
		Int("skip", &skip).
		BindError(); err != nil {
		return bindError(err)
	}

	res, err := h.service.List(c.Request().Context(), ports.ListContractsInput{
		OwnerID: actor.ID,
		Limit:   limit,
		Skip:    skip,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listContractsResponse{
		Count:     res.Count,
		Contracts: res.Contracts,
	})
}

// Get handles GET /api/v1/contracts/:id.
func (h *ContractHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	contract, err := h.service.Get(c.Request().Context(), c.Param("id"), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contract)
}

// Update handles PUT /api/v1/contracts/:id.
func (h *ContractHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateContractRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	updated, err := h.service.Update(c.Request().Context(), c.Param("id"), actor.ID, req.toPatch())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updateContractResponse{
		Message: "Contract successfully updated",
		Results: updated,
	})
}

// Cancel handles PATCH /api/v1/contracts/:id. It has no body and answers 204.
func (h *ContractHandler) Cancel(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.service.Cancel(c.Request().Context(), c.Param("id"), actor.ID); err != nil {
		return err
	}
	metrics.ContractsCancelledTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}
