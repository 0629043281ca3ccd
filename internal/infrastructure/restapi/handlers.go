package restapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
)

// APIErrorResponse is the uniform error envelope.
type APIErrorResponse struct {
	Error string `json:"error"`
}

// Handler carries the application services the HTTP surface exposes.
type Handler struct {
	valuation    port.ValuationService
	liquidation  port.LiquidationService
	classifier   port.ClassifierService
	history      port.HistoryService
	historyCache *lru.LRU[string, []entity.TransactionRecord]
	logger       port.Logger
}

// NewHandler creates the API handler. History listings are cached briefly so
// a polling frontend does not hammer the store.
func NewHandler(
	valuation port.ValuationService,
	liquidation port.LiquidationService,
	classifier port.ClassifierService,
	history port.HistoryService,
	historyCacheSize int,
	historyCacheTTL time.Duration,
	logger port.Logger,
) *Handler {
	return &Handler{
		valuation:    valuation,
		liquidation:  liquidation,
		classifier:   classifier,
		history:      history,
		historyCache: lru.NewLRU[string, []entity.TransactionRecord](historyCacheSize, nil, historyCacheTTL),
		logger:       logger,
	}
}

// GetPortfolioHandler returns the valued portfolio for one wallet.
// GET /api/v1/portfolio/:wallet
func (h *Handler) GetPortfolioHandler(c *gin.Context) {
	portfolio, err := h.valuation.Valuate(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// PlanHandler builds an executable liquidation plan.
// POST /api/v1/liquidate/plan
func (h *Handler) PlanHandler(c *gin.Context) {
	var req entity.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	plan, err := h.liquidation.Plan(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// SimulateHandler previews a liquidation without building a payload.
// POST /api/v1/liquidate/simulate
func (h *Handler) SimulateHandler(c *gin.Context) {
	var req entity.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	result, err := h.liquidation.Simulate(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ClassifyHandler classifies a finalized transaction by signature.
// POST /api/v1/transactions/classify
func (h *Handler) ClassifyHandler(c *gin.Context) {
	var req struct {
		Signature string `json:"signature"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if req.Signature == "" {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "signature is required"})
		return
	}

	record, err := h.classifier.ClassifySignature(c.Request.Context(), req.Signature)
	if err != nil {
		h.renderError(c, err)
		return
	}

	// The wallet's cached listing is now out of date.
	h.historyCache.Remove(record.Wallet)

	c.JSON(http.StatusOK, record)
}

// ListTransactionsHandler lists classified transactions for one wallet.
// GET /api/v1/transactions/:wallet
func (h *Handler) ListTransactionsHandler(c *gin.Context) {
	wallet := c.Param("wallet")

	if records, ok := h.historyCache.Get(wallet); ok {
		c.JSON(http.StatusOK, gin.H{"transactions": records})
		return
	}

	records, err := h.history.List(c.Request.Context(), wallet, 0)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.historyCache.Add(wallet, records)
	c.JSON(http.StatusOK, gin.H{"transactions": records})
}

// renderError maps domain errors onto HTTP statuses: validation failures are
// 400, missing things are 404, collaborator failures are 502.
func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case entity.IsValidation(err):
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: err.Error()})
	case entity.IsNotFound(err):
		c.JSON(http.StatusNotFound, APIErrorResponse{Error: err.Error()})
	case entity.IsUpstream(err):
		h.logger.Error("Upstream collaborator failure", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusBadGateway, APIErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("Unhandled request failure", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, APIErrorResponse{Error: "internal error"})
	}
}
