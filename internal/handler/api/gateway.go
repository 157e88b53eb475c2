package api

import (
	"net/http"
	"strings"
	"time"

	"PulseGate/internal/domain/models"
	drepo "PulseGate/internal/domain/repository"
	"PulseGate/internal/usecase"
	xhttp "PulseGate/pkg/http"
	xlogger "PulseGate/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GatewayHandler exposes the two scheduled entry points plus the
// diagnostic endpoints.
type GatewayHandler struct {
	logger     *xlogger.Logger
	ingestor   *usecase.Ingestor
	evaluator  *usecase.Evaluator
	alertState drepo.AlertStateStore
	archive    drepo.SignalArchive
	alertKey   string
	symbols    []string
}

// NewGatewayHandler creates the HTTP handler.
func NewGatewayHandler(
	logger *xlogger.Logger,
	ingestor *usecase.Ingestor,
	evaluator *usecase.Evaluator,
	alertState drepo.AlertStateStore,
	archive drepo.SignalArchive,
	alertKey string,
	symbols []string,
) *GatewayHandler {
	return &GatewayHandler{
		logger:     logger,
		ingestor:   ingestor,
		evaluator:  evaluator,
		alertState: alertState,
		archive:    archive,
		alertKey:   alertKey,
		symbols:    symbols,
	}
}

// RegisterRoutes wires the endpoints.
func (h *GatewayHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/snapshot", h.Snapshot)
	e.GET("/alert", h.Alert)
	e.GET("/healthz", h.Healthz)
	e.GET("/api/history", h.History)
}

// SnapshotRequest is the ingest entry point's query contract.
type SnapshotRequest struct {
	Symbols string `query:"symbols" validate:"required"`
}

// Snapshot handles the scheduled ingest ping.
func (h *GatewayHandler) Snapshot(c echo.Context) error {
	req := &SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	symbols := splitSymbols(req.Symbols)
	if len(symbols) == 0 {
		return xhttp.BadRequestResponse(c, "symbols must not be empty")
	}

	res := h.ingestor.Run(c.Request().Context(), symbols, time.Now().UTC().UnixMilli())
	return c.JSON(http.StatusOK, res)
}

// AlertRequest is the evaluator entry point's query contract. The shared
// secret is read separately so auth runs before any binding.
type AlertRequest struct {
	Mode        string `query:"mode" validate:"omitempty,oneof=scalp swing build"`
	RiskProfile string `query:"risk_profile" validate:"omitempty,oneof=conservative standard aggressive"`
	DriverTF    string `query:"driver_tf" validate:"omitempty,oneof=5m 15m 30m 1h 4h"`
	Force       bool   `query:"force"`
	Dry         bool   `query:"dry"`
	Debug       bool   `query:"debug"`
	Symbols     string `query:"symbols"`
}

// Alert handles the scheduled evaluation ping. Auth failures return 401
// before any state is touched.
func (h *GatewayHandler) Alert(c echo.Context) error {
	if !h.authorized(c, c.QueryParam("key")) {
		return xhttp.UnauthorizedResponse(c, "invalid or missing key")
	}

	req := &AlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	symbols := splitSymbols(req.Symbols)
	if len(symbols) == 0 {
		symbols = h.symbols
	}

	var modes []models.Mode
	if req.Mode != "" {
		modes = []models.Mode{models.Mode(req.Mode)}
	}

	res := h.evaluator.Run(c.Request().Context(), usecase.EvalRequest{
		Symbols:     symbols,
		Modes:       modes,
		RiskProfile: req.RiskProfile,
		DriverTF:    models.NormalizeTimeframe(req.DriverTF),
		Force:       req.Force,
		Dry:         req.Dry,
		Debug:       req.Debug,
	})

	if res.TelegramFailed {
		return c.JSON(http.StatusInternalServerError, res)
	}
	return c.JSON(http.StatusOK, res)
}

// Healthz reports liveness plus the last heartbeat blob.
func (h *GatewayHandler) Healthz(c echo.Context) error {
	hb, err := h.alertState.LastHeartbeat(c.Request().Context())
	if err != nil {
		h.logger.Warn("heartbeat read failed", xlogger.Error(err))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":        true,
		"ts":        time.Now().UTC().UnixMilli(),
		"heartbeat": hb,
	})
}

// HistoryRequest is the signal-history query contract.
type HistoryRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=500"`
}

// History returns archived signals for one symbol, newest first. Empty
// when the archive is disabled.
func (h *GatewayHandler) History(c echo.Context) error {
	req := &HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.archive.History(c.Request().Context(), strings.ToUpper(req.Symbol), req.Limit)
	if err != nil {
		h.logger.Error("history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("history query failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, rows)
}

// authorized accepts the shared secret via ?key= or a bearer token.
func (h *GatewayHandler) authorized(c echo.Context, key string) bool {
	if h.alertKey == "" {
		return false
	}
	if key == h.alertKey {
		return true
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	return strings.TrimPrefix(auth, "Bearer ") == h.alertKey && strings.HasPrefix(auth, "Bearer ")
}

func splitSymbols(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
