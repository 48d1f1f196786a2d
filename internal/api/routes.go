package api

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rawblock/tornado-tracer/internal/config"
	"github.com/rawblock/tornado-tracer/internal/heuristics"
	"github.com/rawblock/tornado-tracer/pkg/models"
)

// TransactionSource supplies the two Bitquery streams the handlers consume.
type TransactionSource interface {
	FetchTransfers(ctx context.Context, contractAddresses []string, limit int, network, startDate, endDate string) ([]models.Transaction, error)
	FetchWithdrawalEvents(ctx context.Context, contractAddresses []string, limit int, network, startDate, endDate string) ([]models.Transaction, error)
}

type APIHandler struct {
	source TransactionSource
	pools  *config.PoolRegistry
	wsHub  *Hub
}

func SetupRouter(source TransactionSource, pools *config.PoolRegistry, wsHub *Hub, limiter *RateLimiter) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// Production: ALLOWED_ORIGINS=https://tracer.example.com
	// Development: ALLOWED_ORIGINS=http://localhost:3000 (or leave empty for *)
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Tag every request so fetch progress on the websocket stream can be
	// correlated with the HTTP response that triggered it.
	r.Use(func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	})

	handler := &APIHandler{source: source, pools: pools, wsHub: wsHub}

	api := r.Group("/api")
	api.Use(limiter.Middleware())
	api.Use(AuthMiddleware())
	{
		api.POST("/fetch", handler.handleFetch)
		api.POST("/summary", handler.handleSummary)
		api.POST("/deposits", handler.handleDeposits)
		api.POST("/withdrawals", handler.handleWithdrawals)
		api.POST("/relayer-nullifier-analysis", handler.handleRelayerNullifier)
		api.GET("/matched-pairs.csv", handler.handleMatchedPairsCSV)
		api.GET("/report", handler.handleReport)
	}

	// Public endpoints: service discovery and the dashboard push stream.
	r.GET("/api/v1/health", handler.handleHealth)
	r.GET("/api/v1/stream", wsHub.Subscribe)

	// Serve Static Dashboard
	r.Static("/dashboard", "./public")

	return r
}

// fetchRequest is the shared body of the POST routes. Both snake_case and
// camelCase date keys are accepted; existing dashboards send either.
type fetchRequest struct {
	Limit        int      `json:"limit"`
	Network      string   `json:"network"`
	Contracts    []string `json:"contracts"`
	StartDate    string   `json:"start_date"`
	StartDateAlt string   `json:"startDate"`
	EndDate      string   `json:"end_date"`
	EndDateAlt   string   `json:"endDate"`
}

func (r *fetchRequest) normalize() {
	if r.Limit <= 0 {
		r.Limit = 100
	}
	if r.Network == "" {
		r.Network = "eth"
	}
	if len(r.Contracts) == 0 {
		r.Contracts = config.ContractAddresses(r.Network)
	}
	if r.StartDate == "" {
		r.StartDate = r.StartDateAlt
	}
	if r.EndDate == "" {
		r.EndDate = r.EndDateAlt
	}
}

// bindFetchRequest decodes the body; an empty body yields defaults.
func bindFetchRequest(c *gin.Context) fetchRequest {
	var req fetchRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	req.normalize()
	return req
}

func requestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// depositRow is the web projection of a deposit: the Transaction fields the
// deposits tab renders plus the resolved pool label.
type depositRow struct {
	TxHash           string                 `json:"tx_hash"`
	FromAddress      string                 `json:"from_address"`
	ToAddress        string                 `json:"to_address"`
	BlockTime        string                 `json:"block_time"`
	Gas              int64                  `json:"gas"`
	Commitment       string                 `json:"commitment"`
	TransactionType  models.TransactionType `json:"transaction_type"`
	Value            string                 `json:"value"`
	PoolDenomination string                 `json:"pool_denomination"`
}

type withdrawalRow struct {
	TxHash           string                 `json:"tx_hash"`
	FromAddress      string                 `json:"from_address"`
	ToAddress        string                 `json:"to_address"`
	BlockTime        string                 `json:"block_time"`
	Gas              int64                  `json:"gas"`
	Nullifier        string                 `json:"nullifier"`
	Recipient        string                 `json:"recipient"`
	Relayer          string                 `json:"relayer"`
	Fee              string                 `json:"fee"`
	TransactionType  models.TransactionType `json:"transaction_type"`
	PoolDenomination string                 `json:"pool_denomination"`
}

func (h *APIHandler) depositRows(session *heuristics.Session) []depositRow {
	deposits := session.Deposits()
	rows := make([]depositRow, 0, len(deposits))
	for _, tx := range deposits {
		rows = append(rows, depositRow{
			TxHash:           tx.TxHash,
			FromAddress:      tx.FromAddress,
			ToAddress:        tx.ToAddress,
			BlockTime:        tx.BlockTime,
			Gas:              tx.Gas,
			Commitment:       tx.Commitment,
			TransactionType:  tx.TransactionType,
			Value:            tx.Value,
			PoolDenomination: h.pools.Denomination(tx.ToAddress, session.Network()),
		})
	}
	return rows
}

func (h *APIHandler) withdrawalRows(session *heuristics.Session) []withdrawalRow {
	withdrawals := session.Withdrawals()
	rows := make([]withdrawalRow, 0, len(withdrawals))
	for _, tx := range withdrawals {
		rows = append(rows, withdrawalRow{
			TxHash:          tx.TxHash,
			FromAddress:     tx.FromAddress,
			ToAddress:       tx.ToAddress,
			BlockTime:       tx.BlockTime,
			Gas:             tx.Gas,
			Nullifier:       tx.Nullifier,
			Recipient:       tx.Recipient,
			Relayer:         tx.Relayer,
			Fee:             tx.Fee,
			TransactionType: tx.TransactionType,
			// Withdrawals originate from the pool, so the pool label comes
			// from from_address.
			PoolDenomination: h.pools.Denomination(tx.FromAddress, session.Network()),
		})
	}
	return rows
}

// fetchSession pulls one transfers batch and folds it into a fresh session.
func (h *APIHandler) fetchSession(c *gin.Context, req fetchRequest) (*heuristics.Session, error) {
	id := requestID(c)
	h.wsHub.PublishProgress(id, "fetch_started", gin.H{
		"network": req.Network,
		"limit":   req.Limit,
	})

	transfers, err := h.source.FetchTransfers(c.Request.Context(), req.Contracts, req.Limit, req.Network, req.StartDate, req.EndDate)
	if err != nil {
		h.wsHub.PublishProgress(id, "fetch_failed", gin.H{"error": err.Error()})
		return nil, err
	}

	session := heuristics.NewSession(req.Network, h.pools)
	session.AddDeposits(transfers)
	session.AddWithdrawals(transfers)

	h.wsHub.PublishProgress(id, "fetch_complete", gin.H{
		"deposits":    len(session.Deposits()),
		"withdrawals": len(session.Withdrawals()),
	})
	return session, nil
}

// transferAnalysis assembles the analyzer block served alongside transfer
// batches. Relayer and nullifier analyses are excluded here: they need the
// slower events query and are served by their own route.
func transferAnalysis(session *heuristics.Session) gin.H {
	pairs := heuristics.SummarizePairs(session.Match())
	return gin.H{
		"deposit_timestamps":    heuristics.AnalyzeTimestamps(session.Deposits()),
		"withdrawal_timestamps": heuristics.AnalyzeTimestamps(session.Withdrawals()),
		"reused_addresses":      heuristics.FindAddressReuse(session.AllTransactions()),
		"matched_pairs":         pairs,
		"network_patterns":      heuristics.AnalyzeNetworkPatterns(session.AllTransactions()),
	}
}

func respondFetchError(c *gin.Context, err error) {
	c.JSON(http.StatusBadGateway, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// handleFetch returns full transaction tables plus the transfer-side
// analysis block.
// POST /api/fetch {limit, network, contracts, start_date, end_date}
func (h *APIHandler) handleFetch(c *gin.Context) {
	req := bindFetchRequest(c)

	session, err := h.fetchSession(c, req)
	if err != nil {
		respondFetchError(c, err)
		return
	}

	deposits := h.depositRows(session)
	withdrawals := h.withdrawalRows(session)
	analysis := transferAnalysis(session)

	h.wsHub.PublishProgress(requestID(c), "analysis_complete", gin.H{
		"matched_pairs": len(analysis["matched_pairs"].([]models.MatchedPairSummary)),
	})

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"deposits":    deposits,
		"withdrawals": withdrawals,
		"analysis":    analysis,
		"summary": gin.H{
			"total_deposits":    len(deposits),
			"total_withdrawals": len(withdrawals),
		},
	})
}

// handleSummary returns the analysis block and counts without the large
// transaction tables.
// POST /api/summary
func (h *APIHandler) handleSummary(c *gin.Context) {
	req := bindFetchRequest(c)

	session, err := h.fetchSession(c, req)
	if err != nil {
		respondFetchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"analysis": transferAnalysis(session),
		"summary": gin.H{
			"total_deposits":    len(session.Deposits()),
			"total_withdrawals": len(session.Withdrawals()),
		},
	})
}

// handleDeposits returns only deposit rows (lazy-loaded tab).
// POST /api/deposits
func (h *APIHandler) handleDeposits(c *gin.Context) {
	req := bindFetchRequest(c)

	session, err := h.fetchSession(c, req)
	if err != nil {
		respondFetchError(c, err)
		return
	}

	deposits := h.depositRows(session)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"deposits": deposits,
		"count":    len(deposits),
	})
}

// handleWithdrawals returns only withdrawal rows (lazy-loaded tab).
// POST /api/withdrawals
func (h *APIHandler) handleWithdrawals(c *gin.Context) {
	req := bindFetchRequest(c)

	session, err := h.fetchSession(c, req)
	if err != nil {
		respondFetchError(c, err)
		return
	}

	withdrawals := h.withdrawalRows(session)
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"withdrawals": withdrawals,
		"count":       len(withdrawals),
	})
}

// handleRelayerNullifier runs the two event-backed analyses. Kept off the
// main fetch path because the events query is the slow one.
// POST /api/relayer-nullifier-analysis
func (h *APIHandler) handleRelayerNullifier(c *gin.Context) {
	req := bindFetchRequest(c)
	id := requestID(c)

	h.wsHub.PublishProgress(id, "events_fetch_started", gin.H{"network": req.Network})

	events, err := h.source.FetchWithdrawalEvents(c.Request.Context(), req.Contracts, req.Limit, req.Network, req.StartDate, req.EndDate)
	if err != nil {
		h.wsHub.PublishProgress(id, "events_fetch_failed", gin.H{"error": err.Error()})
		respondFetchError(c, err)
		return
	}

	h.wsHub.PublishProgress(id, "events_fetch_complete", gin.H{"withdrawal_events": len(events)})

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"relayer_analysis":   heuristics.AnalyzeRelayers(events),
		"nullifier_analysis": heuristics.AnalyzeNullifiers(events),
	})
}

// handleMatchedPairsCSV streams the matched pairs as a CSV attachment.
// GET /api/matched-pairs.csv?network=eth&limit=100&contracts=0x..&start_date=..
func (h *APIHandler) handleMatchedPairsCSV(c *gin.Context) {
	req := fetchRequest{
		Network:   c.DefaultQuery("network", "eth"),
		Contracts: c.QueryArray("contracts"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
	req.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	if req.StartDate == "" {
		req.StartDate = c.Query("startDate")
	}
	if req.EndDate == "" {
		req.EndDate = c.Query("endDate")
	}
	req.normalize()

	session, err := h.fetchSession(c, req)
	if err != nil {
		respondFetchError(c, err)
		return
	}
	pairs := heuristics.SummarizePairs(session.Match())

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=matched_pairs_%s.csv", req.Network))

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write([]string{
		"deposit_hash",
		"deposit_from",
		"withdrawal_hash",
		"withdrawal_to",
		"deposit_pool",
		"withdrawal_pool",
		"time_diff_hours",
		"amount_match",
		"same_contract",
		"same_pool",
	})
	for _, p := range pairs {
		_ = writer.Write([]string{
			p.DepositHash,
			p.DepositFrom,
			p.WithdrawalHash,
			p.WithdrawalTo,
			p.DepositPool,
			p.WithdrawalPool,
			fmt.Sprintf("%.2f", p.TimeDiffHours),
			yesNo(p.AmountMatch),
			yesNo(p.SameContract),
			yesNo(p.SamePool),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("[API] CSV write error: %v", err)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// handleReport returns the full text report. This is the one route that
// runs both the transfers and the events query.
// GET /api/report?network=eth&limit=100
func (h *APIHandler) handleReport(c *gin.Context) {
	req := fetchRequest{
		Network:   c.DefaultQuery("network", "eth"),
		Contracts: c.QueryArray("contracts"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
	req.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	if req.StartDate == "" {
		req.StartDate = c.Query("startDate")
	}
	if req.EndDate == "" {
		req.EndDate = c.Query("endDate")
	}
	req.normalize()

	session, err := h.fetchSession(c, req)
	if err != nil {
		respondFetchError(c, err)
		return
	}

	// Event data is best-effort for the report: if the events query fails
	// the relayer and nullifier sections render their empty state.
	events, err := h.source.FetchWithdrawalEvents(c.Request.Context(), req.Contracts, req.Limit, req.Network, req.StartDate, req.EndDate)
	if err != nil {
		log.Printf("[API] Events fetch failed, report will omit relayer/nullifier detail: %v", err)
	} else {
		session.AddWithdrawalEvents(events)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  session.GenerateReport(),
	})
}

// handleHealth returns service status and capabilities for discovery.
// GET /api/v1/health
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "operational",
		"service": "Tornado Tracer",
		"capabilities": gin.H{
			"transfer_classification": true,
			"pair_matching":           true,
			"timestamp_analysis":      true,
			"address_reuse":           true,
			"network_patterns":        true,
			"relayer_analysis":        true,
			"nullifier_analysis":      true,
		},
	})
}
