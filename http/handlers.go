package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"churnserve/ml"
)

const maxMessageBytes = 64 << 10

// Handlers 预测服务的处理器集合。模型在启动时注入且之后不再改变，
// 因此可以无锁并发读取，缓存的预测结果也始终有效。
type Handlers struct {
	model    ml.ModelProvider
	cache    *lru.Cache[string, ml.Prediction]
	metrics  *Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandlers 创建处理器。model 为 nil 表示模型未加载；cacheSize <= 0 关闭缓存。
func NewHandlers(model ml.ModelProvider, cacheSize int, metrics *Metrics, logger *zap.Logger) (*Handlers, error) {
	h := &Handlers{
		model:   model,
		metrics: metrics,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, ml.Prediction](cacheSize)
		if err != nil {
			return nil, err
		}
		h.cache = cache
	}
	return h, nil
}

// Register 注册预测相关路由
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("POST /predict", h.handlePredict)
	mux.HandleFunc("GET /ws/predict", h.handleWSPredict)
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// ErrorResponse 错误响应；校验失败时 detail 为 ValidationIssue 列表
type ErrorResponse struct {
	Detail any `json:"detail"`
}

func (h *Handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/docs/index.html", http.StatusTemporaryRedirect)
}

// handleHealth 健康检查
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{Status: "ok", ModelLoaded: h.model != nil})
}

// handlePredict 预测单个客户的流失概率
// @Summary Predict churn for one customer
// @Tags prediction
// @Accept json
// @Produce json
// @Param customer body CustomerData true "customer record"
// @Success 200 {object} ml.Prediction
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /predict [post]
func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	if h.model == nil {
		writeDetail(w, r, http.StatusServiceUnavailable, "Model not loaded")
		return
	}

	var payload CustomerData
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxMessageBytes), &payload); err != nil {
		writeDetail(w, r, http.StatusUnprocessableEntity, bodyIssue("JSON decode error: "+err.Error(), "json_invalid").Issues)
		return
	}

	prediction, err := h.predict(r.Context(), payload)
	if err != nil {
		status, detail := errorDetail(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		}
		writeDetail(w, r, status, detail)
		return
	}
	render.JSON(w, r, prediction)
}

// handleWSPredict 通过 websocket 逐条预测：每个文本帧是一条客户记录，
// 每条记录对应一个结果帧或错误帧。
func (h *Handlers) handleWSPredict(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		var reply any
		var payload CustomerData
		switch {
		case h.model == nil:
			reply = ErrorResponse{Detail: "Model not loaded"}
		case json.Unmarshal(message, &payload) != nil:
			reply = ErrorResponse{Detail: bodyIssue("JSON decode error", "json_invalid").Issues}
		default:
			prediction, err := h.predict(r.Context(), payload)
			if err != nil {
				_, detail := errorDetail(err)
				reply = ErrorResponse{Detail: detail}
			} else {
				reply = prediction
			}
		}

		if err := conn.WriteJSON(reply); err != nil {
			h.logger.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

// predict 校验请求并调用模型，相同的记录直接返回缓存结果
func (h *Handlers) predict(ctx context.Context, payload CustomerData) (ml.Prediction, error) {
	record, err := ValidateCustomer(payload)
	if err != nil {
		return ml.Prediction{}, err
	}

	key := record.Key()
	if h.cache != nil {
		if prediction, ok := h.cache.Get(key); ok {
			h.metrics.observePrediction(prediction.Label, true)
			return prediction, nil
		}
	}

	prediction, err := h.model.PredictRecord(ctx, record)
	if err != nil {
		return ml.Prediction{}, err
	}
	if h.cache != nil {
		h.cache.Add(key, prediction)
	}
	h.metrics.observePrediction(prediction.Label, false)
	return prediction, nil
}

func errorDetail(err error) (int, any) {
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		return http.StatusUnprocessableEntity, invalid.Issues
	}
	return http.StatusInternalServerError, err.Error()
}

func writeDetail(w http.ResponseWriter, r *http.Request, status int, detail any) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Detail: detail})
}
