package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/SantiagoDeStefano/ml-ops/internal/adapter/http/handler"
	"github.com/SantiagoDeStefano/ml-ops/internal/adapter/http/middleware"
	"github.com/SantiagoDeStefano/ml-ops/internal/domain/service"
	"github.com/SantiagoDeStefano/ml-ops/internal/infrastructure/metrics"
	"github.com/SantiagoDeStefano/ml-ops/internal/usecase"
)

// Deps holds everything the router wires into handlers
type Deps struct {
	PredictUsecase usecase.PredictUsecase
	Readiness      service.ReadinessChecker
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	// Gatherer backs /metrics; prometheus.DefaultGatherer when nil
	Gatherer       prometheus.Gatherer
	TracerProvider trace.TracerProvider
	ServiceName    string
}

// Setup creates and configures the Gin router
func Setup(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.TracerProvider == nil {
		deps.TracerProvider = otel.GetTracerProvider()
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(deps.ServiceName,
		otelgin.WithTracerProvider(deps.TracerProvider),
		otelgin.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics"
		}),
	))
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics(deps.Metrics))

	// Health endpoints
	healthHandler := handler.NewHealthHandler(deps.Readiness, deps.Logger)
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/readyz", healthHandler.Readyz)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	// Inference
	predictHandler := handler.NewPredictHandler(deps.PredictUsecase)
	router.POST("/predict", predictHandler.Predict)

	return router
}
