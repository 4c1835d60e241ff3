// Package monitor is the read-only HTTP introspection API (spec component
// C9): top-of-book snapshots, accepted-opportunity state, and individual
// order state, for an operator or external dashboard to poll. Grounded on
// api/pms.go and api/node.go's gin.RouterGroup handler-registration
// pattern and cmd/master/main.go's gin.New/gin.Recovery/swaggo wiring; this
// package never mutates engine state, so it carries no request body
// binding beyond path parameters.
package monitor

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/brightpool/arbiq/internal/execution"
	"github.com/brightpool/arbiq/internal/orderbook"
	"github.com/brightpool/arbiq/pkg/log"
)

// Server is the monitoring HTTP API's gin wiring.
type Server struct {
	engine *gin.Engine
	addr   string
	log    log.Logger
}

// New builds a Server bound to addr, exposing read-only views over books,
// the execution manager, and swagger docs at /swagger/*any.
func New(addr string, books *orderbook.Manager, exec *execution.Manager, logger log.Logger) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.With(log.String("subsystem", "monitor"))

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.UseRawPath = true // route on the escaped path so a pair like BTC%2FUSDT stays one segment
	engine.Use(gin.Recovery())

	rg := engine.Group("/v1")
	newBooksHandler(rg, books)
	newExecutionHandler(rg, exec)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return &Server{engine: engine, addr: addr, log: logger}
}

// Run blocks serving HTTP until the listener fails. Server has no method to
// stop it; it stops when the process exits.
func (s *Server) Run() error {
	s.log.Info("monitor listening", log.String("addr", s.addr))
	return s.engine.Run(s.addr)
}

func writeError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

var errNotFound = fmt.Errorf("monitor: not found")

func notFound(c *gin.Context, what string) {
	writeError(c, http.StatusNotFound, fmt.Errorf("%s: %w", what, errNotFound))
}
