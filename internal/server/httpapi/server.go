package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/logging"
	"github.com/dmitrijs2005/mediavault/internal/server/services"
	"github.com/gin-gonic/gin"
)

type HTTPServer struct {
	address   string
	handler   *AssetHandler
	logger    logging.Logger
	jwtSecret []byte
}

func NewHTTPServer(a string, l logging.Logger, as *services.AssetService, secretKey string) (*HTTPServer, error) {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		handler:   NewAssetHandler(as, l),
		jwtSecret: []byte(secretKey),
	}, nil
}

func (s *HTTPServer) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", AuthMiddleware(s.jwtSecret))
	{
		api.GET("/assets", s.handler.List)
		api.POST("/assets/upload-slot", s.handler.CreateUploadSlot)
		api.POST("/assets/:id/finalize", s.handler.Finalize)
		api.PATCH("/assets/:id", s.handler.Rename)
		api.DELETE("/assets/:id", s.handler.Delete)
		api.POST("/assets/:id/download-url", s.handler.DownloadURL)
		api.PUT("/assets/:id/shares/:granteeID", s.handler.Share)
		api.DELETE("/assets/:id/shares/:granteeID", s.handler.RevokeShare)
	}

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
