package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/cardfolio/backend/internal/api/handlers"
	"github.com/codyseavey/cardfolio/backend/internal/config"
	"github.com/codyseavey/cardfolio/backend/internal/services"
)

// Services groups the engine components the API serves
type Services struct {
	Aggregator *services.Aggregator
	Discovery  *services.DiscoveryEngine
	Snapshots  *services.SnapshotService // nil when snapshot history is disabled
}

func SetupRouter(cfg config.ServerConfig, svc Services) *gin.Engine {
	router := gin.Default()
	router.Use(RequestID(), Metrics())

	serveFrontend := cfg.FrontendDistPath != "" && dirExists(cfg.FrontendDistPath)

	// CORS configuration - allow origins from config or use defaults
	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}
	corsConfig.AllowCredentials = false
	router.Use(cors.New(corsConfig))

	// Initialize handlers
	portfolioHandler := handlers.NewPortfolioHandler(svc.Aggregator, svc.Snapshots)
	discoveryHandler := handlers.NewDiscoveryHandler(svc.Discovery)
	platformHandler := handlers.NewPlatformHandler(svc.Aggregator)

	// API routes
	api := router.Group("/api")
	{
		// Portfolio routes
		portfolio := api.Group("/portfolio/:owner")
		{
			portfolio.GET("", portfolioHandler.GetPortfolio)
			portfolio.GET("/platforms/:platform", portfolioHandler.GetPlatformPortfolio)
			portfolio.GET("/history", portfolioHandler.GetValueHistory)
		}

		// Discovery routes
		discovery := api.Group("/discovery")
		{
			discovery.GET("/search", discoveryHandler.Search)
			discovery.GET("/analytics", discoveryHandler.GetMarketAnalytics)
			discovery.POST("/refresh", discoveryHandler.RefreshCorpus)
		}

		api.GET("/platforms", platformHandler.ListPlatforms)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Serve frontend static files
	if serveFrontend {
		frontendPath := cfg.FrontendDistPath
		indexPath := filepath.Join(frontendPath, "index.html")

		// Serve static assets
		router.Static("/assets", filepath.Join(frontendPath, "assets"))

		// Serve other static files (favicon, etc.)
		router.StaticFile("/vite.svg", filepath.Join(frontendPath, "vite.svg"))

		// Serve root index.html
		router.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})

		// SPA fallback - serve index.html for all non-API routes
		router.NoRoute(func(c *gin.Context) {
			path := c.Request.URL.Path

			// Don't serve index.html for API routes
			if strings.HasPrefix(path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}

			// Serve index.html for SPA routing
			c.File(indexPath)
		})
	}

	return router
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
