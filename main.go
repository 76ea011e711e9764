package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Global service instances
var (
	store      *Store
	camaraAPI  *CamaraClient
	pautaCache *PautaCache
	analyzer   *BillAnalyzer
	exporter   PautaRenderer
)

func main() {
	// Load configuration
	LoadConfig()

	// Open the notes and snapshot store
	var err error
	store, err = OpenStore(DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	// Wire the scraping pipeline and caches
	camaraAPI = NewCamaraClient(nil, "")
	destaques := NewDestaquesFetcher(nil, "")
	scraper := NewPautaScraper(nil, "", camaraAPI, destaques)
	pautaCache = NewPautaCache(scraper, store, PautaCacheTTL)
	analyzer = NewBillAnalyzer(camaraAPI, NewLLMClient(nil, "", LLMAPIKey, ""), nil, "")
	exporter = NewHTMLRenderer()

	// Create Gin router
	router := gin.Default()

	// Request size limit middleware
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBodySize)
		c.Next()
	})

	// Request ID middleware
	router.Use(func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	})

	// CORS middleware with dynamic origin validation
	router.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			// In production, use environment-configured origins
			if len(CORSAllowedOrigins) > 0 && CORSAllowedOrigins[0] != "" {
				for _, allowedOrigin := range CORSAllowedOrigins {
					if origin == allowedOrigin {
						return true
					}
				}
				return false
			}
			// In development, allow any localhost/127.0.0.1 origin
			return len(origin) > 0 && (
				len(origin) >= 16 && origin[:16] == "http://localhost" ||
				len(origin) >= 14 && origin[:14] == "http://127.0.0")
		},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	// Routes
	router.GET("/", healthCheck)
	router.GET("/api/eventos", listEventosHandler)
	router.GET("/api/eventos/:id", getEventoHandler)
	router.GET("/api/pauta/:id", viewPautaHandler)
	router.POST("/api/pauta/:id/save_item", saveItemHandler)
	router.GET("/api/analisar", analisarHandler)
	router.GET("/exportar/:id", exportarHandler)

	// Start server
	log.Println("Starting pauta-plenario backend on port 5000...")
	if err := router.Run(":5000"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// healthCheck returns a simple health check response.
// GET / - Returns service status information.
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "Pauta Plenario API",
	})
}

// listEventosHandler lists the deliberative sessions scheduled for a date.
// GET /api/eventos?data=YYYY-MM-DD - Defaults to today when data is absent.
func listEventosHandler(c *gin.Context) {
	data := c.Query("data")
	if data == "" {
		data = time.Now().Format("2006-01-02")
	}

	eventos := camaraAPI.EventosPorData(c.Request.Context(), data)
	c.JSON(http.StatusOK, gin.H{
		"data":    data,
		"eventos": eventos,
	})
}

// getEventoHandler returns one session's metadata.
// GET /api/eventos/:id - Returns placeholder fields when the API is down.
func getEventoHandler(c *gin.Context) {
	eventoID := c.Param("id")
	c.JSON(http.StatusOK, camaraAPI.Evento(c.Request.Context(), eventoID))
}

// viewPautaHandler returns a session's annotated agenda.
// GET /api/pauta/:id?force_reload=true - Bypasses the in-memory cache.
func viewPautaHandler(c *gin.Context) {
	eventoID := c.Param("id")
	forceReload := c.Query("force_reload") == "true"

	ctx := c.Request.Context()
	itens, fromCache, lastUpdated := pautaCache.Fetch(ctx, eventoID, forceReload)
	evento := camaraAPI.Evento(ctx, eventoID)

	c.JSON(http.StatusOK, PautaResponse{
		Evento:      evento,
		Itens:       itens,
		FromCache:   fromCache,
		LastUpdated: lastUpdated,
	})
}

// saveItemHandler persists a bill's notes and its highlight notes.
// POST /api/pauta/:id/save_item - Replaces existing notes for the same keys.
func saveItemHandler(c *gin.Context) {
	var req SaveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Requisição inválida: %v", err),
		})
		return
	}
	req.EventoID = c.Param("id")

	if err := pautaCache.Save(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Erro ao salvar: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item e destaques salvos com sucesso!",
	})
}

// analisarHandler generates a partisan analysis of a bill's full text.
// GET /api/analisar?numero=PL+1234/2024 - Returns an HTML fragment.
func analisarHandler(c *gin.Context) {
	numero := c.Query("numero")
	if numero == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Parâmetro 'numero' é obrigatório",
		})
		return
	}

	if LLMAPIKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Análise indisponível: LLM_API_KEY não configurada",
		})
		return
	}

	html, err := analyzer.Analyze(c.Request.Context(), numero)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Erro na análise: %v", err),
		})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// exportarHandler renders a session's agenda as a standalone document.
// GET /exportar/:id - Serves the in-memory or freshly scraped agenda.
func exportarHandler(c *gin.Context) {
	eventoID := c.Param("id")

	ctx := c.Request.Context()
	itens, fromCache, lastUpdated := pautaCache.Fetch(ctx, eventoID, false)
	evento := camaraAPI.Evento(ctx, eventoID)

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=pauta_%s.html", eventoID))
	c.Header("Content-Type", exporter.ContentType())
	c.Status(http.StatusOK)

	err := exporter.Render(c.Writer, ExportData{
		Evento:      evento,
		Itens:       itens,
		FromCache:   fromCache,
		LastUpdated: lastUpdated,
	})
	if err != nil {
		log.Printf("Failed to render export for event %s: %v", eventoID, err)
	}
}
