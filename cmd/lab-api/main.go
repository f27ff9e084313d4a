package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"aws-console-lab/internal/api"
	"aws-console-lab/internal/enrichment"
	"aws-console-lab/internal/repository"
	"aws-console-lab/internal/seed"
	"aws-console-lab/internal/service"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func main() {
	// Configurações via Variáveis de Ambiente (.env é opcional)
	_ = godotenv.Load()

	dbPath := getEnv("DB_PATH", "./data/simulation.db")
	serverPort := getEnv("SERVER_PORT", ":8080")

	timeoutSeconds, err := strconv.Atoi(getEnv("ENRICHMENT_TIMEOUT_SECONDS", "10"))
	if err != nil || timeoutSeconds <= 0 {
		timeoutSeconds = 10
	}
	enrichmentTimeout := time.Duration(timeoutSeconds) * time.Second

	// 1. Camada de Infraestrutura (Implementações)
	repo, err := repository.NewGormRepository(dbPath)
	if err != nil {
		log.Fatalf("Falha ao iniciar o repositório SQLite: %v", err)
	}

	if err := seed.Run(context.Background(), repo); err != nil {
		log.Fatalf("Falha ao semear o catálogo de labs: %v", err)
	}

	// Colaboradores externos best-effort: sem API key, cada cliente
	// devolve nada e o scorer usa os fallbacks locais.
	feedback := enrichment.NewOpenAIClient(
		getEnv("OPENAI_BASE_URL", ""),
		getEnv("OPENAI_API_KEY", ""),
		getEnv("OPENAI_MODEL", ""),
		enrichmentTimeout,
	)
	videos := enrichment.NewYouTubeClient(
		"",
		getEnv("YOUTUBE_API_KEY", ""),
		enrichmentTimeout,
	)

	// 2. Camada de Lógica de Negócios (Serviço)
	simSvc := service.NewSimulationService(repo, feedback, videos)
	healthSvc := service.NewHealthService(repo)

	// 3. Camada de Apresentação (API/Handlers)
	handler := api.NewHandler(simSvc, healthSvc)

	// 4. Configuração do Servidor Web (Echo)
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Regista as rotas
	api.RegisterRoutes(e, handler)

	log.Printf("🚀 Servidor do AWS Console Lab rodando na porta %s", serverPort)
	if err := e.Start(serverPort); err != nil {
		log.Fatalf("Falha ao iniciar o servidor Echo: %v", err)
	}
}
