//POST   /api/v1/videos?name=       # Принять клип (сырое тело)
//GET    /api/v1/videos             # Список клипов
//GET    /api/v1/videos/{id}        # Метаданные клипа
//GET    /api/v1/videos/{id}/content # Содержимое клипа
//DELETE /api/v1/videos/{id}        # Удалить клип
//GET    /api/v1/health             # Проверка доступности

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	healthAPI "clipkeeper/internal/app/server/api/http/health"
	"clipkeeper/internal/app/server/api/http/middleware"
	"clipkeeper/internal/app/server/api/http/middleware/logger"
	videoAPI "clipkeeper/internal/app/server/api/http/video"
	"clipkeeper/internal/domain/ingest"
)

type Handlers struct {
	Health *healthAPI.Handler
	Video  *videoAPI.Handler
}

// New создает *chi.Mux со всеми операциями через huma.Register
// db может быть nil, тогда /health не проверяет базу
func New(service ingest.Servicer, db healthAPI.Pinger, maxUploadBytes int64, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("ClipKeeper Ingest API", "1.0.0")
	API := humachi.New(mux, config)

	h := handlers(service, db, maxUploadBytes, log)
	h.Health.SetupRoutes(API)
	h.Video.SetupRoutes(API)

	return mux
}

func handlers(service ingest.Servicer, db healthAPI.Pinger, maxUploadBytes int64, log *slog.Logger) *Handlers {
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(db, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	videoHandler := videoAPI.NewHandler(service, maxUploadBytes, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Video:  videoHandler,
	}
}
