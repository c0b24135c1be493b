package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FlowieFM/cache"
	"FlowieFM/config"
	"FlowieFM/core/analytics"
	"FlowieFM/db"
	"FlowieFM/logger"
	"FlowieFM/repository"
	"FlowieFM/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
		Compress:   true,
	})

	// 初始化 MinIO 客户端
	blobStore, err := storage.InitMinio(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	// Connect to Redis
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()
	logger.Info("Successfully connected to Redis")

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	trackRepo := repository.NewMySQLTrackRepository()
	playlistRepo := repository.NewMySQLPlaylistRepository()
	eventRepo := repository.NewGormListeningEventRepository()

	recorder := analytics.NewRecorder(eventRepo, trackRepo, playlistRepo,
		time.Duration(cfg.ListenCoalesceWindow)*time.Second)
	settingsCache := cache.NewPlayerSettingsCache(db.RedisClient)

	apiHandler := NewAPIHandler(trackRepo, playlistRepo, eventRepo, recorder, settingsCache, cfg)
	streamHandler := NewStreamHandler(trackRepo, blobStore)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(requestLogMiddleware)

	// 音频流端点：支持字节范围请求
	router.HandleFunc("/tracks/{id}/stream", streamHandler.HandleStream).Methods(http.MethodGet)

	// 收听统计端点
	router.HandleFunc("/analytics/listen", apiHandler.ListenHandler).Methods(http.MethodPost)
	router.HandleFunc("/analytics/stats/{track_id}", apiHandler.ListeningStatsHandler).Methods(http.MethodGet)

	// 目录与歌单相关的API端点
	router.HandleFunc("/api/tracks", apiHandler.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", apiHandler.GetPlaylistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", apiHandler.CreatePlaylistHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/tracks", apiHandler.GetPlaylistTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}/tracks", apiHandler.AddPlaylistTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/tracks/{track_id}", apiHandler.RemovePlaylistTrackHandler).Methods(http.MethodDelete)

	// 播放偏好端点
	router.HandleFunc("/api/player/settings", apiHandler.GetPlayerSettingsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/player/settings", apiHandler.UpdatePlayerSettingsHandler).Methods(http.MethodPut)

	// 设置服务器超时；音频流响应时间取决于请求的范围大小，
	// 写超时给得宽一些
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		logger.Info("Stream tracks via GET /tracks/{id}/stream (Range supported)")
		logger.Info("Record listening ticks via POST /analytics/listen")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	// 等待中断信号
	<-stop
	logger.Info("Shutting down server...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
