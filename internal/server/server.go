package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/deancochran/gradientpeak-sub006/internal/chunk"
	"github.com/deancochran/gradientpeak-sub006/internal/config"
	"github.com/deancochran/gradientpeak-sub006/internal/profile"
	"github.com/deancochran/gradientpeak-sub006/internal/recording"
	"github.com/deancochran/gradientpeak-sub006/internal/shared/clock"
	"github.com/deancochran/gradientpeak-sub006/internal/stream"
	"github.com/deancochran/gradientpeak-sub006/internal/trainingload"
)

type Server struct {
	App        *fiber.App
	Cfg        config.Config
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Stream     *stream.Hub
	Recordings *recording.Service
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	clk := clock.Real()
	hub := stream.NewHub(redisClient)
	profiles := profile.NewService(db)
	loads := trainingload.NewService(db, clk)
	recordings := recording.NewService(db, chunk.NewStore(db), hub, profiles, loads,
		recording.NewRedisCheckpoints(redisClient), clk, tunables(cfg))

	s := &Server{
		App:        app,
		Cfg:        cfg,
		DB:         db,
		Redis:      redisClient,
		Stream:     hub,
		Recordings: recordings,
	}

	registerRoutes(s, profiles, loads)
	return s
}

func tunables(cfg config.Config) recording.Tunables {
	tun := recording.DefaultTunables()
	if cfg.GPSAccuracyCeilingM > 0 {
		tun.GPSAccuracyCeilingM = cfg.GPSAccuracyCeilingM
	}
	if cfg.ChunkFlushMs > 0 {
		tun.FlushInterval = cfg.FlushInterval()
	}
	if cfg.SnapshotIntervalMs > 0 {
		tun.SnapshotInterval = cfg.SnapshotInterval()
	}
	if cfg.ChunkForceFlushCap > 0 {
		tun.ForceFlushCap = cfg.ChunkForceFlushCap
	}
	if cfg.RollingWindowSec > 0 {
		tun.RollingWindowSec = cfg.RollingWindowSec
	}
	return tun
}

func registerRoutes(s *Server, profiles *profile.Service, loads *trainingload.Service) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	recording.RegisterRoutes(s.App.Group("/recordings"), s.Recordings)
	profile.RegisterRoutes(s.App.Group("/profiles"), profiles)
	trainingload.RegisterRoutes(s.App.Group("/training-load"), loads)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
