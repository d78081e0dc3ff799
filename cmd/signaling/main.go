package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mossy-p/peer-relay/config"
	"github.com/mossy-p/peer-relay/internal/codec"
	"github.com/mossy-p/peer-relay/internal/handlers"
	"github.com/mossy-p/peer-relay/internal/redis"
	"github.com/mossy-p/peer-relay/internal/rooms"
	"github.com/mossy-p/peer-relay/internal/signaling"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Str("module", "main").Msg("exiting")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "signaling",
		Short:         "WebRTC signaling relay",
		Long:          "Relays join, signal and leave events between peers in named rooms so they can negotiate direct connections. Also serves room metadata endpoints, static files and recording uploads.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			setupLogging(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("port", "", "listening port (env PORT, default 3000)")
	flags.String("static-dir", "", "directory served for unmatched GET requests (env STATIC_DIR)")
	flags.String("recordings-dir", "", "upload destination (env RECORDINGS_DIR)")
	flags.String("wire-codec", "", "json or msgpack (env WIRE_CODEC)")
	flags.String("room-store", "", "memory or redis (env ROOM_STORE)")
	flags.String("config", "", "YAML config file (env CONFIG_FILE)")
	for key, flag := range map[string]string{
		"port":           "port",
		"static_dir":     "static-dir",
		"recordings_dir": "recordings-dir",
		"wire_codec":     "wire-codec",
		"room_store":     "room-store",
		"config_file":    "config",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(newRoomsCommand())
	return cmd
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("module", "main").Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func serve(ctx context.Context, cfg *config.Config) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	wireCodec, err := codec.New(cfg.WireCodec)
	if err != nil {
		return err
	}
	uploads, err := handlers.NewUploadHandler(cfg.RecordingsDir, cfg.MaxUploadMB<<20)
	if err != nil {
		return err
	}

	router := signaling.NewRouter()
	ws := handlers.NewSignalingHandler(router, wireCodec, handlers.SignalingOptions{
		SendBuffer:      cfg.SendBuffer,
		PongWait:        cfg.PongWait,
		MaxMessageBytes: cfg.MaxMessageBytes,
	})
	engine := handlers.SetupRouter(cfg, handlers.Server{
		Rooms:     handlers.NewRoomHandler(rooms.NewRegistry(store), router),
		Uploads:   uploads,
		Signaling: ws,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("module", "main").Str("addr", srv.Addr).Str("codec", wireCodec.Name()).
			Str("store", cfg.RoomStore).Msg("Starting WebRTC signaling server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Str("module", "main").Msg("Shutting down")
		ws.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Str("module", "main").Msg("Server exited gracefully")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (rooms.Store, func(), error) {
	if cfg.RoomStore != "redis" {
		return rooms.NewMemoryStore(), func() {}, nil
	}

	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("module", "main").Str("host", cfg.Redis.Host).Msg("Redis connection established")

	return redis.NewRoomStore(client, cfg.RoomTTL), func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Str("module", "main").Msg("closing Redis client")
		}
	}, nil
}
