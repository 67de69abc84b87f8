package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"resumerag/internal/ai"
	"resumerag/internal/config"
	"resumerag/internal/embedcache"
	"resumerag/internal/filestore"
	"resumerag/internal/handler"
	"resumerag/internal/job"
	"resumerag/internal/middleware"
	"resumerag/internal/schedule"
	"resumerag/internal/service"
	"resumerag/internal/store"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "resumerag",
		Short: "resume retrieval service",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run resumerag server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx := context.Background()
	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("data_path", cfg.DataPath),
		zap.String("upload_store", cfg.UploadStore.Type),
		zap.String("embed_provider", cfg.AI.Embedder.Provider),
		zap.String("gen_provider", cfg.AI.Generator.Provider),
	)

	genProvider, err := ai.NewProvider(cfg.AI.Generator.Provider, cfg.AI.Generator.Data)
	if err != nil {
		return fmt.Errorf("init generative provider: %w", err)
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.AI.Embedder.Provider, cfg.AI.Embedder.Data)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	generator := ai.NewGenerator(genProvider, cfg.AI.Generator.Model)
	embedder := embedcache.WrapLruCacheToEmbedder(
		ai.NewEmbedder(embedProvider, cfg.AI.Embedder.Model),
		cfg.AI.CacheSize,
		time.Duration(cfg.AI.CacheTTLMins)*time.Minute,
	)

	corpus := store.NewCorpus()
	snapshot := store.NewSnapshot(cfg.DataPath)
	rag := service.NewRAGService(corpus, snapshot, embedder, generator, service.Options{
		Timeout:       time.Duration(cfg.AI.Timeout) * time.Second,
		ContextChars:  cfg.AI.ContextChars,
		MaxInputChars: cfg.AI.MaxInputChars,
	})
	rag.Hydrate(ctx)
	logutil.GetLogger(ctx).Info("corpus hydrated", zap.Int("resumes", corpus.Size()))
	if reachable := rag.Status(ctx).GenerativeReachable; !reachable {
		logutil.GetLogger(ctx).Warn("generative provider not reachable, answers will be degraded")
	}

	uploads, err := filestore.New(cfg.UploadStore)
	if err != nil {
		return fmt.Errorf("init upload store: %w", err)
	}

	deps := handler.RouterDeps{
		Resumes: handler.NewResumeHandler(rag, uploads),
		Search:  handler.NewSearchHandler(rag),
		Status:  handler.NewStatusHandler(rag),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewSnapshotJob(rag), cfg.SnapshotCron); err != nil {
		return fmt.Errorf("schedule snapshot job: %w", err)
	}

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	scheduler.Start(signalCtx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(ctx).Error("server error", zap.Error(err))
		}
	}()

	<-signalCtx.Done()
	logutil.GetLogger(ctx).Info("server stopping...")
	if err := rag.SaveSnapshot(ctx); err != nil {
		logutil.GetLogger(ctx).Error("final snapshot failed", zap.Error(err))
	}
	return nil
}
