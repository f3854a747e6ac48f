package main

import (
	"context"
	"flag"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/safesite/helmetvision"
	"github.com/safesite/helmetvision/config"
	"github.com/safesite/helmetvision/dnn"
	"github.com/safesite/helmetvision/logger"
)

func main() {

	cfgFile := flag.String("c", "./config.yaml", "Server configuration file")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)

	if err != nil {
		panic(err)
	}

	if cfg.LogMode == "development" {
		err = logger.InitDevelopment()
	} else {
		err = logger.InitProduction()
	}

	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.Log()

	ctx := context.Background()

	// URL sourced model artifacts are fetched into the local cache once at
	// startup
	detModel, err := resolveModel(ctx, cfg.Detector.Model, cfg.ModelCacheDir)

	if err != nil {
		log.Fatal("error resolving detection model", zap.Error(err))
	}

	clsModel, err := resolveModel(ctx, cfg.Classifier.Model, cfg.ModelCacheDir)

	if err != nil {
		log.Fatal("error resolving classification model", zap.Error(err))
	}

	detNames, err := helmetvision.LoadLabels(cfg.Detector.Labels)

	if err != nil {
		log.Fatal("error loading detection labels", zap.Error(err))
	}

	clsNames, err := helmetvision.LoadLabels(cfg.Classifier.Labels)

	if err != nil {
		log.Fatal("error loading classification labels", zap.Error(err))
	}

	// each pooled service gets its own backend pair, a forward pass is not
	// safe for concurrent use
	build := func() (*helmetvision.Service, error) {
		detector := dnn.NewDetector(dnn.DetectorConfig{
			ModelFile: detModel,
			Labels:    detNames,
			InputSize: cfg.Detector.InputSize,
		})

		classifier := dnn.NewClassifier(dnn.ClassifierConfig{
			ModelFile: clsModel,
			Labels:    clsNames,
			InputSize: cfg.Classifier.InputSize,
		})

		if err := detector.Err(); err != nil {
			log.Warn("helmet detection unavailable", zap.Error(err))
		}
		if err := classifier.Err(); err != nil {
			log.Warn("face classification unavailable", zap.Error(err))
		}

		opts := []helmetvision.Option{
			helmetvision.WithThreshold(cfg.Threshold),
			helmetvision.WithLogger(log),
		}

		if cfg.Classifier.InputSize > 0 {
			opts = append(opts, helmetvision.WithInputSize(cfg.Classifier.InputSize))
		}

		return helmetvision.NewService(detector, classifier, opts...), nil
	}

	pool, err := helmetvision.NewPool(cfg.PoolSize, build)

	if err != nil {
		log.Fatal("error creating service pool", zap.Error(err))
	}
	defer pool.Close()

	srv := newServer(pool, log)

	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/ping", srv.ping)
	r.GET("/api/state", srv.state)
	r.POST("/api/detect", srv.detect)
	r.POST("/api/detect/annotated", srv.detectAnnotated)

	log.Info("server starting", zap.String("listen", cfg.Listen),
		zap.Int("pool_size", cfg.PoolSize))

	if err := r.Run(cfg.Listen); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// resolveModel fetches URL sourced models into the cache directory and
// passes local paths through untouched
func resolveModel(ctx context.Context, src, cacheDir string) (string, error) {

	if !dnn.IsURL(src) {
		return src, nil
	}

	return dnn.FetchModel(ctx, src, cacheDir)
}
