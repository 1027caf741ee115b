package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/faceid/internal/config"
	"github.com/your-org/faceid/internal/matcher"
	"github.com/your-org/faceid/internal/models"
	"github.com/your-org/faceid/internal/observability"
	"github.com/your-org/faceid/internal/pipeline"
	"github.com/your-org/faceid/internal/queue"
	"github.com/your-org/faceid/internal/storage"
	"github.com/your-org/faceid/internal/vision"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting analysis worker",
		"workers", cfg.Pipeline.WorkerCount,
		"cpu_cores", runtime.NumCPU(),
	)

	// Initialize ONNX Runtime
	ort.SetSharedLibraryPath(getONNXLibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Error("init onnx runtime", "error", err)
		os.Exit(1)
	}
	defer ort.DestroyEnvironment()

	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	objects, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := objects.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	extractor, err := vision.NewONNXExtractor(cfg.Vision, nil)
	if err != nil {
		slog.Error("init face extractor", "error", err)
		os.Exit(1)
	}
	defer extractor.Close()

	m := matcher.New(db, float32(cfg.Vision.MatchThreshold))
	pipe := pipeline.New(db, objects, extractor, m, producer, cfg.Pipeline)

	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumePhotos(ctx, "analysis-workers", func(ctx context.Context, msg jetstream.Msg) error {
		switch {
		case strings.HasPrefix(msg.Subject(), queue.UploadedSubjectBase):
			var ev models.UploadedEvent
			if err := json.Unmarshal(msg.Data(), &ev); err != nil {
				slog.Error("unmarshal uploaded event", "error", err)
				return nil // malformed payloads never succeed on retry
			}
			return pipe.HandleUploaded(ctx, ev)
		case strings.HasPrefix(msg.Subject(), queue.DeletedSubjectBase):
			var ev models.DeletedEvent
			if err := json.Unmarshal(msg.Data(), &ev); err != nil {
				slog.Error("unmarshal deleted event", "error", err)
				return nil
			}
			return pipe.HandleDeleted(ctx, ev)
		default:
			slog.Warn("unexpected subject", "subject", msg.Subject())
			return nil
		}
	}, cfg.Pipeline.WorkerCount)
	if err != nil {
		slog.Error("start photo consumer", "error", err)
		os.Exit(1)
	}

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		slog.Info("worker metrics listening", "addr", ":8082")
		if err := http.ListenAndServe(":8082", mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	// Requeue claims abandoned by dead workers, once at startup and then
	// on an interval
	go func() {
		if err := pipe.RecoverStale(ctx); err != nil {
			slog.Warn("recover stale claims", "error", err)
		}
		ticker := time.NewTicker(cfg.Pipeline.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := pipe.RecoverStale(ctx); err != nil {
					slog.Warn("recover stale claims", "error", err)
				}
			}
		}
	}()

	// Periodically report queue depth
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				depth, err := producer.QueueDepth(ctx)
				if err == nil {
					observability.QueueDepth.Set(float64(depth))
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	slog.Info("worker stopped")
}

// getONNXLibPath returns the ONNX Runtime shared library path based on the
// operating system.
func getONNXLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
