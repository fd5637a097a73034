package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"linkbot.local/gee"
	"linkbot.local/gee/middleware"
	botcache "linkbot.local/internal/app/linkbot/cache"
	"linkbot.local/internal/app/linkbot/currency"
	"linkbot.local/internal/app/linkbot/httpapi"
	"linkbot.local/internal/app/linkbot/interactions"
	"linkbot.local/internal/app/linkbot/resolve"
	"linkbot.local/internal/app/linkbot/stats"
	platformcache "linkbot.local/internal/platform/cache"
	"linkbot.local/internal/platform/config"
	"linkbot.local/internal/platform/httpmiddleware"
	"linkbot.local/internal/platform/httpserver"
	"linkbot.local/internal/platform/metrics"
	"linkbot.local/internal/platform/ratelimit"
	"linkbot.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))

	publicKey, err := cfg.PublicKey()
	if err != nil {
		log.Fatal(err)
	}
	converter, err := currency.NewConverter(cfg.YuanToEuroRate)
	if err != nil {
		log.Fatal(err)
	}

	metrics.Init()

	// Redis 是可选的：只有限流需要它时才强制连接
	var redisClient *redis.Client
	if cfg.RateLimitEnabled {
		redisClient, err = platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal(err)
		}
		defer redisClient.Close()
		slog.Info("Redis 连接成功", "addr", cfg.RedisAddr)
	} else {
		slog.Warn("RateLimit disabled by config", "RATELIMIT_ENABLED", false)
	}
	// 接口类型的 nil 才能让 RateLimit 放行，不能传 (*Limiter)(nil)
	var limiter httpmiddleware.Allower
	if redisClient != nil {
		limiter = ratelimit.NewLimiter(redisClient)
	}

	// 重放检测：本地 ristretto，有 Redis 时多实例共享
	localCache, err := botcache.NewLocalCache(100000, 100000) // 10万条签名
	if err != nil {
		log.Fatal(err)
	}
	replay := botcache.NewReplayGuard(redisClient, localCache, cfg.ReplayWindow)
	defer replay.Close()

	// 命令统计：channel 消费者总是开启（写 Prometheus），Kafka 按配置追加
	channelCollector := stats.NewChannelCollector(10000)
	channelConsumer := stats.NewConsumer(channelCollector)
	collector := stats.Multi{channelCollector}
	if cfg.KafkaEnabled {
		slog.Info("使用 Kafka 发布命令统计", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		collector = append(collector, stats.NewKafkaCollector(cfg.KafkaBrokers, cfg.KafkaTopic))
	}

	if cfg.TracingEnabled {
		shutdown, err := trace.Init(cfg.OtlpGrpcEndpoint, cfg.OtlpServiceName, version)
		if err != nil {
			slog.Error("trace init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error("trace shutdown failed", "err", err)
				}
			}()
		}
	} else {
		slog.Warn("Tracing disabled by config", "TRACING_ENABLED", false)
	}

	resolver := resolve.Default()
	dispatcher := interactions.NewDispatcher(resolver, converter, interactions.Texts{
		CreatorID:      cfg.CreatorID,
		SpreadsheetURL: cfg.SpreadsheetURL,
		RegisterURL:    cfg.RegisterURL,
	}, collector)

	// 对外业务
	r := gee.New()
	r.Use(gee.Recovery(), middleware.ReqID(), middleware.AccessLog(), httpmiddleware.Metrics(), httpmiddleware.TraceName())

	httpapi.RegisterHealthRoutes(r)
	httpapi.RegisterWebhookRoutes(r, dispatcher, httpmiddleware.SignatureOptions{
		PublicKey: publicKey,
		MaxSkew:   cfg.SignatureMaxSkew,
		Replay:    replay,
	})
	httpapi.RegisterAPIRoutes(r.Group("/api/v1"), resolver, converter, limiter)

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)
	adminSrv := httpserver.NewAdmin(cfg, adminMux(cfg, redisClient))

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumerDone := make(chan struct{})
	go func() {
		channelConsumer.Run(stopCtx)
		close(consumerDone)
	}()

	errch := make(chan error, 2)
	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(publicSrv, cfg.ShutdownTimeout, stopCtx)
	}()
	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(adminSrv, cfg.ShutdownTimeout, stopCtx)
	}()
	slog.Info("linkbot started", "addr", cfg.Addr, "admin_addr", cfg.AdminAddr, "version", version)

	err = <-errch
	stop()
	if err == nil {
		err = <-errch
	} else {
		select {
		case <-errch:
		case <-time.After(cfg.ShutdownTimeout + time.Second):
		}
	}

	// 服务器都停了再关收集器，保证没有并发的 Collect
	collector.Close()
	<-consumerDone

	if err != nil {
		log.Fatal(err)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(h).With("service", cfg.ServiceName)
}

// adminMux 仅本机/内网
func adminMux(cfg config.Config, redisClient *redis.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient == nil {
			w.Write([]byte("ready"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("redis ping failed"))
			return
		}
		w.Write([]byte("ready"))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
		})
	})

	if cfg.PprofEnabled {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}
