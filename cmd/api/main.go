package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vogiaan1904/ticketbottle-reservation/config"
	grpcSvc "github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/grpc"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/infra/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/metrics"
	repo "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/clock"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/grpc/ticketingv1"
	pkgKafka "github.com/vogiaan1904/ticketbottle-reservation/pkg/kafka"
	pkgLog "github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l, err := pkgLog.New(pkgLog.Config{
		Service:  cfg.Log.Service,
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	redisCli, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redis.Disconnect(redisCli)

	metrics.Register()
	clk := clock.NewSystem()

	repos := service.Repositories{
		Events:   repo.NewRedisEventRepository(redisCli, l, cfg.Reservation.TxMaxRetries),
		Waitlist: repo.NewRedisWaitlistRepository(redisCli, l),
		Tickets:  repo.NewRedisTicketRepository(redisCli, l),
		Jobs:     repo.NewRedisJobRepository(redisCli, l),
	}
	limiter := service.NewJoinRateLimiter(repo.NewRedisRateLimitRepository(redisCli, l), cfg.Reservation, clk, l)
	tokens := service.NewOfferTokenService(cfg.JWT, clk, l)

	var prod producer.Producer
	if cfg.Kafka.Enabled {
		kSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			ClientID:     cfg.Kafka.ClientID,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod = producer.NewProducer(kSyncProd, l)
		defer prod.Close()
	} else {
		l.Warn(ctx, "Kafka is disabled, domain events will not be published")
	}

	svc := service.NewReservationService(repos, limiter, tokens, prod, clk, cfg.Reservation, l)

	if cfg.Kafka.Enabled {
		kConsGr, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
			Brokers:    cfg.Kafka.Brokers,
			GroupID:    cfg.Kafka.ConsumerGroupID,
			ClientID:   cfg.Kafka.ClientID,
			FromOldest: cfg.Kafka.ConsumerFromOldest,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
		}
		cons := consumer.NewConsumer(kConsGr, svc, l)
		if err := cons.Start(ctx); err != nil {
			l.Fatalf(ctx, "Failed to start Kafka consumer: %v", err)
		}
		defer func() {
			if err := cons.Close(); err != nil {
				l.Errorf(context.Background(), "Failed to close Kafka consumer: %v", err)
			}
		}()
	}

	processors := []service.Processor{
		service.NewExpiryDispatcher(svc, repos.Jobs, clk, cfg.Scheduler, l),
		service.NewReconciler(svc, cfg.Scheduler, cfg.Reservation.PromoteBatchSize, l),
	}
	for _, p := range processors {
		if err := p.Start(ctx); err != nil {
			l.Fatalf(ctx, "Failed to start processor: %v", err)
		}
	}

	// gRPC server
	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}

	gRpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcSvc.UnaryLoggingInterceptor(l)))
	ticketingv1.RegisterTicketingServiceServer(gRpcSrv, grpcSvc.NewGrpcService(svc, l))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(gRpcSrv, healthSrv)
	healthSrv.SetServingStatus(ticketingv1.ServiceName, healthpb.HealthCheckResponse_SERVING)

	// metrics server
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := redisCli.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           pkgLog.HTTPLogger(l)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Infof(gCtx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		return gRpcSrv.Serve(lnr)
	})
	g.Go(func() error {
		l.Infof(gCtx, "Metrics server is listening on port: %d", cfg.Server.MetricsPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		l.Info(context.Background(), "Server shutting down...")

		healthSrv.Shutdown()
		for _, p := range processors {
			if err := p.Stop(); err != nil {
				l.Warnf(context.Background(), "Failed to stop processor: %v", err)
			}
			st := p.GetStatus()
			l.Infof(context.Background(), "%s processed %d items, %d errors", st.Name, st.TotalProcessed, st.ErrorCount)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			l.Warnf(shutdownCtx, "Metrics server shutdown: %v", err)
		}
		gRpcSrv.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		l.Errorf(context.Background(), "Server stopped with error: %v", err)
	}

	l.Info(context.Background(), "Server exited")
}
