package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-menu-orders.git/internal/config"
	"github.com/ariefcatur/go-menu-orders.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-menu-orders.git/internal/kafka"
	"github.com/ariefcatur/go-menu-orders.git/internal/menu"
	"github.com/ariefcatur/go-menu-orders.git/internal/metrics"
	"github.com/ariefcatur/go-menu-orders.git/internal/orders"
	"github.com/ariefcatur/go-menu-orders.git/internal/postgres"
	"github.com/ariefcatur/go-menu-orders.git/internal/redisx"
	"github.com/ariefcatur/go-menu-orders.git/internal/stats"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers (satu per topic)
	pNew := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pNew.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatus, 1024)
	pStatus.Start(ctx)
	pCancel := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024)
	pCancel.Start(ctx)

	// Services & handlers
	catalog := &menu.CatalogRepo{DB: db}
	ledger := &menu.LedgerRepo{DB: db}
	svc := &orders.Service{
		Catalog: catalog,
		Ledger:  ledger,
		Store:   &orders.Repo{DB: db},
	}

	m := metrics.NewServerMetrics(cfg.ServiceName)
	router := httpx.NewRouter(db, m)
	(&httpx.DishesHandler{Catalog: catalog, Ledger: ledger, Redis: rdb}).Register(router)
	(&httpx.OrdersHandler{
		Service:        svc,
		ProducerNew:    pNew,
		ProducerStatus: pStatus,
		ProducerCancel: pCancel,
		Redis:          rdb,
		Name:           cfg.ServiceName,
	}).Register(router)
	(&httpx.StatsHandler{Repo: &stats.Repo{DB: db}}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range []*kafkax.Producer{pNew, pStatus, pCancel} {
		p.Close() // tutup inbox -> flush & close writer
	}
	cancel() // stop producer loops
	for _, p := range []*kafkax.Producer{pNew, pStatus, pCancel} {
		p.WaitClosed() // drain
	}
}
