package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	rocketmq "github.com/apache/rocketmq-client-go/v2"
	"github.com/apache/rocketmq-client-go/v2/producer"
	"github.com/gorilla/mux"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/geek-guru098/NEPSTORE/pkg/auth"
	"github.com/geek-guru098/NEPSTORE/pkg/cart"
	"github.com/geek-guru098/NEPSTORE/pkg/catalog"
	"github.com/geek-guru098/NEPSTORE/pkg/checkout"
	"github.com/geek-guru098/NEPSTORE/pkg/events"
	"github.com/geek-guru098/NEPSTORE/pkg/model"
)

const defaultPort = "8080"

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}
}

// frontendServer serves the storefront API. Each browser session gets its
// own CartStore and checkout Orchestrator, created on first use; gateways,
// catalog and the completion notifier are shared.
type frontendServer struct {
	catalog  catalog.ProductRepository
	rdb      *redis.Client
	verifier auth.Verifier
	notifier checkout.Notifier
	gateways map[model.PaymentMethod]checkout.Gateway
	loginURL string
	log      *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*shopperSession
}

type shopperSession struct {
	cart     *cart.Store
	checkout *checkout.Orchestrator
}

// session finds or creates the per-session cart and checkout state, keyed by
// the session cookie.
func (fe *frontendServer) session(r *http.Request) *shopperSession {
	sid := sessionID(r)

	fe.mu.Lock()
	defer fe.mu.Unlock()

	if sess, ok := fe.sessions[sid]; ok {
		return sess
	}

	var storage cart.Storage
	if fe.rdb != nil {
		storage = cart.NewRedisStorage(fe.rdb, sid)
	} else {
		storage = cart.NewMemoryStorage()
	}
	store := cart.NewStore(r.Context(), storage, fe.log)
	sess := &shopperSession{
		cart:     store,
		checkout: checkout.NewOrchestrator(store, fe.gateways, fe.notifier, fe.log),
	}
	fe.sessions[sid] = sess
	return sess
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	fe := &frontendServer{
		catalog:  initCatalog(),
		rdb:      initRedis(),
		verifier: auth.NewJWTVerifier([]byte(getEnv("AUTH_JWT_SECRET", "my_super_secret_key_for_demo"))),
		loginURL: getEnv("LOGIN_URL", "/login"),
		log:      log,
		sessions: make(map[string]*shopperSession),
	}

	walletDelay := time.Duration(getEnvInt("WALLET_SETTLE_DELAY_MS", 2000)) * time.Millisecond
	fe.gateways = map[model.PaymentMethod]checkout.Gateway{
		model.PaymentMethodWallet:         checkout.NewWalletGateway(walletDelay, log),
		model.PaymentMethodCashOnDelivery: checkout.NewCODGateway(log),
	}

	notifier, shutdownMQ := initNotifier()
	fe.notifier = notifier
	defer shutdownMQ()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: fe.routes(),
	}

	go func() {
		log.Infof("NepStore server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
}

func (fe *frontendServer) routes() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", fe.listProductsHandler).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", fe.getProductHandler).Methods(http.MethodGet)
	api.HandleFunc("/cart", fe.viewCartHandler).Methods(http.MethodGet)
	api.HandleFunc("/cart", fe.addToCartHandler).Methods(http.MethodPost)
	api.HandleFunc("/cart", fe.emptyCartHandler).Methods(http.MethodDelete)
	api.HandleFunc("/cart/{id}", fe.updateCartItemHandler).Methods(http.MethodPut)
	api.HandleFunc("/cart/{id}", fe.removeCartItemHandler).Methods(http.MethodDelete)

	co := api.PathPrefix("/checkout").Subrouter()
	co.Use(fe.requireAuth)
	co.HandleFunc("", fe.beginCheckoutHandler).Methods(http.MethodPost)
	co.HandleFunc("", fe.checkoutSummaryHandler).Methods(http.MethodGet)
	co.HandleFunc("/shipping", fe.submitShippingHandler).Methods(http.MethodPost)
	co.HandleFunc("/confirm", fe.confirmCheckoutHandler).Methods(http.MethodPost)
	co.HandleFunc("/cancel", fe.cancelCheckoutHandler).Methods(http.MethodPost)

	var handler http.Handler = r
	handler = ensureSessionID(handler)
	handler = &logHandler{log: fe.log, next: handler}
	return handler
}

// initCatalog connects to the product database, or falls back to the seeded
// sample catalog when no MySQL address is configured. Either way the repo is
// fronted by the in-process cache.
func initCatalog() catalog.ProductRepository {
	mysqlAddr := os.Getenv("MYSQL_ADDR")
	if mysqlAddr == "" {
		log.Info("MYSQL_ADDR not set, serving the seeded sample catalog")
		return catalog.NewCachedRepo(catalog.NewSeedRepo(), log)
	}

	db, err := gorm.Open(gormmysql.Open(mysqlAddr), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to mysql: %v", err)
	}
	if err := db.AutoMigrate(&model.Product{}); err != nil {
		log.Warnf("failed to migrate products table: %v", err)
	}
	log.Info("connected to mysql")
	return catalog.NewCachedRepo(catalog.NewMysqlRepo(db), log)
}

// initRedis mirrors our deployment modes: sentinel in K8s, single node
// locally. Returns nil when Redis never comes up; carts then live in memory
// only, which degrades persistence but never blocks shopping.
func initRedis() *redis.Client {
	var rdb *redis.Client
	sentinelAddrs := os.Getenv("REDIS_SENTINEL_ADDRS")

	if sentinelAddrs != "" {
		masterName := getEnv("REDIS_MASTER_NAME", "mymaster")
		log.Infof("Initializing Redis in Sentinel Mode. Master: %s", masterName)

		rdb = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    masterName,
			SentinelAddrs: strings.Split(sentinelAddrs, ","),
			DB:            0,
		})
	} else {
		redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
		log.Infof("Initializing Redis in Single Node Mode. Addr: %s", redisAddr)

		rdb = redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})
	}

	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			log.Info("connected to redis")
			return rdb
		}

		if i == maxRetries-1 {
			log.Warnf("failed to connect to redis after %d retries: %v, carts will not be persisted", maxRetries, err)
			return nil
		}

		backoff := time.Duration(1<<i) * time.Second
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
		log.Warnf("redis not ready, retry in %v... (%d/%d)", backoff, i+1, maxRetries)
		time.Sleep(backoff)
	}
	return nil
}

// initNotifier starts the RocketMQ producer for completion events when a
// name server is configured; otherwise completions only get logged.
func initNotifier() (checkout.Notifier, func()) {
	nameServer := os.Getenv("MQ_NAMESERVER_ADDR")
	if nameServer == "" {
		log.Info("MQ_NAMESERVER_ADDR not set, completion events will be logged only")
		return &events.LogNotifier{Log: log}, func() {}
	}

	p, err := rocketmq.NewProducer(
		producer.WithNameServer(strings.Split(nameServer, ",")),
		producer.WithGroupName("nepstore_completion_producer_group"),
		producer.WithRetry(2),
	)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	if err := p.Start(); err != nil {
		log.Fatalf("Failed to start producer: %v", err)
	}

	return events.NewPublisher(p, log), func() {
		if err := p.Shutdown(); err != nil {
			log.Warnf("producer shutdown: %v", err)
		}
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
