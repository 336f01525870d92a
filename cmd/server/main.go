package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"settlecore/internal/auth"
	"settlecore/internal/config"
	cronrunner "settlecore/internal/cron"
	"settlecore/internal/db"
	"settlecore/internal/events"
	"settlecore/internal/fees"
	"settlecore/internal/handler"
	"settlecore/internal/ledger"
	"settlecore/internal/logger"
	gormrepository "settlecore/internal/repository/gorm"
	"settlecore/internal/reveal"
	"settlecore/internal/rules"
	"settlecore/internal/stats"
)

func main() {
	cfgPath := os.Getenv("SC_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("SC_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if strings.TrimSpace(cfg.Auth.Authority) == "" {
		log.Fatal("auth.authority must be configured")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		log.Fatal("auth.jwt_secret must be configured")
	}

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	broadcaster := events.NewBroadcaster()
	logSink := &events.LogSink{Logger: log}
	sink := events.Multi{
		&events.StoreSink{Store: store, Logger: log},
		logSink,
		broadcaster,
	}
	// The finalizer appends its ledger rows inside the finalization
	// transaction, so it only fans out to the live sinks.
	liveSink := events.Multi{logSink, broadcaster}

	feeDefaults := fees.Config{
		FeeBps:             cfg.Fees.FeeBps,
		FeeCap:             decimal.Zero,
		FeeRecipient:       cfg.Fees.FeeRecipient,
		UpdateDelaySeconds: cfg.Fees.UpdateDelaySeconds,
	}
	if strings.TrimSpace(cfg.Fees.FeeCap) != "" {
		capValue, err := decimal.NewFromString(strings.TrimSpace(cfg.Fees.FeeCap))
		if err != nil {
			log.Fatal("invalid fees.fee_cap", zap.Error(err))
		}
		feeDefaults.FeeCap = capValue
	}

	feeEngine := &fees.Engine{
		Store:     store,
		Logger:    log,
		Sink:      sink,
		Authority: cfg.Auth.Authority,
	}
	if err := feeEngine.Load(context.Background(), feeDefaults); err != nil {
		log.Fatal("fee engine init failed", zap.Error(err))
	}

	ruleService := &rules.Service{Store: store, Logger: log, Sink: sink}
	ledgerService := &ledger.Service{Store: store, Logger: log, Sink: sink}
	finalizer := &reveal.Finalizer{
		Store:     store,
		Fees:      feeEngine,
		Logger:    log,
		Sink:      liveSink,
		Authority: cfg.Auth.Authority,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	jwt := auth.JWT{Secret: []byte(cfg.Auth.JWTSecret), TokenTTL: cfg.Auth.TokenTTL}
	engine.Use(auth.Middleware(jwt))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	ruleHandler := &handler.RuleHandler{Rules: ruleService, Outcomes: store}
	ruleHandler.Register(engine)
	commitmentHandler := &handler.CommitmentHandler{Ledger: ledgerService, Finalizer: finalizer}
	commitmentHandler.Register(engine)
	feeHandler := &handler.FeeHandler{Fees: feeEngine}
	feeHandler.Register(engine)
	invocationHandler := &handler.InvocationHandler{Finalizer: finalizer, Reader: store}
	invocationHandler.Register(engine)
	eventHandler := &handler.EventHandler{Reader: store, Broadcaster: broadcaster, Logger: log}
	eventHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(log, ctx)
	if cfg.Stats.Enabled {
		heartbeat := &stats.Heartbeat{Store: store, Fees: feeEngine, Logger: log}
		if _, err := cronRunner.Add(cfg.Stats.CronSpec, heartbeat.Run); err != nil {
			log.Warn("cron register heartbeat failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 2)

	go func() {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
