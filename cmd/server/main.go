package main

import (
	"context"
	"net/http"

	webAdapter "zenith-fieldservice/internal/adapters/web"
	"zenith-fieldservice/internal/ai"
	"zenith-fieldservice/internal/app"
	"zenith-fieldservice/internal/config"
	"zenith-fieldservice/internal/core"
	"zenith-fieldservice/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := config.NewLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer pool.Close()

	numbers := core.NewNumberService(pool)
	audit := core.NewAuditRecorder(pool, log)

	var extractor ai.ExtractorService
	if cfg.OpenAIKey != "" {
		extractor = ai.NewExtractor(cfg.OpenAIKey)
	} else {
		log.Warn("OPENAI_API_KEY is not set; receipt extraction is disabled")
	}

	svc := app.NewAppService(pool, app.Services{
		Customers:   core.NewCustomerService(pool),
		Projects:    core.NewProjectService(pool, numbers),
		Vendors:     core.NewVendorService(pool),
		Parts:       core.NewPartService(pool),
		CostCodes:   core.NewCostCodeService(pool),
		WorkOrders:  core.NewWorkOrderService(pool, numbers, audit),
		TimeEntries: core.NewTimeEntryService(pool, audit),
		Receipts:    core.NewReceiptService(pool, numbers, audit),
		Allocations: core.NewAllocationService(pool, audit),
		CloseOut:    core.NewCloseOutService(pool),
		Costing:     core.NewCostingService(pool),
		Extractor:   extractor,
	})

	users := core.NewUserService(pool)
	handler := webAdapter.NewHandler(svc, users, log, cfg.AllowedOrigins, cfg.JWTSecret)

	log.WithField("port", cfg.ServerPort).Info("server starting")
	if err := http.ListenAndServe(":"+cfg.ServerPort, handler); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
