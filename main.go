package main

import (
	"context"
	"fmt"
	"os"

	"customer-ltv/config"
	"customer-ltv/ingest"
	"customer-ltv/models"
	"customer-ltv/services"
	"customer-ltv/storage"
	"customer-ltv/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Customer Segmentation & LTV Pipeline starting ===")
	logger.Info("Config — segments: %d | top customers: %d | output: %s",
		cfg.Segments, cfg.TopCustomers, cfg.OutputDir)

	csvWriter, err := storage.NewCSVWriter(cfg.OutputDir)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	var pgWriter *storage.PostgresWriter
	if cfg.PostgresEnabled {
		pgWriter, err = storage.NewPostgresWriter(cfg.DSN(), logger)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
			os.Exit(1)
		}
		defer pgWriter.Close()
	}

	var raw []*models.RawTransaction
	if cfg.SourceDSN != "" {
		loader := ingest.NewDBLoader(cfg.SourceDSN, cfg.SourceTable, logger)
		raw, err = loader.Load(context.Background())
	} else {
		raw, err = ingest.NewCSVLoader(cfg.CSVInputPath, logger).Load()
	}
	if err != nil {
		logger.Error("Failed to load transactions: %v", err)
		os.Exit(1)
	}

	if len(raw) == 0 {
		logger.Error("No transactions were loaded. Exiting.")
		os.Exit(1)
	}

	pipeline := services.NewPipeline(logger)
	result, err := pipeline.Run(raw, cfg.Segments)
	if err != nil {
		logger.Error("Pipeline failed: %v", err)
		os.Exit(1)
	}

	if err := csvWriter.Write(result); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Result tables saved to %s", cfg.OutputDir)
	}

	if pgWriter != nil {
		if err := pgWriter.Write(result); err != nil {
			logger.Error("PostgreSQL write failed: %v", err)
		} else {
			logger.Info("Result tables stored in PostgreSQL (customer_rfm, customer_ltv)")
		}
	}

	insightSvc := services.NewInsightService(logger, cfg.TopCustomers)
	report := insightSvc.Generate(result)
	insightSvc.Print(report)

	fmt.Printf("  Done. Segments → %s/rfm_segments.csv | LTV → %s/customer_ltv.csv\n\n",
		cfg.OutputDir, cfg.OutputDir)
}
