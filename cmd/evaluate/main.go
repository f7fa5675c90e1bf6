package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/medgraph/medrecords-qa/internal/adapters/database"
	"github.com/medgraph/medrecords-qa/internal/adapters/search"
	"github.com/medgraph/medrecords-qa/internal/application/services"
	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	"github.com/medgraph/medrecords-qa/internal/evaluation"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/clients/openai"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/clients/postgres"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/clients/typesense"
	"github.com/medgraph/medrecords-qa/pkg/config"
)

func main() {
	var goldenPath string
	var question string
	var patientID string
	var minRecall float64
	var minCategoryAccuracy float64
	var maxLatency time.Duration
	flag.StringVar(&goldenPath, "golden", "config/golden_queries.json", "path to the golden query set")
	flag.StringVar(&question, "question", "", "run a single ad-hoc question instead of the golden set")
	flag.StringVar(&patientID, "patient", "", "patient filter for the ad-hoc question")
	flag.Float64Var(&minRecall, "min-recall", 0, "fail the run if average recall@5 falls below this value")
	flag.Float64Var(&minCategoryAccuracy, "min-category-accuracy", 0, "fail the run if category accuracy falls below this value")
	flag.DurationVar(&maxLatency, "max-latency", 0, "fail the run if average latency exceeds this value (default 30s)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var queries []evaluation.GoldenQuery
	if question == "" {
		queries, err = evaluation.LoadGoldenQueries(goldenPath)
		if err != nil {
			log.Fatalf("Failed to load golden queries: %v", err)
		}
		if err := evaluation.ValidateGoldenQueries(queries); err != nil {
			log.Fatalf("Invalid golden queries: %v", err)
		}
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Fatalf("Failed to connect to Typesense: %v", err)
	}

	openaiClient, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		log.Fatalf("Failed to initialize OpenAI client: %v", err)
	}

	recordRepo := database.NewRecordAdapter(pgClient)
	searchRepo := search.NewTypesenseAdapter(tsClient)

	pipeline := services.NewQueryPipeline(
		services.NewClassifierService(openaiClient),
		services.NewRetrievalService(searchRepo, recordRepo),
		services.NewContextService(),
		services.NewEvidenceService(),
		services.NewAnswerService(openaiClient),
	)

	if question != "" {
		resp, err := pipeline.Run(context.Background(), entities.QueryRequest{
			Question:  question,
			PatientID: patientID,
		})
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		fmt.Println(resp.Answer)
		fmt.Println()
		fmt.Println(services.FormatCitations(resp.Citations))
		return
	}

	runner := evaluation.NewRunner(pipeline)
	summary, err := runner.Run(context.Background(), queries)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	guardrails := evaluation.NewGuardrails(evaluation.GuardrailConfig{
		MinAvgRecallAt5:     minRecall,
		MinCategoryAccuracy: minCategoryAccuracy,
		MaxAvgLatency:       maxLatency,
	})

	violations := guardrails.Check(summary)
	if len(violations) > 0 {
		for _, violation := range violations {
			fmt.Fprintln(os.Stderr, violation)
		}
		os.Exit(1)
	}
}
