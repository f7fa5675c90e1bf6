package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/medgraph/medrecords-qa/internal/adapters/database"
	"github.com/medgraph/medrecords-qa/internal/adapters/search"
	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/clients/postgres"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/clients/typesense"
	"github.com/medgraph/medrecords-qa/pkg/config"
)

func main() {
	var reset bool
	var seed bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the existing Typesense collection before reindexing")
	flag.BoolVar(&seed, "seed", false, "insert the sample record corpus when the database is empty")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatalf("Invalid interval %q: %v", intervalValue, err)
		}
		if interval <= 0 {
			log.Fatalf("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset, seed); err != nil {
			log.Printf("Reindex failed: %v", err)
		}

		if interval <= 0 {
			break
		}

		reset = false
		seed = false
		log.Printf("Reindex complete. Next run in %s.", interval)

		select {
		case <-ctx.Done():
			log.Println("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset, seed bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	recordRepo := database.NewRecordAdapter(pgClient)
	analyticsRepo := database.NewQueryAnalyticsAdapter(pgClient)

	if err := recordRepo.InitSchema(ctx); err != nil {
		return err
	}
	if err := analyticsRepo.InitSchema(ctx); err != nil {
		log.Printf("Warning: failed to init analytics schema: %v", err)
	}

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Println("Deleting medical records collection before reindex")
		_, err := tsClient.Client().Collection(typesense.RecordsCollection).Delete(ctx)
		if err != nil {
			log.Printf("Warning: failed to delete collection: %v", err)
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	searchRepo := search.NewTypesenseAdapter(tsClient)

	patients, err := recordRepo.ListPatients(ctx)
	if err != nil {
		return err
	}

	if len(patients) == 0 && seed {
		log.Printf("Database is empty, seeding %d sample records", len(sampleRecords))
		for i := range sampleRecords {
			record := sampleRecords[i]
			if err := recordRepo.Create(ctx, &record); err != nil {
				log.Printf("Failed to seed record for %s on %s: %v", record.PatientID, record.Date, err)
			}
		}

		patients, err = recordRepo.ListPatients(ctx)
		if err != nil {
			return err
		}
	}

	indexed := 0
	for _, patient := range patients {
		records, err := recordRepo.PatientHistory(ctx, patient.PatientID)
		if err != nil {
			log.Printf("Warning: failed to load records for %s: %v", patient.PatientID, err)
			continue
		}

		for i := range records {
			if err := searchRepo.Index(ctx, &records[i]); err != nil {
				log.Printf("Failed to index record %d for %s: %v", records[i].ID, patient.PatientID, err)
				continue
			}
			indexed++
		}

		log.Printf("Indexed %s (%s)", patient.PatientName, patient.PatientID)
	}

	log.Printf("Indexing complete. %d record(s) indexed.", indexed)
	return nil
}

// sampleRecords is a small demo corpus covering medications, diagnoses, lab
// results and visits for three patients. Loaded with -seed on an empty
// database so the service can answer questions out of the box.
var sampleRecords = []entities.MedicalRecord{
	{
		PatientID:   "P001",
		PatientName: "John Doe",
		Date:        "2024-01-15",
		RecordType:  "visit",
		Description: "Routine checkup. Blood pressure elevated at 150/95.",
		Diagnosis:   "Hypertension",
		Medication:  "Lisinopril 10mg daily",
		Doctor:      "Dr. Smith",
	},
	{
		PatientID:   "P001",
		PatientName: "John Doe",
		Date:        "2024-03-10",
		RecordType:  "lab",
		Description: "Comprehensive metabolic panel ordered at followup.",
		LabResult:   "Creatinine 1.0 mg/dL, potassium 4.2 mEq/L, all within normal range",
		Doctor:      "Dr. Smith",
	},
	{
		PatientID:   "P001",
		PatientName: "John Doe",
		Date:        "2024-06-20",
		RecordType:  "visit",
		Description: "Followup for hypertension. Blood pressure improved to 130/85.",
		Diagnosis:   "Hypertension, controlled",
		Medication:  "Lisinopril 10mg daily, continued",
		Doctor:      "Dr. Smith",
	},
	{
		PatientID:   "P002",
		PatientName: "Maria Garcia",
		Date:        "2024-02-05",
		RecordType:  "visit",
		Description: "Patient reports increased thirst and fatigue. Fasting glucose elevated.",
		Diagnosis:   "Type 2 Diabetes",
		Medication:  "Metformin 500mg twice daily",
		Doctor:      "Dr. Patel",
	},
	{
		PatientID:   "P002",
		PatientName: "Maria Garcia",
		Date:        "2024-04-18",
		RecordType:  "lab",
		Description: "HbA1c panel to assess glycemic control.",
		LabResult:   "HbA1c 7.2%, fasting glucose 138 mg/dL",
		Doctor:      "Dr. Patel",
	},
	{
		PatientID:   "P002",
		PatientName: "Maria Garcia",
		Date:        "2024-08-02",
		RecordType:  "visit",
		Description: "Diabetes followup. Reports better energy since starting medication.",
		Diagnosis:   "Type 2 Diabetes",
		Medication:  "Metformin 500mg twice daily, continued",
		Doctor:      "Dr. Patel",
	},
	{
		PatientID:   "P003",
		PatientName: "Robert Wilson",
		Date:        "2024-01-22",
		RecordType:  "lab",
		Description: "Lipid panel ordered after annual physical.",
		LabResult:   "Total cholesterol 245 mg/dL, LDL 160 mg/dL, HDL 42 mg/dL",
		Doctor:      "Dr. Chen",
	},
	{
		PatientID:   "P003",
		PatientName: "Robert Wilson",
		Date:        "2024-02-01",
		RecordType:  "visit",
		Description: "Review of elevated lipid panel. Discussed diet and exercise.",
		Diagnosis:   "Hyperlipidemia",
		Medication:  "Atorvastatin 20mg daily",
		Doctor:      "Dr. Chen",
	},
	{
		PatientID:   "P003",
		PatientName: "Robert Wilson",
		Date:        "2024-05-14",
		RecordType:  "lab",
		Description: "Repeat lipid panel after three months on statin therapy.",
		LabResult:   "Total cholesterol 198 mg/dL, LDL 118 mg/dL, HDL 45 mg/dL",
		Doctor:      "Dr. Chen",
	},
	{
		PatientID:   "P003",
		PatientName: "Robert Wilson",
		Date:        "2024-07-30",
		RecordType:  "visit",
		Description: "Followup visit. Lipids trending down, no medication side effects.",
		Diagnosis:   "Hyperlipidemia, improving",
		Medication:  "Atorvastatin 20mg daily, continued",
		Doctor:      "Dr. Chen",
	},
}
