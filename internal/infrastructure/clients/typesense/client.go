package typesense

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/medgraph/medrecords-qa/pkg/config"
	"github.com/medgraph/medrecords-qa/pkg/retry"
)

const (
	// RecordsCollection is the Typesense collection holding the record corpus
	RecordsCollection = "medical_records"

	// EmbeddingModel is the built-in model Typesense uses to auto-embed documents
	EmbeddingModel = "ts/all-MiniLM-L12-f32"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	// Test connection with retry
	retryConfig := retry.DefaultConfig()
	err := retry.DoWithLog(
		context.Background(),
		retryConfig,
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).
				Msg("Typesense connection attempt failed, retrying")
		},
	)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Msg("Successfully connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// embeddingFieldJSON declares the auto-embedding field. Building it via JSON
// avoids hand-writing the generated anonymous model_config struct types.
var embeddingFieldJSON = []byte(`{
	"name": "embedding",
	"type": "float[]",
	"embed": {
		"from": ["document"],
		"model_config": {"model_name": "` + EmbeddingModel + `"}
	}
}`)

// InitSchema ensures the medical_records collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == RecordsCollection {
			log.Debug().Msg("Typesense collection 'medical_records' already exists")
			return nil
		}
	}

	var embeddingField api.Field
	if err := json.Unmarshal(embeddingFieldJSON, &embeddingField); err != nil {
		return fmt.Errorf("failed to build embedding field: %w", err)
	}

	schema := &api.CollectionSchema{
		Name: RecordsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "patient_id", Type: "string", Facet: pointer.True()},
			{Name: "patient_name", Type: "string"},
			{Name: "date", Type: "string"},
			{Name: "record_type", Type: "string", Facet: pointer.True()},
			{Name: "description", Type: "string"},
			{Name: "document", Type: "string"},
			{Name: "medication", Type: "string", Optional: pointer.True()},
			{Name: "diagnosis", Type: "string", Optional: pointer.True()},
			{Name: "lab_result", Type: "string", Optional: pointer.True()},
			{Name: "indexed_at", Type: "int64"},
			embeddingField,
		},
		DefaultSortingField: pointer.String("indexed_at"),
	}

	_, err = c.client.Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Msg("Created Typesense collection 'medical_records'")
	return nil
}
