package bq

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/pkg/models"
	"google.golang.org/api/option"
)

// Estimator is the cost-estimation provider boundary: it reports how many
// bytes a query would scan without running it.
type Estimator interface {
	DryRun(ctx context.Context, query string) (int64, error)
}

// SchemaFetcher looks up table metadata used to enrich prompts.
type SchemaFetcher interface {
	TableSchema(ctx context.Context, dataset, table string) (*models.TableSchema, error)
}

// BigQueryEstimator implements Estimator and SchemaFetcher with the BigQuery API.
type BigQueryEstimator struct {
	client *bigquery.Client
}

// NewBigQueryEstimator connects to BigQuery for cfg.ProjectID. An empty
// CredentialsFile falls back to application default credentials.
func NewBigQueryEstimator(ctx context.Context, cfg config.GCPConfig) (*BigQueryEstimator, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	return &BigQueryEstimator{client: client}, nil
}

func (e *BigQueryEstimator) DryRun(ctx context.Context, query string) (int64, error) {
	q := e.client.Query(query)
	q.DryRun = true
	q.DisableQueryCache = true

	job, err := q.Run(ctx)
	if err != nil {
		return 0, err
	}

	status := job.LastStatus()
	if status == nil || status.Statistics == nil {
		return 0, fmt.Errorf("dry run returned no statistics")
	}
	if err := status.Err(); err != nil {
		return 0, err
	}
	return status.Statistics.TotalBytesProcessed, nil
}

// TableSchema fetches column, partitioning and clustering metadata.
// dataset may be project-qualified ("bigquery-public-data.samples").
func (e *BigQueryEstimator) TableSchema(ctx context.Context, dataset, table string) (*models.TableSchema, error) {
	project, datasetID := splitDataset(dataset, e.client.Project())

	md, err := e.client.DatasetInProject(project, datasetID).Table(table).Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching table metadata for %s.%s: %w", dataset, table, err)
	}

	schema := &models.TableSchema{ClusteringFields: []string{}}
	for _, f := range md.Schema {
		schema.Columns = append(schema.Columns, models.TableColumn{
			Name: f.Name,
			Type: string(f.Type),
			Mode: fieldMode(f),
		})
	}
	if md.TimePartitioning != nil {
		schema.PartitionField = md.TimePartitioning.Field
	}
	if md.Clustering != nil {
		schema.ClusteringFields = append(schema.ClusteringFields, md.Clustering.Fields...)
	}
	return schema, nil
}

func (e *BigQueryEstimator) Close() error {
	return e.client.Close()
}

func splitDataset(dataset, defaultProject string) (project, id string) {
	if i := strings.LastIndex(dataset, "."); i >= 0 {
		return dataset[:i], dataset[i+1:]
	}
	return defaultProject, dataset
}

func fieldMode(f *bigquery.FieldSchema) string {
	switch {
	case f.Repeated:
		return "REPEATED"
	case f.Required:
		return "REQUIRED"
	default:
		return "NULLABLE"
	}
}

var (
	_ Estimator     = (*BigQueryEstimator)(nil)
	_ SchemaFetcher = (*BigQueryEstimator)(nil)
)
