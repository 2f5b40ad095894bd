// Package bigquery exports categorized transactions to a BigQuery table.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/logger"
)

const (
	DefaultDataset = "finance"
	DefaultTable   = "categorized_transactions"

	insertBatchSize = 500
)

// RowInserter is the part of *bigquery.Inserter the exporter needs.
type RowInserter interface {
	Put(ctx context.Context, src interface{}) error
}

// Exporter streams categorized transactions into one table.
type Exporter struct {
	client   *bigquery.Client
	inserter RowInserter
	now      func() time.Time
}

// NewExporter connects to project and targets dataset.table.
func NewExporter(ctx context.Context, project, dataset, table string) (*Exporter, error) {
	if project == "" {
		return nil, fmt.Errorf("NewExporter: project is required")
	}
	if dataset == "" {
		dataset = DefaultDataset
	}
	if table == "" {
		table = DefaultTable
	}

	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewExporter: creating client: %w", err)
	}

	e := NewExporterWithInserter(client.DatasetInProject(project, dataset).Table(table).Inserter())
	e.client = client
	return e, nil
}

// NewExporterWithInserter builds an exporter around an existing inserter.
func NewExporterWithInserter(ins RowInserter) *Exporter {
	return &Exporter{inserter: ins, now: time.Now}
}

// Close closes the BigQuery client connection, if the exporter owns one.
func (e *Exporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Export inserts every categorized transaction and returns how many rows were
// sent. Rows carry the transaction id as insert id so a repeated export is
// deduplicated on a best-effort basis.
func (e *Exporter) Export(ctx context.Context, txs []*domain.Transaction) (int, error) {
	log := logger.FromContext(ctx)
	exportedAt := e.now().UTC()

	var batch []*bigquery.StructSaver
	sent := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := e.inserter.Put(ctx, batch); err != nil {
			return fmt.Errorf("Export: inserting rows: %w", err)
		}
		sent += len(batch)
		log.Debug().Int("rows", len(batch)).Msg("Inserted batch")
		batch = nil
		return nil
	}

	for _, tx := range txs {
		if !tx.IsCategorized() {
			continue
		}
		batch = append(batch, &bigquery.StructSaver{
			Struct:   NewTransactionRow(tx, exportedAt),
			InsertID: tx.ID,
		})
		if len(batch) == insertBatchSize {
			if err := flush(); err != nil {
				return sent, err
			}
		}
	}
	if err := flush(); err != nil {
		return sent, err
	}

	log.Info().Int("rows", sent).Msg("Exported transactions to BigQuery")
	return sent, nil
}
