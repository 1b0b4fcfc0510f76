package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/igorvan/omniscan/pkg/logging"
	"github.com/igorvan/omniscan/pkg/scanning"
)

// EmptyMessage - warning shown when there is nothing to export
const EmptyMessage = "No data to export!"

// ErrEmptyCollection - export was requested with no stored entries
var ErrEmptyCollection = errors.New("no scanned entries to export")

// Source - where the exported entries come from
type Source interface {
	ReadAll(ctx context.Context) ([]scanning.Entry, error)
}

// Downloader - hands a finished file over to the user
type Downloader interface {
	Download(ctx context.Context, name, contentType string, data []byte) error
}

// Alerter - shows a blocking message to the user
type Alerter interface {
	Alert(message string)
}

// Exporter - serializes the stored collection into a CSV download
type Exporter struct {
	source Source
	alert  Alerter
	log    *slog.Logger
	now    func() time.Time
}

// New - Exporter constructor, alerter and logger are optional
func New(source Source, alert Alerter, log *slog.Logger) (*Exporter, error) {
	if source == nil {
		return nil, fmt.Errorf("cannot instantiate an Exporter, no entry source provided")
	}
	return &Exporter{source: source, alert: alert, log: logging.OrDiscard(log), now: time.Now}, nil
}

// Export - writes every stored entry to the downloader,
// an empty collection produces no file and a visible warning
func (e *Exporter) Export(ctx context.Context, dl Downloader) (string, error) {
	all, err := e.source.ReadAll(ctx)
	if err != nil {
		return "", fmt.Errorf("cannot read scanned entries: %w", err)
	}
	if len(all) == 0 {
		if e.alert != nil {
			e.alert.Alert(EmptyMessage)
		}
		return "", ErrEmptyCollection
	}

	name := FileName(e.now())
	if err := dl.Download(ctx, name, ContentType, CSV(all)); err != nil {
		return "", fmt.Errorf("cannot deliver %s: %w", name, err)
	}
	e.log.Info(fmt.Sprintf("Exported %d scanned entries to %s", len(all), name))
	return name, nil
}

// FileName - download name carrying the export time in milliseconds
func FileName(at time.Time) string {
	return fmt.Sprintf("scanned_barcodes_%d.csv", at.UnixMilli())
}
