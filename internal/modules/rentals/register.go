package rentals

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/syarafat/Proyek-Analisis-Data/internal/config"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/controller"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/dataset"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/repository"
)

// NewHandle builds the dataset handle for the configured source. conn is only used,
// and then required, when the source is SQL.
func NewHandle(cfg config.Config, conn *sql.DB, logger *slog.Logger) (*dataset.Handle, error) {
	var source dataset.Source
	switch cfg.DatasetSource {
	case config.SourceSQL:
		if conn == nil {
			return nil, errors.New("sql dataset source needs a database connection")
		}
		source = repository.NewRepository(conn, cfg.Driver)
	default:
		source = repository.NewCSVSource(cfg.DatasetPath)
	}
	preparer := dataset.NewPreparer(source,
		dataset.WithStrictCodes(cfg.StrictCodes),
		dataset.WithLogger(logger),
	)
	return dataset.NewHandle(preparer, logger), nil
}

func RegisterFeature(mux *http.ServeMux, handle *dataset.Handle, logger *slog.Logger) {
	rentalsController := controller.NewRentalsController(handle, logger)
	rentalsController.RegisterRoutes(mux)
}
