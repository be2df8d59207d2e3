package climate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gorilla/mux"

	"surfsup-server/internal/modules/climate/controller"
	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/service"
)

// RegisterFeature wires the climate routes onto router. It fails if the
// database does not carry the measurement and station tables.
func RegisterFeature(ctx context.Context, router *mux.Router, db *sql.DB, driverName string) error {
	climateRepository := repository.NewRepository(db, driverName)
	climateService := service.NewService(climateRepository)
	if err := climateService.CheckSchema(ctx); err != nil {
		return fmt.Errorf("climate feature: %w", err)
	}
	climateController := controller.NewClimateController(climateService)
	climateController.RegisterRoutes(router)
	return nil
}
