package controller

import (
	"context"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"surfsup-server/internal/modules/climate/types"
)

const apiPrefix = "/api/v1.0"

type ClimateService interface {
	RenderIndex(w io.Writer) error
	GetPrecipitation(ctx context.Context) ([]types.PrecipitationEntry, error)
	GetStations(ctx context.Context) ([]string, error)
	GetTemperatureObservations(ctx context.Context) ([]float64, error)
	GetTemperatureStats(ctx context.Context, start string) ([]types.TemperatureStats, error)
	GetTemperatureStatsRange(ctx context.Context, start, end string) ([]types.TemperatureStats, error)
}

type ClimateController interface {
	RegisterRoutes(r *mux.Router)
}

type climateControllerImpl struct {
	service ClimateService
}

func NewClimateController(service ClimateService) ClimateController {
	return &climateControllerImpl{service: service}
}

// RegisterRoutes registers the fixed /api/v1.0 routes ahead of the {start}
// pattern; mux matches in registration order. Routes sit on r itself so a
// method mismatch reaches r's MethodNotAllowedHandler.
func (c *climateControllerImpl) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", c.handleIndex).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/precipitation", c.handlePrecipitation).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/stations", c.handleStations).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/tobs", c.handleTobs).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/{start}", c.handleStatsFrom).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/{start}/{end}", c.handleStatsRange).Methods(http.MethodGet)
}
