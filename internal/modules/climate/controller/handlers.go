package controller

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"surfsup-server/internal/utils"
)

func (c *climateControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := c.service.RenderIndex(&buf); err != nil {
		slog.Error("index template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("index: write response failed", "error", err)
	}
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	entries, err := c.service.GetPrecipitation(r.Context())
	if err != nil {
		slog.Error("precipitation query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load precipitation")
		return
	}
	utils.WriteJSON(w, http.StatusOK, entries)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.GetStations(r.Context())
	if err != nil {
		slog.Error("stations query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load stations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	tobs, err := c.service.GetTemperatureObservations(r.Context())
	if err != nil {
		slog.Error("tobs query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperature observations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, tobs)
}

func (c *climateControllerImpl) handleStatsFrom(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateParam(mux.Vars(r), "start")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := c.service.GetTemperatureStats(r.Context(), start)
	if err != nil {
		slog.Error("temperature stats query failed", "start", start, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperature stats")
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (c *climateControllerImpl) handleStatsRange(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	start, err := parseDateParam(vars, "start")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateParam(vars, "end")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := c.service.GetTemperatureStatsRange(r.Context(), start, end)
	if err != nil {
		slog.Error("temperature stats range query failed", "start", start, "end", end, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperature stats")
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}
