// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package api

import (
	"cmp"
	"net/http"
	"slices"
	"time"

	"github.com/tomtom215/taxidash/internal/logging"
	"github.com/tomtom215/taxidash/internal/models"
)

// PredictFare handles POST /predict/fare.
func (h *Handler) PredictFare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body FareRequest
	if apiErr := decodeJSONBody(r, &body); apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}
	req, apiErr := body.ToRequest()
	if apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}

	estimate, err := h.fares.Estimate(r.Context(), req)
	if err != nil {
		respondServiceError(w, "fare estimate", err)
		return
	}
	respondSuccess(w, estimate, start, false)
}

// PredictZones handles GET /predict/zones: selectable zones grouped by
// borough and sorted by name. Centroids come from the reference centroid
// file, or from the model bundle when that file is missing. Zones without a
// centroid and the "Unknown" borough are left out.
func (h *Handler) PredictZones(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	zoneList, err := h.zones.Zones(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "Error loading zones", err)
		return
	}
	if len(zoneList) == 0 {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Zone data not available", nil)
		return
	}

	coords, err := h.zoneCoordinates(r)
	if err != nil {
		respondServiceError(w, "zone centroids", err)
		return
	}

	result := make(map[string][]models.ZoneInfo)
	for _, z := range zoneList {
		if z.Borough == "" || z.Borough == models.UnknownBorough || z.Name == "" {
			continue
		}
		c, ok := coords[z.LocationID]
		if !ok {
			continue
		}
		result[z.Borough] = append(result[z.Borough], models.ZoneInfo{
			ID:        z.LocationID,
			Name:      z.Name,
			Longitude: c[0],
			Latitude:  c[1],
		})
	}
	for _, list := range result {
		slices.SortFunc(list, func(a, b models.ZoneInfo) int {
			return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
		})
	}

	respondSuccess(w, result, start, false)
}

// zoneCoordinates returns [lon, lat] per zone.
func (h *Handler) zoneCoordinates(r *http.Request) (map[int][2]float64, error) {
	centroids, err := h.zones.Centroids(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Zone centroid file unreadable, using model centroids")
	}
	if len(centroids) > 0 {
		out := make(map[int][2]float64, len(centroids))
		for id, c := range centroids {
			out[id] = [2]float64{c.Lon, c.Lat}
		}
		return out, nil
	}

	lookup, err := h.fares.CentroidLookup()
	if err != nil {
		return nil, err
	}
	out := make(map[int][2]float64, len(lookup))
	for id, p := range lookup {
		out[id] = [2]float64{p.Lon, p.Lat}
	}
	return out, nil
}

// ModelInfo handles GET /predict/model-info.
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	info, err := h.fares.ModelInfo()
	if err != nil {
		respondServiceError(w, "model info", err)
		return
	}
	respondSuccess(w, info, start, false)
}
