package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

const maxBodyBytes = 1 << 16

// handlePorts serves GET /api/ports?q=&limit= or ?country=.
func (s *Server) handlePorts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		ports []domain.Port
		err   error
	)
	if country := q.Get("country"); country != "" {
		ports, err = s.api.PortsByCountry(country)
	} else {
		limit := 0
		if v := q.Get("limit"); v != "" {
			limit, err = strconv.Atoi(v)
			if err != nil || limit < 0 {
				s.writeError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", errInvalidInput))
				return
			}
		}
		ports, err = s.api.SearchPorts(q.Get("q"), limit)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"ports": ports, "count": len(ports)})
}

// handleDistance serves GET /api/distance. A failed resolution is reported
// in the body with success=false.
func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request) {
	origin, dest, err := parseRoute(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.api.Distance(r.Context(), origin, dest)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}

// handleEstimateQuery serves GET /api/estimate?imo=&origin_lon=....
func (s *Server) handleEstimateQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin, dest, err := parseRoute(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.estimate(w, r, domain.VoyageRequest{
		RequestID:   q.Get("request_id"),
		IMONumber:   strings.TrimSpace(q.Get("imo")),
		Origin:      origin,
		Destination: dest,
	})
}

// handleEstimateBody serves POST /api/estimate with a JSON VoyageRequest.
func (s *Server) handleEstimateBody(w http.ResponseWriter, r *http.Request) {
	var req domain.VoyageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errInvalidInput, err))
		return
	}
	req.IMONumber = strings.TrimSpace(req.IMONumber)
	s.estimate(w, r, req)
}

func (s *Server) estimate(w http.ResponseWriter, r *http.Request, req domain.VoyageRequest) {
	if req.IMONumber == "" {
		s.writeError(w, r, fmt.Errorf("%w: imo is required", errInvalidInput))
		return
	}
	est, err := s.api.Estimate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, est)
}

func parseRoute(q url.Values) (origin, dest domain.Coordinate, err error) {
	if origin, err = parseCoordinate(q, "origin"); err != nil {
		return origin, dest, err
	}
	dest, err = parseCoordinate(q, "dest")
	return origin, dest, err
}

func parseCoordinate(q url.Values, prefix string) (domain.Coordinate, error) {
	lon, err := parseFloat(q, prefix+"_lon")
	if err != nil {
		return domain.Coordinate{}, err
	}
	lat, err := parseFloat(q, prefix+"_lat")
	if err != nil {
		return domain.Coordinate{}, err
	}
	return domain.Coordinate{Lon: lon, Lat: lat}, nil
}

func parseFloat(q url.Values, key string) (float64, error) {
	v := q.Get(key)
	if v == "" {
		return 0, fmt.Errorf("%w: %s is required", errInvalidInput, key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errInvalidInput, key)
	}
	return f, nil
}
