package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDistanceUnavailable is returned when every distance strategy failed.
var ErrDistanceUnavailable = errors.New("distance unavailable")

// VoyageRequest asks for the distance and ETS cost of one voyage.
type VoyageRequest struct {
	RequestID   string     `json:"request_id,omitempty"`
	IMONumber   string     `json:"imo_number"`
	Origin      Coordinate `json:"origin"`
	Destination Coordinate `json:"destination"`
}

// VoyageEstimate is the full answer to a VoyageRequest.
type VoyageEstimate struct {
	RequestID       string              `json:"request_id"`
	OriginPort      *Port               `json:"origin_port,omitempty"`
	DestinationPort *Port               `json:"destination_port,omitempty"`
	Distance        RouteDistanceResult `json:"distance"`
	Emissions       EmissionCostResult  `json:"emissions"`
	EstimatedAt     time.Time           `json:"estimated_at"`
}

// RawMessage is an unprocessed request read from the source topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseVoyageRequest decodes a JSON voyage request. The message key is used as
// the request id when the body carries none.
func ParseVoyageRequest(raw RawMessage) (VoyageRequest, error) {
	var req VoyageRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return VoyageRequest{}, fmt.Errorf("parse voyage request: %w", err)
	}
	req.IMONumber = strings.TrimSpace(req.IMONumber)
	if req.IMONumber == "" {
		return VoyageRequest{}, errors.New("parse voyage request: missing imo_number")
	}
	if req.RequestID == "" {
		req.RequestID = string(raw.Key)
	}
	return req, nil
}
