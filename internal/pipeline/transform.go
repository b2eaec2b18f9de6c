package pipeline

import (
	"context"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

// Estimator prices a parsed voyage request.
type Estimator interface {
	Estimate(ctx context.Context, req domain.VoyageRequest) (domain.VoyageEstimate, error)
}

// VoyageTransformer implements Transformer by parsing the message body and
// handing the request to an Estimator.
type VoyageTransformer struct {
	estimator Estimator
}

// NewTransformer creates a VoyageTransformer.
func NewTransformer(estimator Estimator) *VoyageTransformer {
	return &VoyageTransformer{estimator: estimator}
}

func (t *VoyageTransformer) Transform(ctx context.Context, raw domain.RawMessage) (domain.VoyageEstimate, error) {
	req, err := domain.ParseVoyageRequest(raw)
	if err != nil {
		return domain.VoyageEstimate{}, err
	}
	return t.estimator.Estimate(ctx, req)
}
