package storage

import "github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"

// Sink receives finished distribution snapshots.
type Sink interface {
	PutSnapshot(snapshot model.DistributionSnapshot) error
}
