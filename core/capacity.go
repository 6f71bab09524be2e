package core

import "github.com/huangsam/capguard/schema"

// EstimateCapacity sets estimated_capacity = active_resources * rate on a copy of the dataset.
func EstimateCapacity(ds schema.Dataset, rate float64) schema.Dataset {
	out := ds.Clone()
	for i := range out {
		out[i].EstimatedCapacity = schema.Float(float64(out[i].ActiveResources) * rate)
	}
	return out
}
