// Package lst turns Landsat Collection 2 Level-2 scenes into daily Land
// Surface Temperature rasters.
//
// The per-date chain is strictly sequential:
//
//	Normalize -> ApplyCloudMask -> BuildComposite -> EstimateEmissivity -> InvertLST
//
// Only the per-scene steps before the median run concurrently.
package lst
