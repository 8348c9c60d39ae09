// Package gdal reads Landsat scene assets and writes LST GeoTIFFs through
// GDAL (github.com/airbusgeo/godal).
//
// Every scene is warped to EPSG:4326 over the AOI bounding box at the
// configured scale, so all scenes of a run share one grid and can be
// composited pixel by pixel.
package gdal
