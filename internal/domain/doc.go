// Package domain models the inputs and outputs of the daily Land Surface
// Temperature (LST) pipeline for Landsat 8/9 Collection 2 Level-2 scenes.
//
// # Data Source
//
// Scenes come from a STAC catalog (collection "landsat-c2-l2" on the
// Planetary Computer, "LANDSAT/LC0x/C02/T1_L2" in other archives). Each scene
// carries surface reflectance bands, one surface temperature band and a
// bit-packed quality band, all as unsigned digital numbers (DN).
//
// # Band Conventions
//
//	SR_B2  blue    SR_B3 green   SR_B4 red   SR_B5 near infrared
//	SR_B6  swir 1  SR_B7 swir 2
//	ST_B10 thermal infrared (surface temperature product)
//	QA_PIXEL quality assessment bits
//
// Optical bands share the "SR_B" prefix and thermal bands the "ST_B" prefix.
// Band names are validated once, when a scene enters the pipeline; see
// [ValidateBands].
//
// # Scaling
//
// The Collection 2 Level-2 products use fixed affine scale factors:
//
//	reflectance = DN * 0.0000275 - 0.2
//	kelvin      = DN * 0.00341802 + 149.0
//
// # QA_PIXEL
//
// Bit 3 flags cloud shadow and bit 5 flags cloud. A pixel is usable only when
// both bits are clear, i.e. qa & 0b101000 == 0. The other bits (fill, dilated
// cloud, cirrus, snow, water) are ignored.
//
// # Emissivity and LST
//
// NDVI is normalized to a fraction of vegetation using the AOI-wide NDVI
// minimum and maximum of the same date:
//
//	fv = ((ndvi - min) / (max - min))^2
//	em = 0.004*fv + 0.986
//
// Surface temperature follows the single-channel inversion of Planck's law
// with an effective wavelength of 11.5 µm (0.00115 cm) and
// rho = h*c/sigma = 1.438 cm K:
//
//	LST = TB / (1 + (0.00115 * TB / 1.438) * ln(em)) - 273.15
//
// # Dates
//
// Scenes are grouped by UTC calendar day. A date's composite is built from
// every scene acquired in [date, date+24h). Outputs are named after the day
// ("LST_2023-07-14") so exports never collide across a multi-year range.
package domain
