// Package domain models weather-radar volumes and the regular polar grids the
// regridder produces from them.
//
// # Data Source
//
// Volumes arrive as JSON on the Kafka source topic. Each message carries one
// full volume scan: radar site metadata, the range geometry shared by every
// ray, the list of fields, and the sweeps in scan order. Rays are nested under
// their sweep on the wire and flattened by [ParseVolume], which tags each ray
// with its sweep index.
//
// # Radar Conventions
//
// Angles:
//
//	Azimuth is measured clockwise from true north in degrees. Raw rays may
//	carry any real azimuth; the regridder normalizes them.
//	Elevation is degrees above the horizon. Each sweep has a fixed
//	(commanded) angle that becomes the grid elevation for that sweep.
//	The optional "az_for_limits" is the azimuth used for edge-of-data
//	checks when it differs from the measured azimuth (e.g. antenna
//	transitions). It defaults to the measured azimuth.
//
// Range:
//
//	Gate i sits at start_range_km + i * gate_spacing_km. All rays share the
//	volume's range geometry. Rays may carry fewer gates than the longest ray.
//
// Missing data:
//
//	A sample equal to the volume's missing value is not data. When the wire
//	message omits "missing_value" the volume uses [MissingFl32]. Grid cells
//	with no contributing ray hold the same sentinel.
//
// Folded fields:
//
//	Radial velocity and differential phase wrap around a fixed interval
//	[fold_limit_lower, fold_limit_lower + fold_range). The regridder averages
//	these on the circle so values near both ends stay together.
//
// Discrete fields:
//
//	Classification fields (e.g. particle ID) are never averaged. The regridder
//	copies the nearest contributing sample.
//
// # Grid Layout
//
// A [Grid] stores every field as one flat float32 plane indexed by
// (elevation, azimuth, gate) with elevation slowest and gate fastest. See
// [Grid.Index]. Planes are encoded on the wire as base64 little-endian float32
// by [EncodeGrid].
//
// # ID Generation
//
// Volumes without an explicit "id" get a deterministic SHA-256 hash of
// radar|start_time|ray_count so replays produce the same grid key. See
// [generateVolumeID].
package domain
