package domain

import "time"

// Projection records where the grid is anchored.
type Projection struct {
	OriginLatDeg    float64 `json:"origin_lat_deg"`
	OriginLonDeg    float64 `json:"origin_lon_deg"`
	CenteredOnRadar bool    `json:"centered_on_radar"`
}

// GridStats summarizes one regrid pass. CellsWithData counts (elevation,
// azimuth) cells where at least one field has a non-missing gate.
type GridStats struct {
	Cells         int `json:"cells"`
	CellsWithData int `json:"cells_with_data"`
	RaysUsed      int `json:"rays_used"`
	RaysSkipped   int `json:"rays_skipped"`
}

// GridField is one output plane with its source descriptor.
type GridField struct {
	FieldDescriptor
	Data []float32
}

// Grid is a regular elevation × azimuth × range polar grid.
type Grid struct {
	PassID        string
	VolumeID      string
	RadarName     string
	VolumeTime    time.Time
	ProcessedAt   time.Time
	NEl           int
	NAz           int
	NGates        int
	MinAzDeg      float64
	DeltaAzDeg    float64
	StartRangeKm  float64
	GateSpacingKm float64
	ElevationsDeg []float64
	IsSector      bool
	Projection    Projection
	MissingValue  float32
	Fields        []GridField
	Stats         GridStats
}

// GridSummary identifies a grid without its data planes.
type GridSummary struct {
	PassID      string    `json:"pass_id"`
	VolumeID    string    `json:"volume_id"`
	RadarName   string    `json:"radar_name"`
	VolumeTime  time.Time `json:"volume_time"`
	ProcessedAt time.Time `json:"processed_at"`
	IsSector    bool      `json:"is_sector"`
	Stats       GridStats `json:"stats"`
}

// Summary returns the grid's identity and pass statistics.
func (g *Grid) Summary() GridSummary {
	return GridSummary{
		PassID:      g.PassID,
		VolumeID:    g.VolumeID,
		RadarName:   g.RadarName,
		VolumeTime:  g.VolumeTime,
		ProcessedAt: g.ProcessedAt,
		IsSector:    g.IsSector,
		Stats:       g.Stats,
	}
}

// Index returns the flat offset of (iel, iaz, igate) in every field plane.
func (g *Grid) Index(iel, iaz, igate int) int {
	return (iel*g.NAz+iaz)*g.NGates + igate
}

// AzimuthDeg returns the nominal azimuth of column iaz.
func (g *Grid) AzimuthDeg(iaz int) float64 {
	return g.MinAzDeg + float64(iaz)*g.DeltaAzDeg
}

// Field looks up a plane by name. It returns nil when the field is absent.
func (g *Grid) Field(name string) *GridField {
	for i := range g.Fields {
		if g.Fields[i].Name == name {
			return &g.Fields[i]
		}
	}
	return nil
}

// Value returns the sample at (iel, iaz, igate) of field f and whether it holds data.
func (g *Grid) Value(f *GridField, iel, iaz, igate int) (float32, bool) {
	v := f.Data[g.Index(iel, iaz, igate)]
	return v, v != g.MissingValue
}
