package scaffold

// Mesh formats accepted by the generate endpoint.
const (
	FormatSTL = "stl"
	FormatOBJ = "obj"
	Format3MF = "3mf"
)

// GenerateRequest selects a scaffold type and its parameters. Params are
// passed to the backend as-is.
type GenerateRequest struct {
	Type   string         `json:"type" validate:"required,scaffold_type"`
	Params map[string]any `json:"params,omitempty"`
	Format string         `json:"format,omitempty" validate:"omitempty,oneof=stl obj 3mf"`
}

// Mesh is a generated mesh file.
type Mesh struct {
	Type        string
	Format      string
	ContentType string
	Data        []byte
}

// Size returns the mesh size in bytes.
func (m *Mesh) Size() int {
	if m == nil {
		return 0
	}
	return len(m.Data)
}

// Preview is the lightweight triangle mesh used for interactive display.
type Preview struct {
	Type     string         `json:"type"`
	Vertices [][3]float64   `json:"vertices"`
	Faces    [][3]int       `json:"faces"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TypeInfo describes a scaffold type offered by the backend.
type TypeInfo struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Defaults    map[string]any `json:"defaults,omitempty"`
}

// Health is the backend health report.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// OK reports whether the backend declared itself healthy.
func (h *Health) OK() bool {
	return h != nil && h.Status == "ok"
}
