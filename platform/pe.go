package platform

// PEType distinguishes the two roles a PE may play in the LRT protocol
// (spec.md §4.6 "one GRT ... and N LRTs, each attached to one or more
// PEs").
type PEType int

const (
	PEVirtual PEType = iota
	PEPhysical
)

// PE is one processing element: a named execution resource inside a
// Cluster, identified by hardware type and id for affinity matching
// against a vertex's RuntimeInfo.MappablePEs (spec.md §6
// "createProcessingElement(hwType, hwId, cluster, name, peType,
// affinity)").
type PE struct {
	ID       string
	Name     string
	HwType   string
	HwID     int
	Cluster  string
	Type     PEType
	Affinity int
}
