package artifact

// Artifact names.
const (
	ItemVectorsName = "item_vecs.npy"
	TagVectorsName  = "tag_vecs.npy"
	AlignmentName   = "align.npy"
	WeightsName     = "item_weight.npy"
	IncidenceName   = "item_tag.npz"
	IndexMapsName   = "index_maps.json"
	ItemsName       = "items.json"
)
