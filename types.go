package dandinotes

// SchemaKey values identifying the two record kinds.
const (
	SchemaKeyContributor = "AnnotationContributor"
	SchemaKeyResource    = "ExternalResource"
)

// Contributor is the person or organization credited for annotating or
// approving a Resource. Immutable once embedded in a Resource.
type Contributor struct {
	Identifier string `yaml:"identifier,omitempty" json:"identifier,omitempty"`
	Name       string `yaml:"name" json:"name"`
	Email      string `yaml:"email" json:"email"`
	URL        string `yaml:"url,omitempty" json:"url,omitempty"`
	SchemaKey  string `yaml:"schemaKey" json:"schemaKey"`
}

// DeletionInfo is stamped onto a record when it is archived.
type DeletionInfo struct {
	DeletedBy        string `yaml:"deleted_by" json:"deleted_by"`
	DeletionReason   string `yaml:"deletion_reason" json:"deletion_reason"`
	ModeratorName    string `yaml:"moderator_name" json:"moderator_name"`
	OriginalFilename string `yaml:"original_filename,omitempty" json:"original_filename,omitempty"`
	OriginalStatus   string `yaml:"original_status,omitempty" json:"original_status,omitempty"`
	DeletionDate     string `yaml:"deletion_date,omitempty" json:"deletion_date,omitempty"`
}

// Resource describes an external artifact (paper, code, dataset) annotated
// against a dandiset. Dates are RFC3339 strings so that a descending string
// sort on AnnotationDate is also a chronological sort.
type Resource struct {
	DandisetID   string       `yaml:"dandiset_id" json:"dandiset_id"`
	Name         string       `yaml:"name" json:"name"`
	URL          string       `yaml:"url" json:"url"`
	Repository   string       `yaml:"repository" json:"repository"`
	Relation     Relation     `yaml:"relation" json:"relation"`
	ResourceType ResourceType `yaml:"resourceType" json:"resourceType"`
	Identifier   string       `yaml:"identifier,omitempty" json:"identifier,omitempty"`
	SchemaKey    string       `yaml:"schemaKey" json:"schemaKey"`

	AnnotationContributor Contributor `yaml:"annotation_contributor" json:"annotation_contributor"`
	AnnotationDate        string      `yaml:"annotation_date" json:"annotation_date"`

	ApprovalContributor *Contributor `yaml:"approval_contributor,omitempty" json:"approval_contributor,omitempty"`
	ApprovalDate        string       `yaml:"approval_date,omitempty" json:"approval_date,omitempty"`

	DeletionInfo *DeletionInfo `yaml:"deletion_info,omitempty" json:"deletion_info,omitempty"`

	// Location metadata stamped by the repository on read; never persisted.
	ID       string `yaml:"-" json:"id,omitempty"`
	Filename string `yaml:"-" json:"filename,omitempty"`
	Status   string `yaml:"-" json:"status,omitempty"`
}

// IsApproved reports whether the approval fields are populated.
func (r *Resource) IsApproved() bool {
	return r.ApprovalContributor != nil && r.ApprovalDate != ""
}
