package model

// FieldType is a closed enumeration of schema field kinds. ATTACHMENT marks
// fields whose cell values are remote file-handle IDs rather than scalars.
type FieldType string

const (
	FieldTypeString     FieldType = "STRING"
	FieldTypeInt        FieldType = "INT"
	FieldTypeFloat      FieldType = "FLOAT"
	FieldTypeBoolean    FieldType = "BOOLEAN"
	FieldTypeDate       FieldType = "DATE"
	FieldTypeAttachment FieldType = "ATTACHMENT"
)

// IsAttachment reports whether this field type holds remote file-handle IDs.
func (t FieldType) IsAttachment() bool { return t == FieldTypeAttachment }

// FieldDefinition is one column of an UploadSchema.
type FieldDefinition struct {
	Name string
	Type FieldType
}

// SchemaKey identifies an UploadSchema revision.
type SchemaKey struct {
	StudyID  string
	SchemaID string
	Revision int
}

// UploadSchema is the ordered field list for one schema revision.
type UploadSchema struct {
	Key    SchemaKey
	Fields []FieldDefinition
}

// HasAttachments reports whether any field is ATTACHMENT-kind.
func (s UploadSchema) HasAttachments() bool {
	for _, f := range s.Fields {
		if f.Type.IsAttachment() {
			return true
		}
	}
	return false
}

// AttachmentColumnIndexes returns the 0-based column indexes, in schema
// field order, whose type is ATTACHMENT-kind. Used by the CSV rewrite to
// know which columns hold remote file-handle IDs rather than scalars.
func (s UploadSchema) AttachmentColumnIndexes() []int {
	var idx []int
	for i, f := range s.Fields {
		if f.Type.IsAttachment() {
			idx = append(idx, i)
		}
	}
	return idx
}

// TableMapping maps a remote table ID to the schema it represents. The
// same remote table ID may back multiple schemas; LatestOf picks the
// winner: highest revision wins, ties broken in favor of the first seen.
type TableMapping struct {
	TableID string
	Schema  UploadSchema
}

// LatestOf resolves the schema for a table out of a set of candidate
// schemas: the highest revision number wins.
func LatestOf(schemas []UploadSchema) UploadSchema {
	var best UploadSchema
	set := false
	for _, s := range schemas {
		if !set || s.Key.Revision > best.Key.Revision {
			best = s
			set = true
		}
	}
	return best
}

// SurveyTableSet is the set of remote table IDs carrying survey metadata
// for a study.
type SurveyTableSet []string
