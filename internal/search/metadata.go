package search

import (
	"fmt"
	"strings"
	"time"
)

// Category is a kind of metadata item.
type Category string

const (
	CategoryApexClass   Category = "ApexClass"
	CategoryApexTrigger Category = "ApexTrigger"
	CategoryFlow        Category = "Flow"
	CategoryLWC         Category = "LightningComponentBundle"
	CategoryAura        Category = "AuraDefinitionBundle"
	CategoryValidation  Category = "ValidationRule"
	CategoryLayout      Category = "Layout"
	CategoryRecordType  Category = "RecordType"
)

// MatchTarget says where a category's searchable text lives.
type MatchTarget int

const (
	// TargetBody scans a source body returned inline by the query.
	TargetBody MatchTarget = iota
	// TargetDocument fetches one XML document per item and scans it.
	TargetDocument
	// TargetFields tests name/label fields of the record.
	TargetFields
)

func (t MatchTarget) String() string {
	switch t {
	case TargetBody:
		return "body"
	case TargetDocument:
		return "document"
	case TargetFields:
		return "fields"
	default:
		return "unknown"
	}
}

// Field is a record field tested for a substring match.
type Field struct {
	Name  string // API field name, dotted for relationships
	Label string // human label used in match context
}

// CategorySpec describes how one category is enumerated and matched.
type CategorySpec struct {
	Category    Category
	DisplayName string
	Alias       string // kebab-case name accepted on the command line

	// FileTemplate builds the synthetic file name; {name} and {object}
	// are substituted.
	FileTemplate string

	Tooling bool   // tooling endpoint rather than the record-data endpoint
	Query   string // SOQL with a %d placeholder for the batch limit

	Target      MatchTarget
	NameField   string
	LabelField  string
	ObjectField string
	BodyField   string  // TargetBody
	Fields      []Field // TargetFields

	// DocumentType and DocumentIDFields locate the XML document for
	// TargetDocument categories; the first non-empty id field wins.
	DocumentType     string
	DocumentIDFields []string

	Timeout time.Duration
}

// Code reports whether the category is a code artifact covered by the
// full-text fallback search.
func (s CategorySpec) Code() bool {
	return s.Category == CategoryApexClass || s.Category == CategoryApexTrigger
}

// SOQL renders the enumeration query for the given batch limit.
func (s CategorySpec) SOQL(limit int) string {
	return fmt.Sprintf(s.Query, limit)
}

// FileName renders the synthetic file name for an item.
func (s CategorySpec) FileName(name, object string) string {
	if object == "" {
		object = "Unknown"
	}
	return strings.NewReplacer("{name}", name, "{object}", object).Replace(s.FileTemplate)
}

var categorySpecs = []CategorySpec{
	{
		Category:     CategoryApexClass,
		DisplayName:  "Apex Class",
		Alias:        "apex-class",
		FileTemplate: "{name}.cls",
		Tooling:      true,
		Query:        "SELECT Id, Name, Body, LastModifiedDate FROM ApexClass ORDER BY LastModifiedDate DESC LIMIT %d",
		Target:       TargetBody,
		NameField:    "Name",
		BodyField:    "Body",
		Timeout:      15 * time.Second,
	},
	{
		Category:     CategoryApexTrigger,
		DisplayName:  "Apex Trigger",
		Alias:        "apex-trigger",
		FileTemplate: "{name}.trigger",
		Tooling:      true,
		Query:        "SELECT Id, Name, Body, TableEnumOrId, LastModifiedDate FROM ApexTrigger ORDER BY LastModifiedDate DESC LIMIT %d",
		Target:       TargetBody,
		NameField:    "Name",
		ObjectField:  "TableEnumOrId",
		BodyField:    "Body",
		Timeout:      15 * time.Second,
	},
	{
		Category:         CategoryFlow,
		DisplayName:      "Flow",
		Alias:            "flow",
		FileTemplate:     "{name}.flow-meta.xml",
		Tooling:          true,
		Query:            "SELECT Id, DeveloperName, MasterLabel, ActiveVersionId, LatestVersionId, LastModifiedDate FROM FlowDefinition ORDER BY LastModifiedDate DESC LIMIT %d",
		Target:           TargetDocument,
		NameField:        "DeveloperName",
		LabelField:       "MasterLabel",
		DocumentType:     "Flow",
		DocumentIDFields: []string{"ActiveVersionId", "LatestVersionId"},
		Timeout:          10 * time.Second,
	},
	{
		Category:     CategoryLWC,
		DisplayName:  "Lightning Web Component",
		Alias:        "lwc",
		FileTemplate: "lwc/{name}",
		Tooling:      true,
		Query:        "SELECT Id, DeveloperName, MasterLabel, Description, LastModifiedDate FROM LightningComponentBundle ORDER BY LastModifiedDate DESC LIMIT %d",
		Target:       TargetFields,
		NameField:    "DeveloperName",
		LabelField:   "MasterLabel",
		Fields: []Field{
			{Name: "DeveloperName", Label: "API Name"},
			{Name: "MasterLabel", Label: "Label"},
			{Name: "Description", Label: "Description"},
		},
		Timeout: 8 * time.Second,
	},
	{
		Category:     CategoryAura,
		DisplayName:  "Aura Component",
		Alias:        "aura",
		FileTemplate: "aura/{name}",
		Tooling:      true,
		Query:        "SELECT Id, DeveloperName, MasterLabel, Description, LastModifiedDate FROM AuraDefinitionBundle ORDER BY LastModifiedDate DESC LIMIT %d",
		Target:       TargetFields,
		NameField:    "DeveloperName",
		LabelField:   "MasterLabel",
		Fields: []Field{
			{Name: "DeveloperName", Label: "API Name"},
			{Name: "MasterLabel", Label: "Label"},
			{Name: "Description", Label: "Description"},
		},
		Timeout: 8 * time.Second,
	},
	{
		Category:     CategoryValidation,
		DisplayName:  "Validation Rule",
		Alias:        "validation-rule",
		FileTemplate: "{object}.{name}.validationRule-meta.xml",
		Tooling:      true,
		Query:        "SELECT Id, ValidationName, Active, Description, ErrorMessage, EntityDefinition.QualifiedApiName, LastModifiedDate FROM ValidationRule ORDER BY LastModifiedDate DESC LIMIT %d",
		Target:       TargetFields,
		NameField:    "ValidationName",
		ObjectField:  "EntityDefinition.QualifiedApiName",
		Fields: []Field{
			{Name: "ValidationName", Label: "Rule Name"},
			{Name: "Description", Label: "Description"},
			{Name: "ErrorMessage", Label: "Error Message"},
		},
		Timeout: 8 * time.Second,
	},
	{
		Category:     CategoryLayout,
		DisplayName:  "Page Layout",
		Alias:        "layout",
		FileTemplate: "{object}-{name}.layout-meta.xml",
		Tooling:      true,
		Query:        "SELECT Id, Name, TableEnumOrId, LastModifiedDate FROM Layout ORDER BY LastModifiedDate DESC LIMIT %d",
		Target:       TargetFields,
		NameField:    "Name",
		ObjectField:  "TableEnumOrId",
		Fields: []Field{
			{Name: "Name", Label: "Layout Name"},
		},
		Timeout: 8 * time.Second,
	},
	{
		Category:     CategoryRecordType,
		DisplayName:  "Record Type",
		Alias:        "record-type",
		FileTemplate: "{object}.{name}.recordType-meta.xml",
		Tooling:      false,
		Query:        "SELECT Id, Name, DeveloperName, SobjectType, Description, LastModifiedDate FROM RecordType ORDER BY LastModifiedDate DESC LIMIT %d",
		Target:       TargetFields,
		NameField:    "DeveloperName",
		LabelField:   "Name",
		ObjectField:  "SobjectType",
		Fields: []Field{
			{Name: "Name", Label: "Label"},
			{Name: "DeveloperName", Label: "API Name"},
			{Name: "Description", Label: "Description"},
		},
		Timeout: 8 * time.Second,
	},
}

// Categories returns every category spec in dispatch order.
func Categories() []CategorySpec {
	out := make([]CategorySpec, len(categorySpecs))
	copy(out, categorySpecs)
	return out
}

// Lookup returns the CategorySpec for a category.
func Lookup(c Category) (CategorySpec, bool) {
	for _, spec := range categorySpecs {
		if spec.Category == c {
			return spec, true
		}
	}
	return CategorySpec{}, false
}

// ParseCategory accepts an API name ("ApexClass"), an alias ("apex-class")
// or a display name ("Apex Class"), case-insensitively.
func ParseCategory(s string) (Category, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, spec := range categorySpecs {
		if needle == strings.ToLower(string(spec.Category)) ||
			needle == spec.Alias ||
			needle == strings.ToLower(spec.DisplayName) {
			return spec.Category, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}
