// Package schema describes the known fields of the IMS pharmaceutical
// market data collection. The table is hand-authored documentation for
// callers; it is not derived from, or validated against, the documents
// actually stored in MongoDB.
package schema

// ResourceURI addresses the schema as an MCP resource.
const ResourceURI = "mongodb://pharma_data/ims_may_2025"

// FieldDescriptor documents one field of the collection.
type FieldDescriptor struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Fields returns the descriptor table for the most relevant IMS fields.
// Field names match the stored documents verbatim, including the irregular
// spacing in "NDC -TRIM" and the MAT column headers.
func Fields() map[string]FieldDescriptor {
	return map[string]FieldDescriptor{
		"Dosage Form": {
			Type:        "str",
			Description: "Product form (e.g., 'Capsule', 'Tablet', 'Tablet Extended Release')",
		},
		"NDC -TRIM": {
			Type:        "int",
			Description: "National Drug Code identifiers (numeric)",
		},
		"Corporation": {
			Type:        "str",
			Description: "Manufacturing corporation names",
		},
		"Manufacturer": {
			Type:        "str",
			Description: "Manufacturer names",
		},
		"Brand/Generic": {
			Type:        "str",
			Description: "Classification ('Brand', 'Generic', 'OTHER')",
		},
		"Rx Status": {
			Type:        "str",
			Description: "Prescription status ('Rx', 'OTC')",
		},
		"Strength": {
			Type:        "str",
			Description: "Drug strength/dosage (e.g., '600MG-800U', 'N/A')",
		},
		"Pack Size": {
			Type:        "int",
			Description: "Package size (numeric, typically 1)",
		},
		"Pack Quantity": {
			Type:        "int",
			Description: "Quantity per package (numeric)",
		},
		"Combined Molecule": {
			Type:        "str",
			Description: "Active pharmaceutical ingredients",
		},
		"MAT  Mar 2025_Sales $": {
			Type:        "str",
			Description: "Moving Annual Total sales (March 2025)",
		},
		"MAT  Mar 2025_Units": {
			Type:        "int",
			Description: "Moving Annual Total units (March 2025)",
		},
		"MAT  Mar 2025_Eaches": {
			Type:        "int",
			Description: "Moving Annual Total eaches (March 2025)",
		},
		"MAT  Mar 2025_NSP Ext. Units": {
			Type:        "str",
			Description: "Moving Annual Total NSP Extended Units (March 2025)",
		},
	}
}
