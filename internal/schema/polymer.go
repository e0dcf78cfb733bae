package schema

const defaultName = "PolymerDataResponse"

// DefaultPrompt asks for the polymer membrane property table.
const DefaultPrompt = `Extract the data from the text in this paper, but extract the fields below as columns and tabulate them.

Structural
  - aromatic_ring_count: count of aromatic rings in the polymer structure
  - fused_ring_presence: presence of fused aromatic rings in the structure
  - linkage_type: type of chemical bonds connecting polymer units
  - steric_bulk: presence of bulky substituents affecting molecular structure
  - degree_of_sulfonation_or_grafting: extent of sulfonation or grafting modifications
  - cation_type: type of cation present in the polymer
  - acidic_proton: presence of acidic protons in the structure
  - acidic_proton_position: location of acidic protons in the structure

Morphological & Environmental
  - water_uptake_percent: percentage of water absorbed by the material
  - koh_uptake_percent: percentage of KOH solution absorbed
  - free_volume_nm3_per_g: free volume per gram in cubic nanometers
  - swelling_degree_alkaline: extent of swelling in alkaline conditions
  - porosity_description: description of material's porous structure

Conductivity
  - conductivity_oh_mS_per_cm: ionic conductivity in millisiemens per centimeter
  - temperature_conductivity_tested: temperature range for conductivity testing
  - koh_concentration_tested_M: KOH concentration used in testing (molarity)
  - aging_time_in_alkaline_conditions: duration of aging in alkaline environment

Return the dataset as a "data" array with one object per row.
Even if it's the same sample, if the values are different, organize them into separate rows.

Example rows:
sample_id,aromatic_ring_count,fused_ring_presence,linkage_type,steric_bulk,degree_of_sulfonation_or_grafting,cation_type,acidic_proton,acidic_proton_position,water_uptake_percent,koh_uptake_percent,free_volume_nm3_per_g,swelling_degree_alkaline,porosity_description,conductivity_oh_mS_per_cm,temperature_conductivity_tested,koh_concentration_tested_M,aging_time_in_alkaline_conditions
TTT-PEMP,3,0,C–S,1,UV-cured,None,0,NA,N/A,N/A,N/A,Low,Gel-like,0.589,30,~1,0
TTT-PEMP-PEGDA,3,0,C–S,0,UV-cured,None,0,NA,N/A,N/A,N/A,Moderate,Gel-like,1.74,90,~1,0
`

type field struct {
	name string
	typ  string
}

// polymerFields lists the columns of one row, in output order.
var polymerFields = []field{
	{"sample_id", "string"},
	{"aromatic_ring_count", "integer"},
	{"fused_ring_presence", "integer"},
	{"linkage_type", "string"},
	{"steric_bulk", "string"},
	{"degree_of_sulfonation_or_grafting", "string"},
	{"cation_type", "string"},
	{"acidic_proton", "integer"},
	{"acidic_proton_position", "string"},
	{"water_uptake_percent", "string"},
	{"koh_uptake_percent", "string"},
	{"free_volume_nm3_per_g", "string"},
	{"swelling_degree_alkaline", "string"},
	{"porosity_description", "string"},
	{"conductivity_oh_mS_per_cm", "number"},
	{"temperature_conductivity_tested", "integer"},
	{"koh_concentration_tested_M", "string"},
	{"aging_time_in_alkaline_conditions", "integer"},
}

// Default returns the polymer property schema with its prompt.
func Default() (*Schema, error) {
	return New(defaultName, defaultDocument(), DefaultPrompt)
}

// ColumnNames returns the default row columns in order.
func ColumnNames() []string {
	names := make([]string, len(polymerFields))
	for i, f := range polymerFields {
		names[i] = f.name
	}
	return names
}

// defaultDocument builds a strict-mode compatible schema: every property is
// required and no additional properties are allowed.
func defaultDocument() map[string]any {
	properties := make(map[string]any, len(polymerFields))
	required := make([]any, 0, len(polymerFields))
	for _, f := range polymerFields {
		properties[f.name] = map[string]any{"type": f.typ}
		required = append(required, f.name)
	}

	return map[string]any{
		"title": defaultName,
		"type":  "object",
		"properties": map[string]any{
			"data": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"properties":           properties,
					"required":             required,
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"data"},
		"additionalProperties": false,
	}
}
