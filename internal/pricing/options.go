package pricing

// Option is a selectable attribute value with its human-readable label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field identifies one attribute of the estimation form.
type Field string

const (
	FieldCaratWeight Field = "carat_weight"
	FieldCut         Field = "cut"
	FieldColor       Field = "color"
	FieldClarity     Field = "clarity"
	FieldPolish      Field = "polish"
	FieldSymmetry    Field = "symmetry"
	FieldReport      Field = "report"
)

// Fields lists the form attributes in display order.
var Fields = []Field{
	FieldCaratWeight,
	FieldCut,
	FieldColor,
	FieldClarity,
	FieldPolish,
	FieldSymmetry,
	FieldReport,
}

// Carat weight input bounds, matching the range the model was trained on.
const (
	MinCaratWeight  = 0.75
	MaxCaratWeight  = 2.91
	CaratWeightStep = 0.01
)

// FieldSpec describes how a form attribute is presented.
type FieldSpec struct {
	Field       Field    `json:"field"`
	Label       string   `json:"label"`
	Placeholder string   `json:"placeholder,omitempty"`
	Help        string   `json:"help,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// Ordered from most to least desirable.
var (
	CutOptions = []Option{
		{"Signature-Ideal", "Signature-Ideal (highest, most desirable cut)"},
		{"Ideal", "Ideal (high, desirable cut)"},
		{"Very Good", "Very Good"},
		{"Good", "Good"},
		{"Fair", "Fair"},
	}
	ColorOptions = []Option{
		{"D", "D - Exceptionally colorless, extra"},
		{"E", "E - Exceptionally colorless"},
		{"F", "F - Perfectly colorless"},
		{"G", "G - Clearly colorless"},
		{"H", "H - Colorless"},
		{"I", "I - Slightly perceptible color"},
	}
	ClarityOptions = []Option{
		{"F", "F - Flawless inside and out"},
		{"IF", "IF - Internally flawless"},
		{"VVS1", "VVS1 - Very, very slightly included (one inclusion)"},
		{"VVS2", "VVS2 - Very, very slightly included"},
		{"VS1", "VS1 - Very slightly included (one inclusion)"},
		{"VS2", "VS2 - Very slightly included"},
	}
	PolishOptions = []Option{
		{"ID", "Ideal (smoothest, flawless surface)"},
		{"EX", "Excellent (very smooth, high quality surface)"},
		{"VG", "Very Good (quite smooth, microscopic imperfections)"},
		{"G", "Good (smooth, more visible imperfections)"},
	}
	SymmetryOptions = []Option{
		{"ID", "Ideal (all facets perfectly aligned)"},
		{"EX", "Excellent (facets very well aligned, minor imperfections)"},
		{"VG", "Very Good (facets well aligned, more visible imperfections)"},
		{"G", "Good (visible facet imperfections that may affect appearance)"},
	}
	ReportOptions = []Option{
		{"AGSL", "American Gem Society Laboratories"},
		{"GIA", "Gemological Institute of America"},
	}
)

// FieldSpecs describes every form attribute in display order.
var FieldSpecs = []FieldSpec{
	{Field: FieldCaratWeight, Label: "Weight (carats)", Help: "One carat is about 0.2 grams"},
	{Field: FieldCut, Label: "Cut", Options: CutOptions},
	{Field: FieldColor, Label: "Color", Placeholder: "Select the diamond color ...",
		Help: "The less color a diamond shows, the higher its value", Options: ColorOptions},
	{Field: FieldClarity, Label: "Clarity grade", Placeholder: "Select the clarity grade ...",
		Help: "Presence (or absence) of inclusions and blemishes that may lower the value", Options: ClarityOptions},
	{Field: FieldPolish, Label: "Polish",
		Help: "Smoothness and quality of the surface after cutting", Options: PolishOptions},
	{Field: FieldSymmetry, Label: "Symmetry",
		Help: "How the facets align and fit together", Options: SymmetryOptions},
	{Field: FieldReport, Label: "Graded by",
		Help: "Organisation that graded the diamond and issued the report", Options: ReportOptions},
}

// Spec returns the presentation details for a field.
func Spec(f Field) FieldSpec {
	for _, s := range FieldSpecs {
		if s.Field == f {
			return s
		}
	}
	return FieldSpec{Field: f, Label: string(f)}
}

// Label returns the human-readable label for value among opts, or value
// itself if it is not one of them.
func Label(opts []Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

func validOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}
