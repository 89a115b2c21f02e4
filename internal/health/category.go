package health

// Category is a clinical blood-pressure classification.
type Category string

const (
	CategoryNormal   Category = "normal"
	CategoryElevated Category = "elevated"
	CategoryStage1   Category = "stage_1_hypertension"
	CategoryStage2   Category = "stage_2_hypertension"
	CategorySevere   Category = "severe_hypertension"
)

// Classify maps a systolic/diastolic pair to its category. Rules are evaluated
// in order and the first match wins:
//
//	normal:   systolic < 120 and diastolic < 80
//	elevated: 120 <= systolic <= 129 and diastolic < 80
//	stage 1:  130 <= systolic <= 139 or 80 <= diastolic <= 89
//	stage 2:  systolic >= 140 or diastolic >= 90
//	severe:   within stage 2, systolic > 180 or diastolic > 120
func Classify(systolic, diastolic int) Category {
	switch {
	case systolic < 120 && diastolic < 80:
		return CategoryNormal
	case systolic >= 120 && systolic <= 129 && diastolic < 80:
		return CategoryElevated
	case (systolic >= 130 && systolic <= 139) || (diastolic >= 80 && diastolic <= 89):
		return CategoryStage1
	case systolic >= 140 || diastolic >= 90:
		if systolic > 180 || diastolic > 120 {
			return CategorySevere
		}
		return CategoryStage2
	default:
		return CategoryNormal
	}
}

var categoryLabels = map[Category]string{
	CategoryNormal:   "Normal",
	CategoryElevated: "Elevated",
	CategoryStage1:   "Stage 1 Hypertension",
	CategoryStage2:   "Stage 2 Hypertension",
	CategorySevere:   "Severe Hypertension",
}

var categoryColors = map[Category]string{
	CategoryNormal:   "#10b981", // emerald-500
	CategoryElevated: "#f59e0b", // amber-500
	CategoryStage1:   "#f97316", // orange-500
	CategoryStage2:   "#ef4444", // red-500
	CategorySevere:   "#dc2626", // red-600
}

// Label returns the display label for the category.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Color returns the display color (hex) for the category.
func (c Category) Color() string {
	return categoryColors[c]
}
