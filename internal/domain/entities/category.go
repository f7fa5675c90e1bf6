package entities

// Category classifies a question into one of the supported query types.
type Category string

const (
	CategoryMedication Category = "MEDICATION"
	CategoryDiagnosis  Category = "DIAGNOSIS"
	CategoryLabResults Category = "LAB_RESULTS"
	CategoryTimeline   Category = "TIMELINE"
	CategoryGeneral    Category = "GENERAL"
)

// CategoriesByPriority returns all categories in classification priority order.
// The classifier scans the model response for each name in this order and the
// first match wins, so the order is part of the classification contract.
func CategoriesByPriority() []Category {
	return []Category{
		CategoryMedication,
		CategoryDiagnosis,
		CategoryLabResults,
		CategoryTimeline,
		CategoryGeneral,
	}
}

// IsValid checks if the category is one of the defined constants.
func (c Category) IsValid() bool {
	switch c {
	case CategoryMedication, CategoryDiagnosis, CategoryLabResults, CategoryTimeline, CategoryGeneral:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
