// Package nutrition holds the food phrase parsing and nutrition normalization rules
// shared by every nutrition lookup.
package nutrition

// FoodMention is a single (quantity, food name) pair parsed from a free-text query.
type FoodMention struct {
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

// RawRecord is the loosely-typed nutrition payload returned by a text-generation
// provider. Any field may be missing or carry the wrong JSON type; Normalize is the
// only place that turns it into a Record.
type RawRecord struct {
	FoodName     any `json:"food_name"`
	ServingSize  any `json:"serving_size"`
	CaloriesKcal any `json:"calories_kcal"`
	ProteinG     any `json:"protein_g"`
	CarbsG       any `json:"carbs_g"`
	FatG         any `json:"fat_g"`

	// Error is set by the provider when the text it was given is not food.
	Error any `json:"error,omitempty"`
}

// InvalidFoodReason returns the provider's non-food signal, if any.
func (r *RawRecord) InvalidFoodReason() (string, bool) {
	if r == nil {
		return "", false
	}
	msg, ok := r.Error.(string)
	if !ok || msg == "" {
		return "", false
	}
	return msg, true
}

// Record is a fully populated nutrition record for one food item.
type Record struct {
	FoodName     string  `json:"food_name"`
	ServingSize  string  `json:"serving_size"`
	CaloriesKcal float64 `json:"calories_kcal"`
	ProteinG     float64 `json:"protein_g"`
	CarbsG       float64 `json:"carbs_g"`
	FatG         float64 `json:"fat_g"`
}

// Scale multiplies every macro by quantity, re-rounds to one decimal and relabels
// the serving size for that quantity. Rounding happens after multiplication only.
func (r Record) Scale(quantity int) Record {
	if quantity < 1 {
		quantity = 1
	}
	q := float64(quantity)
	return Record{
		FoodName:     r.FoodName,
		ServingSize:  FormatServingSize(quantity, r.ServingSize),
		CaloriesKcal: scaleAmount(r.CaloriesKcal, q),
		ProteinG:     scaleAmount(r.ProteinG, q),
		CarbsG:       scaleAmount(r.CarbsG, q),
		FatG:         scaleAmount(r.FatG, q),
	}
}

func scaleAmount(v, q float64) float64 {
	return clampAmount(RoundTenth(v * q))
}

// Totals is the running sum of macros across one analysis.
type Totals struct {
	CaloriesKcal float64 `json:"calories_kcal"`
	ProteinG     float64 `json:"protein_g"`
	CarbsG       float64 `json:"carbs_g"`
	FatG         float64 `json:"fat_g"`
}

// Add accumulates a record into the totals.
func (t *Totals) Add(r Record) {
	t.CaloriesKcal = clampAmount(t.CaloriesKcal + r.CaloriesKcal)
	t.ProteinG = clampAmount(t.ProteinG + r.ProteinG)
	t.CarbsG = clampAmount(t.CarbsG + r.CarbsG)
	t.FatG = clampAmount(t.FatG + r.FatG)
}

// Rounded returns the totals rounded to one decimal place.
func (t Totals) Rounded() Totals {
	return Totals{
		CaloriesKcal: RoundTenth(t.CaloriesKcal),
		ProteinG:     RoundTenth(t.ProteinG),
		CarbsG:       RoundTenth(t.CarbsG),
		FatG:         RoundTenth(t.FatG),
	}
}

// Whole returns the totals rounded to whole units, as used to seed recommendations.
func (t Totals) Whole() WholeTotals {
	return WholeTotals{
		Calories: RoundWhole(t.CaloriesKcal),
		Protein:  RoundWhole(t.ProteinG),
		Carbs:    RoundWhole(t.CarbsG),
		Fat:      RoundWhole(t.FatG),
	}
}

// WholeTotals are whole-number totals.
type WholeTotals struct {
	Calories int `json:"calories_kcal"`
	Protein  int `json:"protein_g"`
	Carbs    int `json:"carbs_g"`
	Fat      int `json:"fat_g"`
}

// Analysis is the aggregated result of one food query.
type Analysis struct {
	Items             []Record `json:"items"`
	TotalCaloriesKcal int      `json:"total_calories_kcal"`
	Totals            Totals   `json:"totals"`
	Recommendations   []string `json:"recommendations"`
}

// NewAnalysis aggregates scaled records in the order given.
func NewAnalysis(items []Record) *Analysis {
	var totals Totals
	for _, item := range items {
		totals.Add(item)
	}
	if items == nil {
		items = []Record{}
	}
	return &Analysis{
		Items:             items,
		TotalCaloriesKcal: RoundWhole(totals.CaloriesKcal),
		Totals:            totals.Rounded(),
		Recommendations:   []string{},
	}
}
