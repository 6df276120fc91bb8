package models

// Maturity is a coarse learning stage derived from an item's interval and review count.
type Maturity string

const (
	MaturityNew      Maturity = "NEW"
	MaturityLearning Maturity = "LEARNING"
	MaturityYoung    Maturity = "YOUNG"
	MaturityMature   Maturity = "MATURE"
)

// Maturities lists every stage from least to most consolidated.
var Maturities = []Maturity{MaturityNew, MaturityLearning, MaturityYoung, MaturityMature}
