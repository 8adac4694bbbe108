// Package payroll computes net pay and assembles settlement batches from
// pending employee records.
package payroll

// Withholding rates applied to gross pay, in basis points.
type Rates struct {
	FederalTaxBps     int64
	StateTaxBps       int64
	SocialSecurityBps int64
	MedicareBps       int64
}

// DefaultRates returns the standard withholding schedule.
func DefaultRates() Rates {
	return Rates{
		FederalTaxBps:     1200,
		StateTaxBps:       500,
		SocialSecurityBps: 620,
		MedicareBps:       145,
	}
}

// Breakdown itemizes one employee's pay computation. All amounts in cents.
type Breakdown struct {
	GrossCents          int64 `json:"gross_cents"`
	FederalTaxCents     int64 `json:"federal_tax_cents"`
	StateTaxCents       int64 `json:"state_tax_cents"`
	SocialSecurityCents int64 `json:"social_security_cents"`
	MedicareCents       int64 `json:"medicare_cents"`
	NetCents            int64 `json:"net_cents"`
}

// Calculator derives net pay from gross pay using fixed withholding rates.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a calculator with the given withholding schedule.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Compute itemizes withholdings for one gross amount.
func (c *Calculator) Compute(grossCents int64) Breakdown {
	b := Breakdown{
		GrossCents:          grossCents,
		FederalTaxCents:     grossCents * c.rates.FederalTaxBps / 10000,
		StateTaxCents:       grossCents * c.rates.StateTaxBps / 10000,
		SocialSecurityCents: grossCents * c.rates.SocialSecurityBps / 10000,
		MedicareCents:       grossCents * c.rates.MedicareBps / 10000,
	}

	b.NetCents = b.GrossCents - b.FederalTaxCents - b.StateTaxCents - b.SocialSecurityCents - b.MedicareCents

	return b
}

// NetPayCents returns the net amount for one gross amount.
func (c *Calculator) NetPayCents(grossCents int64) int64 {
	return c.Compute(grossCents).NetCents
}
