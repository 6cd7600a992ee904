package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/pawn-ledger/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func rate(v int64) domain.InterestSpec {
	return domain.InterestSpec{InterestType: domain.InterestTypeRate, InterestValue: dec(v)}
}

func fixed(v int64) domain.InterestSpec {
	return domain.InterestSpec{InterestType: domain.InterestTypeFixed, InterestValue: dec(v)}
}

func testLoan(name string, due time.Time) *domain.Loan {
	return &domain.Loan{
		ID:       uuid.New(),
		Name:     name,
		Category: "gold",
		Status:   domain.LoanStatusFullyFunded,
		DueDate:  due,
	}
}

func allocation(investor uuid.UUID, principal int64, spec domain.InterestSpec, disbursed time.Time) *domain.InvestorAllocation {
	return &domain.InvestorAllocation{
		ID:           uuid.New(),
		InvestorID:   investor,
		Principal:    dec(principal),
		InterestSpec: spec,
		DisbursedAt:  disbursed,
	}
}

func withPeriods(a *domain.InvestorAllocation, periods ...*domain.InterestPeriod) *domain.InvestorAllocation {
	a.MultiplePeriods = true
	for _, p := range periods {
		p.AllocationID = a.ID
	}
	a.Periods = periods
	return a
}

func period(due time.Time, spec domain.InterestSpec, status domain.PeriodStatus) *domain.InterestPeriod {
	return &domain.InterestPeriod{
		ID:           uuid.New(),
		DueDate:      due,
		InterestSpec: spec,
		Status:       status,
	}
}

// cloneAllocations deep-copies allocations the way a proposed edit would rebuild them.
func cloneAllocations(in []*domain.InvestorAllocation) []*domain.InvestorAllocation {
	out := make([]*domain.InvestorAllocation, 0, len(in))
	for _, a := range in {
		c := *a
		c.ID = uuid.New()
		c.Periods = nil
		for _, p := range a.Periods {
			pc := *p
			pc.ID = uuid.New()
			pc.AllocationID = c.ID
			c.Periods = append(c.Periods, &pc)
		}
		out = append(out, &c)
	}
	return out
}

func jakarta() *time.Location {
	return time.FixedZone("WIB", 7*60*60)
}
