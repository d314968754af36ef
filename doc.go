// Package benefits administers employer-sponsored healthcare benefits for Go
// applications.
//
// Benefits is a library, not a service. It enrolls employees and their
// dependents into plans, walks each subscription through onboarding, splits
// every monthly cost between employer and employee, and settles the
// employee's share against a prepaid wallet.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/benefits"
//	    "github.com/xraph/benefits/store/memory"
//	)
//
//	eng := benefits.New(memory.New(), benefits.WithLogger(logger))
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Plans
//
// A plan prices each covered role and the percentage of it the employer
// pays. Percentages are decimals, so 33.33 is exact:
//
//	p := &plan.Plan{
//	    CompanyID: "acme",
//	    Name:      "Family Gold",
//	    Currency:  "usd",
//	    Employee:  plan.Rate{MonthlyCost: benefits.USD(12000), EmployerPercent: decimal.NewFromInt(100)},
//	    Spouse:    plan.Rate{MonthlyCost: benefits.USD(8000), EmployerPercent: decimal.NewFromInt(50)},
//	    Child:     plan.Rate{MonthlyCost: benefits.USD(4000), EmployerPercent: decimal.NewFromInt(50)},
//	}
//	err := eng.CreatePlan(ctx, p)
//
// # Subscriptions
//
// A subscription covers exactly one employee, at most one spouse and any
// number of children. It starts at the first onboarding step it needs:
// demographic verification when it covers an unverified dependent, document
// upload when the plan requires documents, plan activation otherwise.
//
//	sub, err := eng.CreateSubscription(ctx, emp.ID, p.ID, items, benefits.SubscribeOpts{})
//	res, err := eng.CompleteStep(ctx, sub.ID, subscription.StepPlanActivation)
//
// Completing a step twice is not an error: the second call reports
// onboarding.OutcomeAlreadyCompleted. Completing a step out of order returns
// an error matching ErrInvalidTransition.
//
// # Billing
//
// RunBillingCycle debits every active subscription whose billing anchor
// falls on the given day. Debits always apply; a wallet may go negative, in
// which case the debit is reported insufficient and the employee overdue.
//
// All monetary calculations use integer arithmetic on minor units. Employer
// shares are rounded half-up and the employee share is the remainder, so the
// two always add up to the plan cost.
//
// # TypeID
//
// All records use TypeID identifiers:
//
//	plan_01h2xcejqtf2nbrexx3vqjhp41  // Plan ID
//	sub_01h2xcejqtf2nbrexx3vqjhp41   // Subscription ID
//	emp_01h455vb4pex5vsknk084sn02q   // Employee ID
package benefits
