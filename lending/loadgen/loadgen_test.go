package loadgen_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/loadgen"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper/enginewrapper"
)

func Test_Generator_Keeps_Inventory_Consistent_Under_Load(t *testing.T) {
	// setup
	engine := enginewrapper.CreateWrapperWithTestConfig(t).Engine()

	config := loadgen.Config{
		Rate:           200,
		Items:          3,
		CopiesPerItem:  2,
		Borrowers:      4,
		IssueWeight:    60,
		ReportInterval: time.Second,
	}

	generator, err := loadgen.New(engine, config, nil)
	require.NoError(t, err)
	require.NoError(t, generator.Seed(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	// act
	stats := generator.Run(ctx)

	// assert
	assert.Positive(t, stats.Requests)
	assert.Positive(t, stats.Succeeded)
	assert.Equal(t, stats.Requests, stats.Succeeded+stats.Rejected+stats.Canceled+stats.Failed)
	assert.NoError(t, generator.Verify(context.Background()))

	summary, err := engine.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, summary.TotalCopies)
}

func Test_Generator_Seed_Is_Repeatable(t *testing.T) {
	// setup
	engine := enginewrapper.CreateWrapperWithTestConfig(t).Engine()
	config := loadgen.DefaultConfig()
	config.Items = 2

	generator, err := loadgen.New(engine, config, nil)
	require.NoError(t, err)

	// act
	firstErr := generator.Seed(context.Background())
	secondErr := generator.Seed(context.Background())

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)

	items, err := engine.ListItems(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

type brokenInventory struct {
	loadgen.Lender
}

func (brokenInventory) Summary(context.Context) (lending.Summary, error) {
	return lending.Summary{TotalCopies: 4, AvailableCopies: 3, OnLoan: 2}, nil
}

func Test_Generator_Verify_Detects_Inconsistent_Inventory(t *testing.T) {
	// setup
	generator, err := loadgen.New(brokenInventory{}, loadgen.DefaultConfig(), nil)
	require.NoError(t, err)

	// act
	verifyErr := generator.Verify(context.Background())

	// assert
	assert.ErrorIs(t, verifyErr, lending.ErrConsistencyViolated)
}

func Test_New_Rejects_Invalid_Config(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*loadgen.Config)
	}{
		{name: "zero rate", modify: func(c *loadgen.Config) { c.Rate = 0 }},
		{name: "rate too high for the ticker", modify: func(c *loadgen.Config) { c.Rate = 2_000_000_000 }},
		{name: "no items", modify: func(c *loadgen.Config) { c.Items = 0 }},
		{name: "no copies", modify: func(c *loadgen.Config) { c.CopiesPerItem = 0 }},
		{name: "no borrowers", modify: func(c *loadgen.Config) { c.Borrowers = 0 }},
		{name: "issue weight above 100", modify: func(c *loadgen.Config) { c.IssueWeight = 101 }},
		{name: "zero report interval", modify: func(c *loadgen.Config) { c.ReportInterval = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			config := loadgen.DefaultConfig()
			tc.modify(&config)

			// act
			_, err := loadgen.New(brokenInventory{}, config, nil)

			// assert
			assert.ErrorIs(t, err, loadgen.ErrInvalidConfig)
		})
	}
}
