package services

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-system/internal/dto"
	"equipment-system/internal/events"
	"equipment-system/internal/lifecycle"
	"equipment-system/pkg/constants"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/types"
)

func TestCalculateTax(t *testing.T) {
	cases := []struct {
		subtotal, tax, total string
	}{
		{"1000000", "80000", "1080000"},
		{"0", "0", "0"},
		{"1999.99", "160", "2159.99"},
		{"6", "0", "6"},
		{"7", "1", "8"},
	}
	for _, tc := range cases {
		tax, total := CalculateTax(decimal.RequireFromString(tc.subtotal))
		assert.True(t, decimal.RequireFromString(tc.tax).Equal(tax), "налог для %s: %s", tc.subtotal, tax)
		assert.True(t, decimal.RequireFromString(tc.total).Equal(total), "итог для %s: %s", tc.subtotal, total)
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		clamped bool
		wantErr bool
	}{
		{"3", 3, false, false},
		{" 12 ", 12, false, false},
		{"50", 50, false, false},
		{"75", 50, true, false},
		{"10.0", 10, false, false},
		{"1e2", 50, true, false},
		{"1e50000000", 50, true, false},
		{"1e-50000000", 0, false, true},
		{"0e99", 0, false, true},
		{"1234567890123456789012345678901234567890", 0, false, true},
		{"0", 0, false, true},
		{"-1", 0, false, true},
		{"2.5", 0, false, true},
		{"abc", 0, false, true},
		{"", 0, false, true},
	}
	for _, tc := range cases {
		got, clamped, err := parseQuantity(types.NewNumber(tc.raw))
		if tc.wantErr {
			assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
		assert.Equal(t, tc.clamped, clamped, tc.raw)
	}

	_, _, err := parseQuantity(types.Number{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)
}

func TestParsePrice(t *testing.T) {
	price, err := parsePrice(types.NewNumber("0"))
	require.NoError(t, err)
	assert.True(t, price.IsZero())

	_, err = parsePrice(types.NewNumber("-5"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidPrice)
	_, err = parsePrice(types.NewNumber("дорого"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidPrice)
	_, err = parsePrice(types.Number{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPrice)
}

func TestParsePrice_Bounds(t *testing.T) {
	cases := []struct {
		raw     string
		wantErr bool
	}{
		{"10.50", false},
		{"1.500", false},
		{"9999999999999999.99", false},
		{"10000000000000000", true},
		{"1e20", true},
		{"10.005", true},
		{"1e50000000", true},
		{"1e-50000000", true},
	}
	for _, tc := range cases {
		started := time.Now()
		_, err := parsePrice(types.NewNumber(tc.raw))
		assert.Less(t, time.Since(started), time.Second, tc.raw)
		if tc.wantErr {
			assert.ErrorIs(t, err, apperrors.ErrInvalidPrice, tc.raw)
		} else {
			assert.NoError(t, err, tc.raw)
		}
	}
}

func TestParseQuantity_HugeExponentIsCheap(t *testing.T) {
	started := time.Now()
	got, clamped, err := parseQuantity(types.NewNumber("1e50000000"))
	require.NoError(t, err)
	assert.Equal(t, constants.MaxImportQuantity, got)
	assert.True(t, clamped)
	assert.Less(t, time.Since(started), time.Second)
}

func TestImportUnits(t *testing.T) {
	env := newServiceEnv()
	f := seedGym(t, env)
	ctx := context.Background()

	result, err := env.units.ImportUnits(ctx, f.importPayload("3", "1000000", time.Now()))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Quantity)
	assert.Len(t, result.UnitIDs, 3)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, constants.InvoiceKindImport, result.Invoice.Kind)
	assert.Equal(t, "3000000", result.Invoice.Subtotal.String())
	assert.Equal(t, "240000", result.Invoice.Tax.String())
	assert.Equal(t, "3240000", result.Invoice.Total.String())
	require.Len(t, result.Invoice.Lines, 1)
	assert.Equal(t, f.line.ID, result.Invoice.Lines[0].CatalogID)

	unit, err := env.units.FindUnit(ctx, result.UnitIDs[0])
	require.NoError(t, err)
	assert.Equal(t, string(lifecycle.StatusInStock), unit.Status)
	assert.Equal(t, f.central.ID, unit.Branch.ID)
	assert.Equal(t, 2, unit.WarrantyDuration, "гарантия берётся из модели")
	assert.True(t, unit.InWarranty)
	require.NotNil(t, unit.InvoiceID)
	assert.Equal(t, result.Invoice.ID, *unit.InvoiceID)
	require.Len(t, unit.History, 1)
	assert.Equal(t, string(lifecycle.EventReceived), unit.History[0].Event)
	assert.Nil(t, unit.History[0].FromStatus)

	require.Len(t, env.publisher.events, 1)
	notification, ok := env.publisher.events[0].(events.NotificationEvent)
	require.True(t, ok)
	assert.Equal(t, constants.NotificationInvoice, notification.Type)
	require.NotNil(t, notification.RefID)
	assert.Equal(t, result.Invoice.ID, *notification.RefID)

	invoice, err := env.invoices.FindInvoice(ctx, result.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "3240000", invoice.Total.String())
}

func TestImportUnits_SingleUnitTax(t *testing.T) {
	env := newServiceEnv()
	f := seedGym(t, env)

	result, err := env.units.ImportUnits(context.Background(), f.importPayload("1", "1000000", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "80000", result.Invoice.Tax.String())
	assert.Equal(t, "1080000", result.Invoice.Total.String())
}

func TestImportUnits_ClampsQuantity(t *testing.T) {
	env := newServiceEnv()
	f := seedGym(t, env)

	result, err := env.units.ImportUnits(context.Background(), f.importPayload("75", "100", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, constants.MaxImportQuantity, result.Quantity)
	assert.Len(t, result.UnitIDs, constants.MaxImportQuantity)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "75")
	assert.Len(t, env.store.units, constants.MaxImportQuantity)
}

func TestImportUnits_Rejects(t *testing.T) {
	env := newServiceEnv()
	f := seedGym(t, env)
	ctx := context.Background()

	_, err := env.units.ImportUnits(ctx, f.importPayload("-1", "100", time.Now()))
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)

	_, err = env.units.ImportUnits(ctx, f.importPayload("2", "-100", time.Now()))
	assert.ErrorIs(t, err, apperrors.ErrInvalidPrice)

	_, err = env.units.ImportUnits(ctx, f.importPayload("2", "1e20", time.Now()))
	assert.ErrorIs(t, err, apperrors.ErrInvalidPrice)

	// цена помещается в столбец, итог накладной с налогом - нет
	_, err = env.units.ImportUnits(ctx, f.importPayload("50", "999999999999999", time.Now()))
	assert.ErrorIs(t, err, apperrors.ErrInvalidPrice)

	wrongVendor := f.importPayload("2", "100", time.Now())
	wrongVendor.VendorID = "LFI"
	_, err = env.units.ImportUnits(ctx, wrongVendor)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	missingBranch := f.importPayload("2", "100", time.Now())
	missingBranch.BranchID = 999
	_, err = env.units.ImportUnits(ctx, missingBranch)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Empty(t, env.store.units)
	assert.Empty(t, env.store.invoices, "накладная откатывается вместе с единицами")
	assert.Empty(t, env.publisher.events)
}

func TestImportUnits_ZeroPriceAndWarrantyOverride(t *testing.T) {
	env := newServiceEnv()
	f := seedGym(t, env)
	ctx := context.Background()

	payload := f.importPayload("1", "0", time.Now().AddDate(-3, 0, 0))
	payload.WarrantyDuration = null.IntFrom(5)
	result, err := env.units.ImportUnits(ctx, payload)
	require.NoError(t, err)
	assert.True(t, result.Invoice.Total.IsZero())

	unit, err := env.units.FindUnit(ctx, result.UnitIDs[0])
	require.NoError(t, err)
	assert.Equal(t, 5, unit.WarrantyDuration)
	assert.True(t, unit.InWarranty)
}

func TestActivateUnits(t *testing.T) {
	env := newServiceEnv()
	f := seedGym(t, env)
	ctx := context.Background()

	ids := importActive(t, env, f.importPayload("2", "100", time.Now()))
	for _, id := range ids {
		assert.Equal(t, lifecycle.StatusActive, env.store.units[id].Status)
	}

	// повторная активация - недопустимый переход
	_, err := env.units.ActivateUnits(ctx, dto.ActivateUnitsDTO{UnitIDs: ids})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = env.units.ActivateUnits(ctx, dto.ActivateUnitsDTO{UnitIDs: []uint64{ids[0], ids[0]}})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = env.units.ActivateUnits(ctx, dto.ActivateUnitsDTO{UnitIDs: []uint64{ids[0], 999}})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, []uint64{999}, domainErr.Details["missing_unit_ids"])
}
