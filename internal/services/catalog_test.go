package services

import (
	"context"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-system/internal/dto"
	apperrors "equipment-system/pkg/errors"
)

func TestDeriveCatalogCode(t *testing.T) {
	assert.Equal(t, "CA01TEC", DeriveCatalogCode("CA", "01", "TEC"))
	assert.Equal(t, "ST12LFI", DeriveCatalogCode("st", "12", "l fi"))
	assert.Equal(t, "CA01", DeriveCatalogCode("CA", "01", ""))
}

func TestNextTypeID(t *testing.T) {
	assert.Equal(t, "CA01", nextTypeID("CA", nil))
	assert.Equal(t, "CA03", nextTypeID("CA", []string{"CA01", "CA02"}))
	// номер удалённого типа не переиспользуется
	assert.Equal(t, "CA08", nextTypeID("CA", []string{"CA01", "CA07"}))
	assert.Equal(t, "CA100", nextTypeID("CA", []string{"CA99"}))
	assert.Equal(t, "ST02", nextTypeID("ST", []string{"ST01", "CA05", "STX"}))
}

func TestUniqueCode(t *testing.T) {
	taken := map[string]bool{"TEC": true, "TEC1": true}
	code, err := uniqueCode("TEC", func(c string) (bool, error) { return taken[c], nil })
	require.NoError(t, err)
	assert.Equal(t, "TEC2", code)

	_, err = uniqueCode("X", func(string) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, apperrors.ErrDuplicateName)
}

func TestCatalogHierarchy(t *testing.T) {
	env := newServiceEnv()
	f := seedGym(t, env)
	ctx := context.Background()

	assert.Equal(t, "CA", f.group.ID)
	assert.Equal(t, "CA01", f.treadmill.ID)
	assert.Equal(t, "01", f.treadmill.Code)
	assert.Equal(t, "TEC", f.vendor.ID)

	assert.Equal(t, "CA01TEC", f.line.ID)
	assert.Equal(t, "Cardio", f.line.Group.Name)
	assert.Equal(t, "Treadmill", f.line.Type.Name)
	assert.Equal(t, "Technogym", f.line.Vendor.Name)
	require.Len(t, f.line.Attributes, 1)
	assert.Equal(t, dto.AttributeValueDTO{AttributeID: f.beltWidth.ID, Name: "Belt width", Value: "50cm"}, f.line.Attributes[0])

	bike, err := env.categories.CreateType(ctx, dto.CreateTypeDTO{GroupID: f.group.ID, Name: "Exercise bike"})
	require.NoError(t, err)
	assert.Equal(t, "CA02", bike.ID)

	group, err := env.categories.FindGroup(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Len(t, group.Types, 2)

	treadmill, err := env.categories.FindType(ctx, f.treadmill.ID)
	require.NoError(t, err)
	require.Len(t, treadmill.Attributes, 1)
	assert.Equal(t, "Belt width", treadmill.Attributes[0].Name)

	preview, err := env.catalog.PreviewCatalogCode(ctx, bike.ID, f.vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.CatalogCodeDTO{Code: "CA02TEC", Available: true}, *preview)
}

func TestCatalog_DuplicateNames(t *testing.T) {
	env := newServiceEnv()
	f := seedGym(t, env)
	ctx := context.Background()

	_, err := env.categories.CreateGroup(ctx, dto.CreateGroupDTO{Name: "cardio"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateName)

	_, err = env.categories.CreateType(ctx, dto.CreateTypeDTO{GroupID: f.group.ID, Name: "TREADMILL"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateName)

	_, err = env.attributes.CreateAttribute(ctx, dto.CreateAttributeDTO{Name: " belt width "})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateAttribute)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateName)

	_, err = env.vendors.CreateVendor(ctx, dto.CreateVendorDTO{Name: "technogym"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateName)

	// та же пара тип/поставщик даёт тот же код
	_, err = env.catalog.CreateCatalogLine(ctx, dto.CreateEquipmentDTO{
		TypeID: f.treadmill.ID, VendorID: f.vendor.ID, Name: "Run 700",
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateCatalogCode)
}

func TestCatalog_GroupCodeCollision(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()

	first, err := env.categories.CreateGroup(ctx, dto.CreateGroupDTO{Name: "Strength"})
	require.NoError(t, err)
	second, err := env.categories.CreateGroup(ctx, dto.CreateGroupDTO{Name: "Stretching"})
	require.NoError(t, err)

	assert.Equal(t, "ST", first.ID)
	assert.Equal(t, "ST1", second.ID)
}

func TestCatalog_AttributeNotApplicable(t *testing.T) {
	env := newServiceEnv()
	f := seedGym(t, env)
	ctx := context.Background()

	maxSpeed, err := env.attributes.CreateAttribute(ctx, dto.CreateAttributeDTO{Name: "Max speed"})
	require.NoError(t, err)
	lifeFitness, err := env.vendors.CreateVendor(ctx, dto.CreateVendorDTO{Name: "Life Fitness"})
	require.NoError(t, err)
	assert.Equal(t, "LFI", lifeFitness.ID)

	_, err = env.catalog.CreateCatalogLine(ctx, dto.CreateEquipmentDTO{
		TypeID:          f.treadmill.ID,
		VendorID:        lifeFitness.ID,
		Name:            "Integrity",
		AttributeValues: map[uint64]string{maxSpeed.ID: "20 km/h"},
	})
	assert.ErrorIs(t, err, apperrors.ErrAttributeNotApplicable)
	assert.NotContains(t, env.store.catalog, "CA01LFI", "модель не должна сохраниться")

	_, err = env.attributes.SetAttributeValue(ctx, f.line.ID, maxSpeed.ID, dto.SetAttributeValueDTO{Value: "20 km/h"})
	assert.ErrorIs(t, err, apperrors.ErrAttributeNotApplicable)

	_, err = env.attributes.BindAttributes(ctx, f.treadmill.ID, dto.BindAttributesDTO{AttributeIDs: []uint64{maxSpeed.ID, maxSpeed.ID}})
	require.NoError(t, err)
	values, err := env.attributes.SetAttributeValue(ctx, f.line.ID, maxSpeed.ID, dto.SetAttributeValueDTO{Value: "20 km/h"})
	require.NoError(t, err)
	assert.Len(t, values, 2)
}

func TestCatalog_UnbindAttributeInUse(t *testing.T) {
	env := newServiceEnv()
	f := seedGym(t, env)
	ctx := context.Background()

	err := env.attributes.UnbindAttribute(ctx, f.treadmill.ID, f.beltWidth.ID)
	assert.ErrorIs(t, err, apperrors.ErrAttributeInUse)

	incline, err := env.attributes.CreateAttribute(ctx, dto.CreateAttributeDTO{Name: "Incline"})
	require.NoError(t, err)
	_, err = env.attributes.BindAttributes(ctx, f.treadmill.ID, dto.BindAttributesDTO{AttributeIDs: []uint64{incline.ID}})
	require.NoError(t, err)
	require.NoError(t, env.attributes.UnbindAttribute(ctx, f.treadmill.ID, incline.ID))

	err = env.attributes.UnbindAttribute(ctx, f.treadmill.ID, incline.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = env.attributes.BindAttributes(ctx, f.treadmill.ID, dto.BindAttributesDTO{AttributeIDs: []uint64{999}})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalog_UpdateRederivesCode(t *testing.T) {
	env := newServiceEnv()
	f := seedGym(t, env)
	ctx := context.Background()

	lifeFitness, err := env.vendors.CreateVendor(ctx, dto.CreateVendorDTO{Name: "Life Fitness"})
	require.NoError(t, err)

	updated, err := env.catalog.UpdateCatalogLine(ctx, f.line.ID, dto.UpdateEquipmentDTO{
		VendorID:         null.StringFrom(lifeFitness.ID),
		WarrantyDuration: null.IntFrom(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "CA01LFI", updated.ID)
	assert.Equal(t, 3, updated.WarrantyDuration)
	require.Len(t, updated.Attributes, 1)
	assert.Equal(t, "50cm", updated.Attributes[0].Value)

	_, err = env.catalog.FindCatalogLine(ctx, f.line.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// смена типа: ширина ленты не входит в схему велотренажёра
	bike, err := env.categories.CreateType(ctx, dto.CreateTypeDTO{GroupID: f.group.ID, Name: "Exercise bike"})
	require.NoError(t, err)
	_, err = env.catalog.UpdateCatalogLine(ctx, updated.ID, dto.UpdateEquipmentDTO{TypeID: null.StringFrom(bike.ID)})
	assert.ErrorIs(t, err, apperrors.ErrAttributeNotApplicable)
}

func TestCatalog_UpdateGroup(t *testing.T) {
	env := newServiceEnv()
	f := seedGym(t, env)
	ctx := context.Background()

	_, err := env.categories.CreateGroup(ctx, dto.CreateGroupDTO{Name: "Strength"})
	require.NoError(t, err)

	_, err = env.categories.UpdateGroup(ctx, f.group.ID, dto.UpdateGroupDTO{Name: null.StringFrom("Strength")})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateName)

	group, err := env.categories.UpdateGroup(ctx, f.group.ID, dto.UpdateGroupDTO{Name: null.StringFrom("Cardio zone")})
	require.NoError(t, err)
	assert.Equal(t, "CA", group.ID)
	assert.Equal(t, "Cardio zone", group.Name)
}
