package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"equipment-system/internal/entities"
	"equipment-system/internal/lifecycle"
	"equipment-system/pkg/constants"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/eventbus"
	"equipment-system/pkg/types"
)

// memStore - хранилище в памяти вместо Postgres. Транзакция откатывается восстановлением снимка.
type memStore struct {
	branches      map[uint64]entities.Branch
	groups        map[string]entities.EquipmentGroup
	types         map[string]entities.EquipmentType
	attributes    map[uint64]entities.Attribute
	typeAttrs     map[string]map[uint64]bool
	vendors       map[string]entities.Vendor
	catalog       map[string]entities.CatalogLine
	values        map[string]map[uint64]string
	units         map[uint64]entities.Unit
	events        []entities.UnitEvent
	locks         map[uint64]entities.WorkflowLock
	records       map[uint64]entities.MaintenanceRecord
	plans         map[uint64]entities.MaintenancePlan
	transfers     map[uint64]entities.Transfer
	disposals     map[uint64]entities.Disposal
	invoices      map[uint64]entities.Invoice
	notifications []entities.Notification
	seq           uint64
}

func newMemStore() *memStore {
	return &memStore{
		branches:   map[uint64]entities.Branch{},
		groups:     map[string]entities.EquipmentGroup{},
		types:      map[string]entities.EquipmentType{},
		attributes: map[uint64]entities.Attribute{},
		typeAttrs:  map[string]map[uint64]bool{},
		vendors:    map[string]entities.Vendor{},
		catalog:    map[string]entities.CatalogLine{},
		values:     map[string]map[uint64]string{},
		units:      map[uint64]entities.Unit{},
		locks:      map[uint64]entities.WorkflowLock{},
		records:    map[uint64]entities.MaintenanceRecord{},
		plans:      map[uint64]entities.MaintenancePlan{},
		transfers:  map[uint64]entities.Transfer{},
		disposals:  map[uint64]entities.Disposal{},
		invoices:   map[uint64]entities.Invoice{},
	}
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (s *memStore) clone() *memStore {
	c := &memStore{
		branches:      copyMap(s.branches),
		groups:        copyMap(s.groups),
		types:         copyMap(s.types),
		attributes:    copyMap(s.attributes),
		typeAttrs:     make(map[string]map[uint64]bool, len(s.typeAttrs)),
		vendors:       copyMap(s.vendors),
		catalog:       copyMap(s.catalog),
		values:        make(map[string]map[uint64]string, len(s.values)),
		units:         copyMap(s.units),
		events:        append([]entities.UnitEvent(nil), s.events...),
		locks:         copyMap(s.locks),
		records:       copyMap(s.records),
		plans:         copyMap(s.plans),
		transfers:     copyMap(s.transfers),
		disposals:     copyMap(s.disposals),
		invoices:      copyMap(s.invoices),
		notifications: append([]entities.Notification(nil), s.notifications...),
		seq:           s.seq,
	}
	for k, v := range s.typeAttrs {
		c.typeAttrs[k] = copyMap(v)
	}
	for k, v := range s.values {
		c.values[k] = copyMap(v)
	}
	return c
}

func (s *memStore) nextID() uint64 {
	s.seq++
	return s.seq
}

func stamp() *time.Time {
	t := time.Now()
	return &t
}

// ----- транзакции и события -----

type fakeTxManager struct {
	store *memStore
	mu    sync.Mutex
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.store.clone()
	if err := fn(nil); err != nil {
		*m.store = *snapshot
		return err
	}
	return nil
}

type recordingPublisher struct {
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event eventbus.Event) {
	p.events = append(p.events, event)
}

// ----- филиалы -----

type fakeBranchRepo struct{ *memStore }

func (r fakeBranchRepo) GetBranches(ctx context.Context, filter types.Filter) ([]entities.Branch, uint64, error) {
	out := make([]entities.Branch, 0, len(r.branches))
	for _, b := range r.branches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r fakeBranchRepo) FindBranch(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Branch, error) {
	b, ok := r.branches[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &b, nil
}

func (r fakeBranchRepo) ExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID uint64) (bool, error) {
	for _, b := range r.branches {
		if b.ID != excludeID && strings.EqualFold(b.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeBranchRepo) CreateBranch(ctx context.Context, tx pgx.Tx, branch entities.Branch) (uint64, error) {
	branch.ID = r.nextID()
	branch.CreatedAt, branch.UpdatedAt = stamp(), stamp()
	r.branches[branch.ID] = branch
	return branch.ID, nil
}

// ----- группы и типы -----

type fakeCategoryRepo struct{ *memStore }

func (r fakeCategoryRepo) GetGroups(ctx context.Context, filter types.Filter) ([]entities.EquipmentGroup, uint64, error) {
	out := make([]entities.EquipmentGroup, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r fakeCategoryRepo) FindGroup(ctx context.Context, tx pgx.Tx, id string) (*entities.EquipmentGroup, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &g, nil
}

func (r fakeCategoryRepo) LockGroup(ctx context.Context, tx pgx.Tx, id string) error {
	if _, ok := r.groups[id]; !ok {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r fakeCategoryRepo) GroupExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID string) (bool, error) {
	for _, g := range r.groups {
		if g.ID != excludeID && strings.EqualFold(g.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeCategoryRepo) GroupCodeExists(ctx context.Context, tx pgx.Tx, code string) (bool, error) {
	_, ok := r.groups[code]
	return ok, nil
}

func (r fakeCategoryRepo) CreateGroup(ctx context.Context, tx pgx.Tx, group entities.EquipmentGroup) error {
	group.CreatedAt, group.UpdatedAt = stamp(), stamp()
	r.groups[group.ID] = group
	return nil
}

func (r fakeCategoryRepo) UpdateGroup(ctx context.Context, tx pgx.Tx, group entities.EquipmentGroup) error {
	if _, ok := r.groups[group.ID]; !ok {
		return apperrors.ErrNotFound
	}
	group.UpdatedAt = stamp()
	r.groups[group.ID] = group
	return nil
}

func (r fakeCategoryRepo) hydrate(t entities.EquipmentType) entities.EquipmentType {
	if g, ok := r.groups[t.GroupID]; ok {
		t.Group = &g
	}
	return t
}

func (r fakeCategoryRepo) GetTypes(ctx context.Context, filter types.Filter) ([]entities.EquipmentType, uint64, error) {
	out := make([]entities.EquipmentType, 0, len(r.types))
	for _, t := range r.types {
		if groupID, ok := filter.Filter["group_id"]; ok && t.GroupID != groupID {
			continue
		}
		out = append(out, r.hydrate(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r fakeCategoryRepo) FindType(ctx context.Context, tx pgx.Tx, id string) (*entities.EquipmentType, error) {
	t, ok := r.types[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	t = r.hydrate(t)
	return &t, nil
}

func (r fakeCategoryRepo) TypeExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID string) (bool, error) {
	for _, t := range r.types {
		if t.ID != excludeID && strings.EqualFold(t.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeCategoryRepo) GetTypeIDsByGroup(ctx context.Context, tx pgx.Tx, groupID string) ([]string, error) {
	ids := make([]string, 0)
	for _, t := range r.types {
		if t.GroupID == groupID {
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

func (r fakeCategoryRepo) CreateType(ctx context.Context, tx pgx.Tx, t entities.EquipmentType) error {
	t.CreatedAt, t.UpdatedAt = stamp(), stamp()
	r.types[t.ID] = t
	return nil
}

// ----- характеристики -----

type fakeAttributeRepo struct{ *memStore }

func (r fakeAttributeRepo) GetAttributes(ctx context.Context, filter types.Filter) ([]entities.Attribute, uint64, error) {
	out := make([]entities.Attribute, 0, len(r.attributes))
	for _, a := range r.attributes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r fakeAttributeRepo) FindAttributes(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Attribute, error) {
	out := make([]entities.Attribute, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.attributes[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r fakeAttributeRepo) ExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID uint64) (bool, error) {
	for _, a := range r.attributes {
		if a.ID != excludeID && strings.EqualFold(a.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeAttributeRepo) CreateAttribute(ctx context.Context, tx pgx.Tx, name string) (*entities.Attribute, error) {
	a := entities.Attribute{ID: r.nextID(), Name: name, CreatedAt: time.Now()}
	r.attributes[a.ID] = a
	return &a, nil
}

func (r fakeAttributeRepo) BindToType(ctx context.Context, tx pgx.Tx, typeID string, attributeIDs []uint64) error {
	if r.typeAttrs[typeID] == nil {
		r.typeAttrs[typeID] = map[uint64]bool{}
	}
	for _, id := range attributeIDs {
		r.typeAttrs[typeID][id] = true
	}
	return nil
}

func (r fakeAttributeRepo) UnbindFromType(ctx context.Context, tx pgx.Tx, typeID string, attributeID uint64) error {
	if !r.typeAttrs[typeID][attributeID] {
		return apperrors.ErrNotFound
	}
	delete(r.typeAttrs[typeID], attributeID)
	return nil
}

func (r fakeAttributeRepo) GetTypeAttributes(ctx context.Context, tx pgx.Tx, typeID string) ([]entities.Attribute, error) {
	out := make([]entities.Attribute, 0)
	for id := range r.typeAttrs[typeID] {
		out = append(out, r.attributes[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeAttributeRepo) CountValuesForType(ctx context.Context, tx pgx.Tx, typeID string, attributeID uint64) (int, error) {
	count := 0
	for code, line := range r.catalog {
		if line.TypeID != typeID {
			continue
		}
		if _, ok := r.values[code][attributeID]; ok {
			count++
		}
	}
	return count, nil
}

func (r fakeAttributeRepo) UpsertValue(ctx context.Context, tx pgx.Tx, catalogID string, attributeID uint64, value string) error {
	if r.values[catalogID] == nil {
		r.values[catalogID] = map[uint64]string{}
	}
	r.values[catalogID][attributeID] = value
	return nil
}

func (r fakeAttributeRepo) GetValues(ctx context.Context, tx pgx.Tx, catalogID string) ([]entities.AttributeValue, error) {
	out := make([]entities.AttributeValue, 0)
	for id, v := range r.values[catalogID] {
		out = append(out, entities.AttributeValue{AttributeID: id, Name: r.attributes[id].Name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttributeID < out[j].AttributeID })
	return out, nil
}

// ----- поставщики -----

type fakeVendorRepo struct{ *memStore }

func (r fakeVendorRepo) GetVendors(ctx context.Context, filter types.Filter) ([]entities.Vendor, uint64, error) {
	out := make([]entities.Vendor, 0, len(r.vendors))
	for _, v := range r.vendors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r fakeVendorRepo) FindVendor(ctx context.Context, tx pgx.Tx, id string) (*entities.Vendor, error) {
	v, ok := r.vendors[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &v, nil
}

func (r fakeVendorRepo) ExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID string) (bool, error) {
	for _, v := range r.vendors {
		if v.ID != excludeID && strings.EqualFold(v.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeVendorRepo) CodeExists(ctx context.Context, tx pgx.Tx, code string) (bool, error) {
	_, ok := r.vendors[code]
	return ok, nil
}

func (r fakeVendorRepo) CreateVendor(ctx context.Context, tx pgx.Tx, vendor entities.Vendor) error {
	vendor.CreatedAt, vendor.UpdatedAt = stamp(), stamp()
	r.vendors[vendor.ID] = vendor
	return nil
}

// ----- модели -----

type fakeCatalogRepo struct{ *memStore }

func (r fakeCatalogRepo) hydrate(line entities.CatalogLine) entities.CatalogLine {
	t := r.types[line.TypeID]
	line.TypeName = t.Name
	line.GroupID = t.GroupID
	line.GroupName = r.groups[t.GroupID].Name
	line.VendorName = r.vendors[line.VendorID].Name
	return line
}

func (r fakeCatalogRepo) GetCatalog(ctx context.Context, filter types.Filter) ([]entities.CatalogLine, uint64, error) {
	out := make([]entities.CatalogLine, 0, len(r.catalog))
	for _, line := range r.catalog {
		out = append(out, r.hydrate(line))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r fakeCatalogRepo) FindCatalogLine(ctx context.Context, tx pgx.Tx, id string) (*entities.CatalogLine, error) {
	line, ok := r.catalog[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	line = r.hydrate(line)
	return &line, nil
}

func (r fakeCatalogRepo) CodeExists(ctx context.Context, tx pgx.Tx, code string) (bool, error) {
	_, ok := r.catalog[code]
	return ok, nil
}

func (r fakeCatalogRepo) CreateCatalogLine(ctx context.Context, tx pgx.Tx, line entities.CatalogLine) error {
	if _, ok := r.catalog[line.ID]; ok {
		return apperrors.NewDomainError(apperrors.ErrDuplicateCatalogCode, "Код модели '%s' уже используется", line.ID)
	}
	line.Attributes = nil
	line.CreatedAt, line.UpdatedAt = stamp(), stamp()
	r.catalog[line.ID] = line
	return nil
}

func (r fakeCatalogRepo) UpdateCatalogLine(ctx context.Context, tx pgx.Tx, oldID string, line entities.CatalogLine) error {
	if _, ok := r.catalog[oldID]; !ok {
		return apperrors.ErrNotFound
	}
	line.Attributes = nil
	line.UpdatedAt = stamp()
	delete(r.catalog, oldID)
	r.catalog[line.ID] = line
	if oldID != line.ID {
		r.values[line.ID] = r.values[oldID]
		delete(r.values, oldID)
		for id, u := range r.units {
			if u.CatalogID == oldID {
				u.CatalogID = line.ID
				r.units[id] = u
			}
		}
	}
	return nil
}

// ----- единицы -----

type fakeUnitRepo struct{ *memStore }

func (r fakeUnitRepo) hydrate(u entities.Unit) entities.Unit {
	line := fakeCatalogRepo(r).hydrate(r.catalog[u.CatalogID])
	u.CatalogName = line.Name
	u.TypeID, u.TypeName = line.TypeID, line.TypeName
	u.GroupID, u.GroupName = line.GroupID, line.GroupName
	u.VendorID, u.VendorName = line.VendorID, line.VendorName
	u.BranchName = r.branches[u.BranchID].Name
	return u
}

func (r fakeUnitRepo) GetUnits(ctx context.Context, filter types.Filter) ([]entities.Unit, uint64, error) {
	out := make([]entities.Unit, 0, len(r.units))
	for _, u := range r.units {
		out = append(out, r.hydrate(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r fakeUnitRepo) FindUnit(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Unit, error) {
	u, ok := r.units[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u = r.hydrate(u)
	return &u, nil
}

func (r fakeUnitRepo) LockUnits(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Unit, error) {
	sorted := append([]uint64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := make([]entities.Unit, 0, len(ids))
	for _, id := range sorted {
		if u, ok := r.units[id]; ok {
			out = append(out, r.hydrate(u))
		}
	}
	return out, nil
}

func (r fakeUnitRepo) CreateUnits(ctx context.Context, tx pgx.Tx, units []entities.Unit) ([]uint64, error) {
	ids := make([]uint64, 0, len(units))
	for _, u := range units {
		u.ID = r.nextID()
		u.CreatedAt, u.UpdatedAt = stamp(), stamp()
		r.units[u.ID] = u
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (r fakeUnitRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status lifecycle.Status) error {
	u, ok := r.units[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Status = status
	r.units[id] = u
	return nil
}

func (r fakeUnitRepo) UpdateBranch(ctx context.Context, tx pgx.Tx, id uint64, branchID uint64) error {
	u, ok := r.units[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.BranchID = branchID
	r.units[id] = u
	return nil
}

func (r fakeUnitRepo) AddEvent(ctx context.Context, tx pgx.Tx, e entities.UnitEvent) error {
	e.ID = r.nextID()
	e.CreatedAt = time.Now()
	r.events = append(r.events, e)
	return nil
}

func (r fakeUnitRepo) GetEvents(ctx context.Context, unitID uint64) ([]entities.UnitEvent, error) {
	out := make([]entities.UnitEvent, 0)
	for _, e := range r.events {
		if e.UnitID == unitID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r fakeUnitRepo) AcquireLock(ctx context.Context, tx pgx.Tx, lock entities.WorkflowLock) error {
	if _, ok := r.locks[lock.UnitID]; ok {
		return apperrors.NewDomainError(apperrors.ErrUnitBusy, "Оборудование #%d уже участвует в другом процессе", lock.UnitID)
	}
	lock.CreatedAt = time.Now()
	r.locks[lock.UnitID] = lock
	return nil
}

func (r fakeUnitRepo) ReleaseLock(ctx context.Context, tx pgx.Tx, unitID uint64) error {
	delete(r.locks, unitID)
	return nil
}

func (r fakeUnitRepo) FindLocks(ctx context.Context, tx pgx.Tx, unitIDs []uint64) (map[uint64]entities.WorkflowLock, error) {
	out := make(map[uint64]entities.WorkflowLock)
	for _, id := range unitIDs {
		if l, ok := r.locks[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

// ----- накладные -----

type fakeInvoiceRepo struct{ *memStore }

func (r fakeInvoiceRepo) CreateInvoice(ctx context.Context, tx pgx.Tx, inv entities.Invoice) (uint64, error) {
	inv.ID = r.nextID()
	r.invoices[inv.ID] = inv
	return inv.ID, nil
}

func (r fakeInvoiceRepo) FindInvoice(ctx context.Context, id uint64) (*entities.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &inv, nil
}

func (r fakeInvoiceRepo) GetInvoices(ctx context.Context, filter types.Filter) ([]entities.Invoice, uint64, error) {
	out := make([]entities.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

// ----- ремонты и планы -----

type fakeMaintenanceRepo struct{ *memStore }

func (r fakeMaintenanceRepo) GetRecords(ctx context.Context, filter types.Filter) ([]entities.MaintenanceRecord, uint64, error) {
	out := make([]entities.MaintenanceRecord, 0, len(r.records))
	for _, m := range r.records {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r fakeMaintenanceRepo) FindRecord(ctx context.Context, tx pgx.Tx, id uint64) (*entities.MaintenanceRecord, error) {
	m, ok := r.records[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &m, nil
}

func (r fakeMaintenanceRepo) FindOpenRecordByUnit(ctx context.Context, tx pgx.Tx, unitID uint64) (*entities.MaintenanceRecord, error) {
	for _, m := range r.records {
		if m.UnitID == unitID && constants.IsOpenMaintenance(m.Status) {
			return &m, nil
		}
	}
	return nil, nil
}

func (r fakeMaintenanceRepo) CreateRecord(ctx context.Context, tx pgx.Tx, m entities.MaintenanceRecord) (uint64, error) {
	m.ID = r.nextID()
	m.CreatedAt, m.UpdatedAt = stamp(), stamp()
	r.records[m.ID] = m
	return m.ID, nil
}

func (r fakeMaintenanceRepo) UpdateRecord(ctx context.Context, tx pgx.Tx, m entities.MaintenanceRecord) error {
	if _, ok := r.records[m.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.UpdatedAt = stamp()
	r.records[m.ID] = m
	return nil
}

func (r fakeMaintenanceRepo) GetPlans(ctx context.Context, filter types.Filter) ([]entities.MaintenancePlan, uint64, error) {
	out := make([]entities.MaintenancePlan, 0, len(r.plans))
	for _, p := range r.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r fakeMaintenanceRepo) FindPlan(ctx context.Context, tx pgx.Tx, id uint64) (*entities.MaintenancePlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (r fakeMaintenanceRepo) FindPlanByUnit(ctx context.Context, tx pgx.Tx, unitID uint64) (*entities.MaintenancePlan, error) {
	for _, p := range r.plans {
		if p.UnitID == unitID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r fakeMaintenanceRepo) CreatePlan(ctx context.Context, tx pgx.Tx, p entities.MaintenancePlan) (uint64, error) {
	p.ID = r.nextID()
	r.plans[p.ID] = p
	return p.ID, nil
}

func (r fakeMaintenanceRepo) UpdatePlan(ctx context.Context, tx pgx.Tx, p entities.MaintenancePlan) error {
	if _, ok := r.plans[p.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.plans[p.ID] = p
	return nil
}

func (r fakeMaintenanceRepo) DuePlans(ctx context.Context, until time.Time) ([]entities.MaintenancePlan, error) {
	out := make([]entities.MaintenancePlan, 0)
	for _, p := range r.plans {
		if !p.NextMaintenanceDate.After(until) && r.units[p.UnitID].Status != lifecycle.StatusDisposed {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextMaintenanceDate.Before(out[j].NextMaintenanceDate) })
	return out, nil
}

// ----- перемещения -----

type fakeTransferRepo struct{ *memStore }

func (r fakeTransferRepo) CreateTransfer(ctx context.Context, tx pgx.Tx, t entities.Transfer) (uint64, error) {
	t.ID = r.nextID()
	t.Units = append([]entities.TransferUnit(nil), t.Units...)
	r.transfers[t.ID] = t
	return t.ID, nil
}

func (r fakeTransferRepo) FindTransfer(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Transfer, error) {
	t, ok := r.transfers[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

func (r fakeTransferRepo) CompleteTransfer(ctx context.Context, tx pgx.Tx, t entities.Transfer) error {
	if _, ok := r.transfers[t.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.transfers[t.ID] = t
	return nil
}

func (r fakeTransferRepo) GetTransfers(ctx context.Context, filter types.Filter) ([]entities.Transfer, uint64, error) {
	out := make([]entities.Transfer, 0)
	for _, t := range r.transfers {
		if status, ok := filter.Filter["status"]; ok && t.Status != status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

// ----- списания -----

type fakeDisposalRepo struct{ *memStore }

func (r fakeDisposalRepo) CreateDisposal(ctx context.Context, tx pgx.Tx, d entities.Disposal) (uint64, error) {
	for _, existing := range r.disposals {
		for _, eu := range existing.Units {
			for _, u := range d.Units {
				if eu.UnitID == u.UnitID {
					return 0, apperrors.NewDomainError(apperrors.ErrUnitBusy, "Оборудование #%d уже списано", u.UnitID)
				}
			}
		}
	}
	d.ID = r.nextID()
	d.Units = append([]entities.DisposalUnit(nil), d.Units...)
	r.disposals[d.ID] = d
	return d.ID, nil
}

func (r fakeDisposalRepo) FindDisposal(ctx context.Context, id uint64) (*entities.Disposal, error) {
	d, ok := r.disposals[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &d, nil
}

func (r fakeDisposalRepo) GetDisposals(ctx context.Context, filter types.Filter) ([]entities.Disposal, uint64, error) {
	out := make([]entities.Disposal, 0, len(r.disposals))
	for _, d := range r.disposals {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

// ----- уведомления -----

type fakeNotificationRepo struct{ *memStore }

func (r fakeNotificationRepo) CreateNotification(ctx context.Context, n entities.Notification) (uint64, error) {
	n.ID = r.nextID()
	r.notifications = append(r.notifications, n)
	return n.ID, nil
}

func (r fakeNotificationRepo) GetNotifications(ctx context.Context, since *time.Time, limit uint64) ([]entities.Notification, error) {
	out := make([]entities.Notification, 0)
	for i := len(r.notifications) - 1; i >= 0 && uint64(len(out)) < limit; i-- {
		n := r.notifications[i]
		if since == nil || n.CreatedAt.After(*since) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r fakeNotificationRepo) CountByTypeSince(ctx context.Context, since *time.Time) (map[string]int, error) {
	counts := map[string]int{}
	for _, n := range r.notifications {
		if since == nil || n.CreatedAt.After(*since) {
			counts[n.Type]++
		}
	}
	return counts, nil
}

type fakeCache struct {
	data map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]string{}} }

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	v, ok := c.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}
