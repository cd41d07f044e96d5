package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"jigtrack/internal/apperr"
	"jigtrack/internal/approval"
	"jigtrack/internal/model"
	"jigtrack/internal/notify"
	"jigtrack/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// --- transaction manager ---

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- user repository ---

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[uuid.UUID]*model.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFoundf("user %s not found", id)
	}
	return u, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperr.NotFoundf("user %q not found", username)
}

func (f *fakeUserRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	var out []model.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

// --- master data repository ---

type fakeMasterRepo struct {
	locations map[uuid.UUID]*model.StorageLocation
	lines     map[uuid.UUID]*model.ProductionLine
	vendors   map[uuid.UUID]*model.Vendor
}

func newFakeMasterRepo() *fakeMasterRepo {
	return &fakeMasterRepo{
		locations: map[uuid.UUID]*model.StorageLocation{},
		lines:     map[uuid.UUID]*model.ProductionLine{},
		vendors:   map[uuid.UUID]*model.Vendor{},
	}
}

func (f *fakeMasterRepo) addLocation() uuid.UUID {
	id := uuid.New()
	f.locations[id] = &model.StorageLocation{ID: id, Code: "LOC-" + id.String()[:8]}
	return id
}

func (f *fakeMasterRepo) addLine() uuid.UUID {
	id := uuid.New()
	f.lines[id] = &model.ProductionLine{ID: id, Code: "LINE-" + id.String()[:8]}
	return id
}

func (f *fakeMasterRepo) addVendor() uuid.UUID {
	id := uuid.New()
	f.vendors[id] = &model.Vendor{ID: id, Code: "VND-" + id.String()[:8]}
	return id
}

func (f *fakeMasterRepo) LocationByID(ctx context.Context, id uuid.UUID) (*model.StorageLocation, error) {
	loc, ok := f.locations[id]
	if !ok {
		return nil, apperr.NotFoundf("storage location %s not found", id)
	}
	return loc, nil
}

func (f *fakeMasterRepo) LineByID(ctx context.Context, id uuid.UUID) (*model.ProductionLine, error) {
	line, ok := f.lines[id]
	if !ok {
		return nil, apperr.NotFoundf("production line %s not found", id)
	}
	return line, nil
}

func (f *fakeMasterRepo) VendorByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	v, ok := f.vendors[id]
	if !ok {
		return nil, apperr.NotFoundf("vendor %s not found", id)
	}
	return v, nil
}

// --- jig repository ---

type fakeJigRepo struct {
	jigs map[uuid.UUID]*model.Jig
}

func newFakeJigRepo() *fakeJigRepo {
	return &fakeJigRepo{jigs: map[uuid.UUID]*model.Jig{}}
}

func (f *fakeJigRepo) Create(ctx context.Context, jig *model.Jig) error {
	if jig.ID == uuid.Nil {
		jig.ID = uuid.New()
	}
	stored := *jig
	f.jigs[jig.ID] = &stored
	return nil
}

func (f *fakeJigRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Jig, error) {
	jig, ok := f.jigs[id]
	if !ok {
		return nil, apperr.NotFoundf("jig %s not found", id)
	}
	copied := *jig
	return &copied, nil
}

func (f *fakeJigRepo) List(ctx context.Context, page, limit int, search string) ([]model.Jig, int64, error) {
	var out []model.Jig
	for _, jig := range f.jigs {
		out = append(out, *jig)
	}
	return out, int64(len(out)), nil
}

func (f *fakeJigRepo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range f.jigs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeJigRepo) UpdateCachedStock(ctx context.Context, id uuid.UUID, available int, at time.Time) error {
	jig, ok := f.jigs[id]
	if !ok {
		return apperr.NotFoundf("jig %s not found", id)
	}
	jig.CachedAvailable = available
	jig.RecomputedAt = &at
	return nil
}

// --- jig detail repository ---

type fakeDetailRepo struct {
	mu      sync.Mutex
	details map[uuid.UUID]*model.JigDetail
	// conflictOnce forces the next versioned write on that detail to fail
	// with a conflict, simulating a concurrent writer winning the race.
	conflictOnce map[uuid.UUID]bool
}

func newFakeDetailRepo() *fakeDetailRepo {
	return &fakeDetailRepo{
		details:      map[uuid.UUID]*model.JigDetail{},
		conflictOnce: map[uuid.UUID]bool{},
	}
}

func (f *fakeDetailRepo) add(jigID uuid.UUID, status string) *model.JigDetail {
	detail := &model.JigDetail{
		ID:      uuid.New(),
		JigID:   jigID,
		Code:    "JD-" + uuid.NewString()[:8],
		Status:  status,
		Version: uuid.NewString(),
	}
	f.details[detail.ID] = detail
	return detail
}

func (f *fakeDetailRepo) Create(ctx context.Context, detail *model.JigDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if detail.ID == uuid.Nil {
		detail.ID = uuid.New()
	}
	detail.Version = uuid.NewString()
	stored := *detail
	f.details[detail.ID] = &stored
	return nil
}

func (f *fakeDetailRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.JigDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	detail, ok := f.details[id]
	if !ok {
		return nil, apperr.NotFoundf("jig detail %s not found", id)
	}
	copied := *detail
	return &copied, nil
}

func (f *fakeDetailRepo) FindByCode(ctx context.Context, code string) (*model.JigDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.details {
		if d.Code == code {
			copied := *d
			return &copied, nil
		}
	}
	return nil, apperr.NotFoundf("jig detail %q not found", code)
}

func (f *fakeDetailRepo) List(ctx context.Context, page, limit int, status string) ([]model.JigDetail, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.JigDetail
	for _, d := range f.details {
		if status == "" || d.Status == status {
			out = append(out, *d)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeDetailRepo) CountByJigAndStatus(ctx context.Context, jigID uuid.UUID, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, d := range f.details {
		if d.JigID == jigID && d.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *fakeDetailRepo) UpdateVersioned(ctx context.Context, detail *model.JigDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.details[detail.ID]
	if !ok {
		return apperr.NotFoundf("jig detail %s not found", detail.ID)
	}
	if f.conflictOnce[detail.ID] {
		delete(f.conflictOnce, detail.ID)
		return apperr.Conflictf("jig detail %s was modified concurrently", detail.ID)
	}
	if stored.Version != detail.Version {
		return apperr.Conflictf("jig detail %s was modified concurrently", detail.ID)
	}
	detail.Version = uuid.NewString()
	updated := *detail
	f.details[detail.ID] = &updated
	return nil
}

// --- order repository ---

type fakeOrderRepo struct {
	orders  map[uuid.UUID]*model.JigOrder
	lines   map[uuid.UUID][]model.JigOrderDetail
	codeSeq map[string]int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:  map[uuid.UUID]*model.JigOrder{},
		lines:   map[uuid.UUID][]model.JigOrderDetail{},
		codeSeq: map[string]int{},
	}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *model.JigOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for _, existing := range f.orders {
		if existing.OrderCode == order.OrderCode {
			return fmt.Errorf("duplicate order code %s", order.OrderCode)
		}
	}
	stored := *order
	stored.Details = nil
	f.orders[order.ID] = &stored
	return nil
}

func (f *fakeOrderRepo) CreateDetail(ctx context.Context, detail *model.JigOrderDetail) error {
	if detail.ID == uuid.Nil {
		detail.ID = uuid.New()
	}
	f.lines[detail.OrderID] = append(f.lines[detail.OrderID], *detail)
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.JigOrder, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, apperr.NotFoundf("order %s not found", id)
	}
	copied := *order
	copied.Details = append([]model.JigOrderDetail(nil), f.lines[id]...)
	return &copied, nil
}

func (f *fakeOrderRepo) FindByCode(ctx context.Context, code string) (*model.JigOrder, error) {
	for id, order := range f.orders {
		if order.OrderCode == code {
			return f.FindByID(ctx, id)
		}
	}
	return nil, apperr.NotFoundf("order %q not found", code)
}

func (f *fakeOrderRepo) Save(ctx context.Context, order *model.JigOrder) error {
	if _, ok := f.orders[order.ID]; !ok {
		return apperr.NotFoundf("order %s not found", order.ID)
	}
	stored := *order
	stored.Details = nil
	f.orders[order.ID] = &stored
	return nil
}

func (f *fakeOrderRepo) SaveDetail(ctx context.Context, detail *model.JigOrderDetail) error {
	lines := f.lines[detail.OrderID]
	for i := range lines {
		if lines[i].ID == detail.ID {
			lines[i] = *detail
			return nil
		}
	}
	return apperr.NotFoundf("order line %s not found", detail.ID)
}

func (f *fakeOrderRepo) ReplaceDetails(ctx context.Context, orderID uuid.UUID, details []model.JigOrderDetail) error {
	replacement := make([]model.JigOrderDetail, len(details))
	for i, d := range details {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		d.OrderID = orderID
		replacement[i] = d
	}
	f.lines[orderID] = replacement
	return nil
}

func (f *fakeOrderRepo) Delete(ctx context.Context, orderID uuid.UUID) error {
	delete(f.orders, orderID)
	delete(f.lines, orderID)
	return nil
}

func (f *fakeOrderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]model.JigOrder, int64, error) {
	var out []model.JigOrder
	for id, order := range f.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.RequestedBy != nil && order.RequestedBy != *filter.RequestedBy {
			continue
		}
		copied := *order
		copied.Details = append([]model.JigOrderDetail(nil), f.lines[id]...)
		out = append(out, copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) NextOrderCode(ctx context.Context, day time.Time) (string, error) {
	prefix := "JO" + day.Format("20060102")
	f.codeSeq[prefix]++
	return fmt.Sprintf("%s%04d", prefix, f.codeSeq[prefix]), nil
}

// --- ledger repository ---

type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries []model.LedgerEntry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{}
}

func (f *fakeLedgerRepo) Append(ctx context.Context, entry *model.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLedgerRepo) ListByDetail(ctx context.Context, detailID uuid.UUID, page, limit int) ([]model.LedgerEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LedgerEntry
	for _, e := range f.entries {
		if e.JigDetailID == detailID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeLedgerRepo) SumByDetail(ctx context.Context, detailID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, e := range f.entries {
		if e.JigDetailID == detailID {
			sum += e.Quantity
		}
	}
	return sum, nil
}

// --- approval gateway ---

type fakeGateway struct {
	opened []approval.OpenCaseInput
	err    error
}

func (f *fakeGateway) OpenCase(ctx context.Context, in approval.OpenCaseInput) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.opened = append(f.opened, in)
	return uuid.New(), nil
}

// --- notifier ---

type recordedNotification struct {
	TargetType string
	Target     string
	Event      notify.Event
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []recordedNotification
}

func (f *fakeNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, event notify.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, recordedNotification{TargetType: "user", Target: userID.String(), Event: event})
}

func (f *fakeNotifier) NotifyGroup(ctx context.Context, permissionKey string, event notify.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, recordedNotification{TargetType: "group", Target: permissionKey, Event: event})
}

func (f *fakeNotifier) eventKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.sent))
	for _, n := range f.sent {
		keys = append(keys, n.Event.EventKey())
	}
	return keys
}
