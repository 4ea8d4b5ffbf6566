package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unilife/backend/internal/dto"
	"unilife/backend/internal/model"
	"unilife/backend/internal/repository"
	pkgerrors "unilife/backend/pkg/errors"
)

// ── 内存版数据存储 ──
// 各 mock repository 共享同一个 mockStore，以便模拟预加载关联。
// 读取返回副本，写入按 version 校验，行为与真实仓储的乐观锁一致。

type mockStore struct {
	seq int

	users         map[string]*model.User
	universities  map[string]*model.University
	invites       map[string]*model.InviteCode
	venues        map[string]*model.Venue
	courses       map[string]*model.Course
	enrollments   map[string]*model.Enrollment
	timetables    map[string]*model.TimetableEntry
	vendors       map[string]*model.Vendor
	foodItems     map[string]*model.FoodItem
	foodOrders    map[string]*model.FoodOrder
	shops         map[string]*model.Shop
	shopItems     map[string]*model.ShopItem
	shopOrders    map[string]*model.ShopOrder
	laundrySvcs   map[string]*model.LaundryService
	laundryOrders map[string]*model.LaundryOrder
	agents        map[string]*model.DeliveryAgent
	deliveries    map[string]*model.Delivery
	trips         map[string]*model.Trip
	notifications map[string]*model.Notification
	settings      *model.PlatformSettings
	snapshots     []model.PlatformStats
}

func newMockStore() *mockStore {
	return &mockStore{
		users:         make(map[string]*model.User),
		universities:  make(map[string]*model.University),
		invites:       make(map[string]*model.InviteCode),
		venues:        make(map[string]*model.Venue),
		courses:       make(map[string]*model.Course),
		enrollments:   make(map[string]*model.Enrollment),
		timetables:    make(map[string]*model.TimetableEntry),
		vendors:       make(map[string]*model.Vendor),
		foodItems:     make(map[string]*model.FoodItem),
		foodOrders:    make(map[string]*model.FoodOrder),
		shops:         make(map[string]*model.Shop),
		shopItems:     make(map[string]*model.ShopItem),
		shopOrders:    make(map[string]*model.ShopOrder),
		laundrySvcs:   make(map[string]*model.LaundryService),
		laundryOrders: make(map[string]*model.LaundryOrder),
		agents:        make(map[string]*model.DeliveryAgent),
		deliveries:    make(map[string]*model.Delivery),
		trips:         make(map[string]*model.Trip),
		notifications: make(map[string]*model.Notification),
		settings: &model.PlatformSettings{
			Singleton:               true,
			ServiceFeeBps:           250,
			MaxActiveDeliveries:     3,
			DefaultDeliveryFeeMinor: 50000,
			LaundryMinWeightKg:      0.5,
		},
	}
}

func (s *mockStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%04d", prefix, s.seq)
}

// newMockRepository 构建未注入数据库的 Repository 聚合，Transaction 直接执行回调
func newMockRepository() (*repository.Repository, *mockStore) {
	st := newMockStore()
	return &repository.Repository{
		User:           &mockUserRepo{st},
		University:     &mockUniversityRepo{st},
		InviteCode:     &mockInviteCodeRepo{st},
		Venue:          &mockVenueRepo{st},
		Course:         &mockCourseRepo{st},
		Enrollment:     &mockEnrollmentRepo{st},
		Timetable:      &mockTimetableRepo{st},
		Vendor:         &mockVendorRepo{st},
		FoodItem:       &mockFoodItemRepo{st},
		FoodOrder:      &mockFoodOrderRepo{st},
		Shop:           &mockShopRepo{st},
		ShopItem:       &mockShopItemRepo{st},
		ShopOrder:      &mockShopOrderRepo{st},
		LaundryService: &mockLaundryServiceRepo{st},
		LaundryOrder:   &mockLaundryOrderRepo{st},
		DeliveryAgent:  &mockDeliveryAgentRepo{st},
		Delivery:       &mockDeliveryRepo{st},
		Trip:           &mockTripRepo{st},
		Notification:   &mockNotificationRepo{st},
		Platform:       &mockPlatformRepo{st},
	}, st
}

// checkVersion 模拟 updateVersioned：版本不一致返回乐观锁错误
func checkVersion(stored, incoming int) error {
	if stored != incoming {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func inPage[T any](list []T, offset, limit int) []T {
	if offset >= len(list) {
		return nil
	}
	end := offset + limit
	if end > len(list) || limit <= 0 {
		end = len(list)
	}
	return list[offset:end]
}

func matchOrderFilter(f repository.OrderFilter, owner map[string]string, status string, createdAt time.Time) bool {
	if f.OwnerColumn != "" && f.OwnerID != "" && owner[f.OwnerColumn] != f.OwnerID {
		return false
	}
	if f.Status != "" && status != f.Status {
		return false
	}
	if f.From != nil && createdAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !createdAt.Before(*f.To) {
		return false
	}
	return true
}

func gross(status string, total int64) int64 {
	if status == model.OrderDelivered || status == model.OrderCompleted {
		return total
	}
	return 0
}

// ── Mock UserRepository ──

type mockUserRepo struct{ st *mockStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = m.st.nextID("user")
	}
	if user.Version == 0 {
		user.Version = 1
	}
	user.CreatedAt = time.Now()
	cp := *user
	m.st.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.st.users[id]; ok {
		cp := *u
		if cp.UniversityID != nil {
			cp.University = m.st.universities[*cp.UniversityID]
		}
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for id, u := range m.st.users {
		if strings.EqualFold(u.Email, email) {
			return m.GetByID(ctx, id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := m.st.users[user.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, user.Version); err != nil {
		return err
	}
	user.Version++
	cp := *user
	cp.University = nil
	m.st.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	if u, ok := m.st.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *mockUserRepo) List(_ context.Context, f repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.st.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.UniversityID != "" && (u.UniversityID == nil || *u.UniversityID != f.UniversityID) {
			continue
		}
		if f.IsActive != nil && u.IsActive != *f.IsActive {
			continue
		}
		if f.Keyword != "" && !strings.Contains(u.FullName, f.Keyword) && !strings.Contains(u.Email, f.Keyword) {
			continue
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return inPage(result, offset, limit), int64(len(result)), nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.st.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.users, id)
	return nil
}

func (m *mockUserRepo) CountByUniversity(_ context.Context, universityID string) (int64, error) {
	var n int64
	for _, u := range m.st.users {
		if u.UniversityID != nil && *u.UniversityID == universityID {
			n++
		}
	}
	return n, nil
}

func (m *mockUserRepo) CountByRole(_ context.Context) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, u := range m.st.users {
		result[u.Role]++
	}
	return result, nil
}

// ── Mock UniversityRepository ──

type mockUniversityRepo struct{ st *mockStore }

func (m *mockUniversityRepo) Create(_ context.Context, uni *model.University) error {
	if uni.UniversityID == "" {
		uni.UniversityID = m.st.nextID("uni")
	}
	uni.Version = 1
	cp := *uni
	m.st.universities[uni.UniversityID] = &cp
	return nil
}

func (m *mockUniversityRepo) GetByID(_ context.Context, id string) (*model.University, error) {
	if u, ok := m.st.universities[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUniversityRepo) GetByName(_ context.Context, name string) (*model.University, error) {
	for _, u := range m.st.universities {
		if strings.EqualFold(u.Name, name) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUniversityRepo) List(_ context.Context, includeInactive bool) ([]model.University, error) {
	var result []model.University
	for _, u := range m.st.universities {
		if includeInactive || u.IsActive {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockUniversityRepo) Update(_ context.Context, uni *model.University) error {
	stored, ok := m.st.universities[uni.UniversityID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, uni.Version); err != nil {
		return err
	}
	uni.Version++
	cp := *uni
	m.st.universities[uni.UniversityID] = &cp
	return nil
}

func (m *mockUniversityRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.st.universities[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.universities, id)
	return nil
}

func (m *mockUniversityRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.st.universities)), nil
}

// ── Mock InviteCodeRepository ──

type mockInviteCodeRepo struct{ st *mockStore }

func (m *mockInviteCodeRepo) Create(_ context.Context, code *model.InviteCode) error {
	if code.InviteCodeID == "" {
		code.InviteCodeID = m.st.nextID("inv")
	}
	cp := *code
	m.st.invites[code.Code] = &cp
	return nil
}

func (m *mockInviteCodeRepo) GetByCode(_ context.Context, code string) (*model.InviteCode, error) {
	if c, ok := m.st.invites[code]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInviteCodeRepo) GetByCodeForUpdate(ctx context.Context, code string) (*model.InviteCode, error) {
	return m.GetByCode(ctx, code)
}

func (m *mockInviteCodeRepo) MarkUsed(_ context.Context, inviteCodeID, userID string) error {
	for _, c := range m.st.invites {
		if c.InviteCodeID == inviteCodeID {
			now := time.Now()
			c.UsedAt = &now
			c.UsedBy = &userID
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock VenueRepository ──

type mockVenueRepo struct{ st *mockStore }

func (m *mockVenueRepo) Create(_ context.Context, venue *model.Venue) error {
	if venue.VenueID == "" {
		venue.VenueID = m.st.nextID("venue")
	}
	cp := *venue
	m.st.venues[venue.VenueID] = &cp
	return nil
}

func (m *mockVenueRepo) GetByID(_ context.Context, id string) (*model.Venue, error) {
	if v, ok := m.st.venues[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVenueRepo) List(_ context.Context, universityID string, includeInactive bool) ([]model.Venue, error) {
	var result []model.Venue
	for _, v := range m.st.venues {
		if universityID != "" && v.UniversityID != universityID {
			continue
		}
		if !includeInactive && !v.IsActive {
			continue
		}
		result = append(result, *v)
	}
	return result, nil
}

func (m *mockVenueRepo) Update(_ context.Context, venue *model.Venue) error {
	if _, ok := m.st.venues[venue.VenueID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *venue
	m.st.venues[venue.VenueID] = &cp
	return nil
}

func (m *mockVenueRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.st.venues[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.venues, id)
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct{ st *mockStore }

func (m *mockCourseRepo) withLecturer(c *model.Course) *model.Course {
	cp := *c
	if u, ok := m.st.users[c.LecturerID]; ok {
		lecturer := *u
		cp.Lecturer = &lecturer
	}
	return &cp
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if course.CourseID == "" {
		course.CourseID = m.st.nextID("course")
	}
	course.Version = 1
	cp := *course
	m.st.courses[course.CourseID] = &cp
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.st.courses[id]; ok {
		return m.withLecturer(c), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByCode(_ context.Context, universityID, code string) (*model.Course, error) {
	for _, c := range m.st.courses {
		if c.UniversityID == universityID && strings.EqualFold(c.Code, code) {
			return m.withLecturer(c), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) ListByLecturer(_ context.Context, lecturerID string) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.st.courses {
		if c.LecturerID == lecturerID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockCourseRepo) List(_ context.Context, f repository.CourseFilter, offset, limit int) ([]model.Course, int64, error) {
	var result []model.Course
	for _, c := range m.st.courses {
		if f.UniversityID != "" && c.UniversityID != f.UniversityID {
			continue
		}
		if f.LecturerID != "" && c.LecturerID != f.LecturerID {
			continue
		}
		if f.Keyword != "" && !strings.Contains(strings.ToLower(c.Code+" "+c.Title), strings.ToLower(f.Keyword)) {
			continue
		}
		result = append(result, *m.withLecturer(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return inPage(result, offset, limit), int64(len(result)), nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	stored, ok := m.st.courses[course.CourseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, course.Version); err != nil {
		return err
	}
	course.Version++
	cp := *course
	cp.Lecturer = nil
	m.st.courses[course.CourseID] = &cp
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.st.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.courses, id)
	return nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct{ st *mockStore }

func (m *mockEnrollmentRepo) hydrate(e *model.Enrollment) model.Enrollment {
	cp := *e
	if c, ok := m.st.courses[e.CourseID]; ok {
		course := *c
		cp.Course = &course
	}
	if u, ok := m.st.users[e.StudentID]; ok {
		student := *u
		cp.Student = &student
	}
	return cp
}

func (m *mockEnrollmentRepo) Create(_ context.Context, e *model.Enrollment) error {
	if e.EnrollmentID == "" {
		e.EnrollmentID = m.st.nextID("enr")
	}
	e.Version = 1
	cp := *e
	m.st.enrollments[e.EnrollmentID] = &cp
	return nil
}

func (m *mockEnrollmentRepo) GetByID(_ context.Context, id string) (*model.Enrollment, error) {
	if e, ok := m.st.enrollments[id]; ok {
		cp := m.hydrate(e)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) Get(_ context.Context, courseID, studentID string) (*model.Enrollment, error) {
	for _, e := range m.st.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			cp := m.hydrate(e)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) ListByCourse(_ context.Context, courseID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.st.enrollments {
		if e.CourseID == courseID {
			result = append(result, m.hydrate(e))
		}
	}
	return result, nil
}

func (m *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.st.enrollments {
		if e.StudentID == studentID {
			result = append(result, m.hydrate(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EnrollmentID < result[j].EnrollmentID })
	return result, nil
}

func (m *mockEnrollmentRepo) UpdateGrade(_ context.Context, e *model.Enrollment) error {
	stored, ok := m.st.enrollments[e.EnrollmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, e.Version); err != nil {
		return err
	}
	e.Version++
	stored.Score, stored.Grade, stored.GradedAt, stored.Version = e.Score, e.Grade, e.GradedAt, e.Version
	return nil
}

func (m *mockEnrollmentRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.st.enrollments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.enrollments, id)
	return nil
}

// ── Mock TimetableRepository ──

type mockTimetableRepo struct{ st *mockStore }

func (m *mockTimetableRepo) hydrate(e *model.TimetableEntry) model.TimetableEntry {
	cp := *e
	if c, ok := m.st.courses[e.CourseID]; ok {
		course := *c
		cp.Course = &course
	}
	if e.VenueID != nil {
		if v, ok := m.st.venues[*e.VenueID]; ok {
			venue := *v
			cp.Venue = &venue
		}
	}
	return cp
}

func (m *mockTimetableRepo) sorted(filter func(*model.TimetableEntry) bool) []model.TimetableEntry {
	var result []model.TimetableEntry
	for _, e := range m.st.timetables {
		if filter(e) {
			result = append(result, m.hydrate(e))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result
}

func (m *mockTimetableRepo) Create(_ context.Context, entry *model.TimetableEntry) error {
	if entry.TimetableID == "" {
		entry.TimetableID = m.st.nextID("tt")
	}
	entry.Version = 1
	cp := *entry
	cp.Course, cp.Venue = nil, nil
	m.st.timetables[entry.TimetableID] = &cp
	return nil
}

func (m *mockTimetableRepo) GetByID(_ context.Context, id string) (*model.TimetableEntry, error) {
	if e, ok := m.st.timetables[id]; ok {
		cp := m.hydrate(e)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) ListByLecturer(_ context.Context, lecturerID string) ([]model.TimetableEntry, error) {
	return m.sorted(func(e *model.TimetableEntry) bool { return e.LecturerID == lecturerID }), nil
}

func (m *mockTimetableRepo) ListByCourses(_ context.Context, courseIDs []string) ([]model.TimetableEntry, error) {
	set := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		set[id] = true
	}
	return m.sorted(func(e *model.TimetableEntry) bool { return set[e.CourseID] }), nil
}

func (m *mockTimetableRepo) FindOverlapping(_ context.Context, q repository.OverlapQuery) ([]model.TimetableEntry, error) {
	return m.sorted(func(e *model.TimetableEntry) bool {
		if e.DayOfWeek != q.DayOfWeek || e.TimetableID == q.ExcludeID {
			return false
		}
		if !(e.StartTime < q.End && e.EndTime > q.Start) {
			return false
		}
		sameVenue := q.VenueID != nil && *q.VenueID != "" && e.VenueID != nil && *e.VenueID == *q.VenueID
		return e.LecturerID == q.LecturerID || sameVenue
	}), nil
}

func (m *mockTimetableRepo) Update(_ context.Context, entry *model.TimetableEntry) error {
	stored, ok := m.st.timetables[entry.TimetableID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, entry.Version); err != nil {
		return err
	}
	entry.Version++
	cp := *entry
	cp.Course, cp.Venue = nil, nil
	m.st.timetables[entry.TimetableID] = &cp
	return nil
}

func (m *mockTimetableRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.st.timetables[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.timetables, id)
	return nil
}

func (m *mockTimetableRepo) DeleteByCourse(_ context.Context, courseID string, _ string) error {
	for id, e := range m.st.timetables {
		if e.CourseID == courseID {
			delete(m.st.timetables, id)
		}
	}
	return nil
}

// ── Mock VendorRepository / FoodItemRepository / FoodOrderRepository ──

type mockVendorRepo struct{ st *mockStore }

func (m *mockVendorRepo) Create(_ context.Context, vendor *model.Vendor) error {
	if vendor.VendorID == "" {
		vendor.VendorID = m.st.nextID("vendor")
	}
	vendor.Version = 1
	cp := *vendor
	m.st.vendors[vendor.VendorID] = &cp
	return nil
}

func (m *mockVendorRepo) GetByID(_ context.Context, id string) (*model.Vendor, error) {
	if v, ok := m.st.vendors[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVendorRepo) GetByUserID(_ context.Context, userID string) (*model.Vendor, error) {
	for _, v := range m.st.vendors {
		if v.UserID == userID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVendorRepo) List(_ context.Context, f repository.VendorFilter) ([]model.Vendor, error) {
	var result []model.Vendor
	for _, v := range m.st.vendors {
		if f.OpenOnly && !v.IsOpen {
			continue
		}
		if f.UniversityID != "" && (v.UniversityID == nil || *v.UniversityID != f.UniversityID) {
			continue
		}
		if f.Keyword != "" && !strings.Contains(v.BusinessName, f.Keyword) {
			continue
		}
		result = append(result, *v)
	}
	return result, nil
}

func (m *mockVendorRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.st.vendors)), nil
}

func (m *mockVendorRepo) Update(_ context.Context, vendor *model.Vendor) error {
	stored, ok := m.st.vendors[vendor.VendorID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, vendor.Version); err != nil {
		return err
	}
	vendor.Version++
	cp := *vendor
	m.st.vendors[vendor.VendorID] = &cp
	return nil
}

type mockFoodItemRepo struct{ st *mockStore }

func (m *mockFoodItemRepo) Create(_ context.Context, item *model.FoodItem) error {
	if item.FoodItemID == "" {
		item.FoodItemID = m.st.nextID("food")
	}
	item.Version = 1
	cp := *item
	m.st.foodItems[item.FoodItemID] = &cp
	return nil
}

func (m *mockFoodItemRepo) GetByID(_ context.Context, id string) (*model.FoodItem, error) {
	if f, ok := m.st.foodItems[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFoodItemRepo) GetByIDs(_ context.Context, ids []string) ([]model.FoodItem, error) {
	var result []model.FoodItem
	for _, id := range ids {
		if f, ok := m.st.foodItems[id]; ok {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (m *mockFoodItemRepo) ListByVendor(_ context.Context, vendorID string, availableOnly bool) ([]model.FoodItem, error) {
	var result []model.FoodItem
	for _, f := range m.st.foodItems {
		if f.VendorID == vendorID && (!availableOnly || f.IsAvailable) {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (m *mockFoodItemRepo) Update(_ context.Context, item *model.FoodItem) error {
	stored, ok := m.st.foodItems[item.FoodItemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, item.Version); err != nil {
		return err
	}
	item.Version++
	cp := *item
	m.st.foodItems[item.FoodItemID] = &cp
	return nil
}

func (m *mockFoodItemRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.st.foodItems[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.foodItems, id)
	return nil
}

type mockFoodOrderRepo struct{ st *mockStore }

func (m *mockFoodOrderRepo) hydrate(o *model.FoodOrder) model.FoodOrder {
	cp := *o
	cp.Items = append([]model.FoodOrderItem(nil), o.Items...)
	if v, ok := m.st.vendors[o.VendorID]; ok {
		vendor := *v
		cp.Vendor = &vendor
	}
	return cp
}

func (m *mockFoodOrderRepo) Create(_ context.Context, order *model.FoodOrder) error {
	order.FoodOrderID = m.st.nextID("fo")
	order.Version = 1
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].FoodOrderID = order.FoodOrderID
	}
	cp := *order
	cp.Vendor = nil
	m.st.foodOrders[order.FoodOrderID] = &cp
	return nil
}

func (m *mockFoodOrderRepo) GetByID(_ context.Context, id string) (*model.FoodOrder, error) {
	if o, ok := m.st.foodOrders[id]; ok {
		cp := m.hydrate(o)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFoodOrderRepo) List(_ context.Context, f repository.OrderFilter, offset, limit int) ([]model.FoodOrder, int64, error) {
	var result []model.FoodOrder
	for _, o := range m.st.foodOrders {
		owner := map[string]string{"student_id": o.StudentID, "vendor_id": o.VendorID}
		if matchOrderFilter(f, owner, o.Status, o.CreatedAt) {
			result = append(result, m.hydrate(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FoodOrderID < result[j].FoodOrderID })
	return inPage(result, offset, limit), int64(len(result)), nil
}

func (m *mockFoodOrderRepo) UpdateStatus(_ context.Context, order *model.FoodOrder) error {
	stored, ok := m.st.foodOrders[order.FoodOrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, order.Version); err != nil {
		return err
	}
	order.Version++
	stored.Status, stored.OrderTimestamps, stored.Version = order.Status, order.OrderTimestamps, order.Version
	return nil
}

func (m *mockFoodOrderRepo) Stats(_ context.Context) (*repository.OrderStats, error) {
	stats := &repository.OrderStats{ByStatus: make(map[string]int64)}
	for _, o := range m.st.foodOrders {
		stats.Count++
		stats.ByStatus[o.Status]++
		stats.GrossVolumeMinor += gross(o.Status, o.TotalMinor)
	}
	return stats, nil
}

// ── Mock ShopRepository / ShopItemRepository / ShopOrderRepository ──

type mockShopRepo struct{ st *mockStore }

func (m *mockShopRepo) Create(_ context.Context, shop *model.Shop) error {
	if shop.ShopID == "" {
		shop.ShopID = m.st.nextID("shop")
	}
	shop.Version = 1
	cp := *shop
	m.st.shops[shop.ShopID] = &cp
	return nil
}

func (m *mockShopRepo) GetByID(_ context.Context, id string) (*model.Shop, error) {
	if s, ok := m.st.shops[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShopRepo) List(_ context.Context, f repository.ShopFilter, offset, limit int) ([]model.Shop, int64, error) {
	var result []model.Shop
	for _, s := range m.st.shops {
		if f.OwnerID != "" && s.OwnerID != f.OwnerID {
			continue
		}
		if f.Category != "" && s.Category != f.Category {
			continue
		}
		if f.OpenOnly && !s.IsOpen {
			continue
		}
		if f.Keyword != "" && !strings.Contains(s.Name+s.Description, f.Keyword) {
			continue
		}
		if f.UniversityID != "" && (s.UniversityID == nil || *s.UniversityID != f.UniversityID) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return inPage(result, offset, limit), int64(len(result)), nil
}

func (m *mockShopRepo) Update(_ context.Context, shop *model.Shop) error {
	stored, ok := m.st.shops[shop.ShopID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, shop.Version); err != nil {
		return err
	}
	shop.Version++
	cp := *shop
	m.st.shops[shop.ShopID] = &cp
	return nil
}

func (m *mockShopRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.st.shops[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.shops, id)
	return nil
}

func (m *mockShopRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.st.shops)), nil
}

type mockShopItemRepo struct{ st *mockStore }

func (m *mockShopItemRepo) Create(_ context.Context, item *model.ShopItem) error {
	if item.ShopItemID == "" {
		item.ShopItemID = m.st.nextID("item")
	}
	item.Version = 1
	cp := *item
	m.st.shopItems[item.ShopItemID] = &cp
	return nil
}

func (m *mockShopItemRepo) GetByID(_ context.Context, id string) (*model.ShopItem, error) {
	if it, ok := m.st.shopItems[id]; ok {
		cp := *it
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShopItemRepo) GetByIDs(_ context.Context, ids []string) ([]model.ShopItem, error) {
	var result []model.ShopItem
	for _, id := range ids {
		if it, ok := m.st.shopItems[id]; ok {
			result = append(result, *it)
		}
	}
	return result, nil
}

func (m *mockShopItemRepo) ListByShop(_ context.Context, shopID string, activeOnly bool) ([]model.ShopItem, error) {
	var result []model.ShopItem
	for _, it := range m.st.shopItems {
		if it.ShopID == shopID && (!activeOnly || it.IsActive) {
			result = append(result, *it)
		}
	}
	return result, nil
}

func (m *mockShopItemRepo) Update(_ context.Context, item *model.ShopItem) error {
	stored, ok := m.st.shopItems[item.ShopItemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, item.Version); err != nil {
		return err
	}
	item.Version++
	cp := *item
	m.st.shopItems[item.ShopItemID] = &cp
	return nil
}

func (m *mockShopItemRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.st.shopItems[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.shopItems, id)
	return nil
}

func (m *mockShopItemRepo) DecrementStock(_ context.Context, id string, qty int) error {
	it, ok := m.st.shopItems[id]
	if !ok || it.Stock < qty {
		return repository.ErrStockNotEnough
	}
	it.Stock -= qty
	it.Version++
	return nil
}

func (m *mockShopItemRepo) IncrementStock(_ context.Context, id string, qty int) error {
	if it, ok := m.st.shopItems[id]; ok {
		it.Stock += qty
		it.Version++
	}
	return nil
}

type mockShopOrderRepo struct{ st *mockStore }

func (m *mockShopOrderRepo) hydrate(o *model.ShopOrder) model.ShopOrder {
	cp := *o
	cp.Items = append([]model.ShopOrderItem(nil), o.Items...)
	if s, ok := m.st.shops[o.ShopID]; ok {
		shop := *s
		cp.Shop = &shop
	}
	return cp
}

func (m *mockShopOrderRepo) Create(_ context.Context, order *model.ShopOrder) error {
	order.ShopOrderID = m.st.nextID("so")
	order.Version = 1
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ShopOrderID = order.ShopOrderID
	}
	cp := *order
	cp.Shop = nil
	m.st.shopOrders[order.ShopOrderID] = &cp
	return nil
}

func (m *mockShopOrderRepo) GetByID(_ context.Context, id string) (*model.ShopOrder, error) {
	if o, ok := m.st.shopOrders[id]; ok {
		cp := m.hydrate(o)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShopOrderRepo) List(_ context.Context, f repository.OrderFilter, offset, limit int) ([]model.ShopOrder, int64, error) {
	var result []model.ShopOrder
	for _, o := range m.st.shopOrders {
		owner := map[string]string{"buyer_id": o.BuyerID, "shop_id": o.ShopID}
		if matchOrderFilter(f, owner, o.Status, o.CreatedAt) {
			result = append(result, m.hydrate(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ShopOrderID < result[j].ShopOrderID })
	return inPage(result, offset, limit), int64(len(result)), nil
}

func (m *mockShopOrderRepo) UpdateStatus(_ context.Context, order *model.ShopOrder) error {
	stored, ok := m.st.shopOrders[order.ShopOrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, order.Version); err != nil {
		return err
	}
	order.Version++
	stored.Status, stored.OrderTimestamps, stored.Version = order.Status, order.OrderTimestamps, order.Version
	return nil
}

func (m *mockShopOrderRepo) Stats(_ context.Context) (*repository.OrderStats, error) {
	stats := &repository.OrderStats{ByStatus: make(map[string]int64)}
	for _, o := range m.st.shopOrders {
		stats.Count++
		stats.ByStatus[o.Status]++
		stats.GrossVolumeMinor += gross(o.Status, o.TotalMinor)
	}
	return stats, nil
}

// ── Mock LaundryServiceRepository / LaundryOrderRepository ──

type mockLaundryServiceRepo struct{ st *mockStore }

func (m *mockLaundryServiceRepo) Create(_ context.Context, svc *model.LaundryService) error {
	if svc.LaundryServiceID == "" {
		svc.LaundryServiceID = m.st.nextID("ls")
	}
	svc.Version = 1
	cp := *svc
	m.st.laundrySvcs[svc.LaundryServiceID] = &cp
	return nil
}

func (m *mockLaundryServiceRepo) GetByID(_ context.Context, id string) (*model.LaundryService, error) {
	if s, ok := m.st.laundrySvcs[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLaundryServiceRepo) List(_ context.Context, universityID, ownerID string, activeOnly bool) ([]model.LaundryService, error) {
	var result []model.LaundryService
	for _, s := range m.st.laundrySvcs {
		if universityID != "" && (s.UniversityID == nil || *s.UniversityID != universityID) {
			continue
		}
		if ownerID != "" && s.OwnerID != ownerID {
			continue
		}
		if activeOnly && !s.IsActive {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockLaundryServiceRepo) Update(_ context.Context, svc *model.LaundryService) error {
	stored, ok := m.st.laundrySvcs[svc.LaundryServiceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, svc.Version); err != nil {
		return err
	}
	svc.Version++
	cp := *svc
	m.st.laundrySvcs[svc.LaundryServiceID] = &cp
	return nil
}

func (m *mockLaundryServiceRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.st.laundrySvcs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.laundrySvcs, id)
	return nil
}

type mockLaundryOrderRepo struct{ st *mockStore }

func (m *mockLaundryOrderRepo) hydrate(o *model.LaundryOrder) model.LaundryOrder {
	cp := *o
	if s, ok := m.st.laundrySvcs[o.ServiceID]; ok {
		svc := *s
		cp.Service = &svc
	}
	return cp
}

func (m *mockLaundryOrderRepo) Create(_ context.Context, order *model.LaundryOrder) error {
	order.LaundryOrderID = m.st.nextID("lo")
	order.Version = 1
	order.CreatedAt = time.Now()
	cp := *order
	cp.Service = nil
	m.st.laundryOrders[order.LaundryOrderID] = &cp
	return nil
}

func (m *mockLaundryOrderRepo) GetByID(_ context.Context, id string) (*model.LaundryOrder, error) {
	if o, ok := m.st.laundryOrders[id]; ok {
		cp := m.hydrate(o)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLaundryOrderRepo) List(_ context.Context, f repository.OrderFilter, offset, limit int) ([]model.LaundryOrder, int64, error) {
	var result []model.LaundryOrder
	for _, o := range m.st.laundryOrders {
		owner := map[string]string{"student_id": o.StudentID, "service_id": o.ServiceID}
		if matchOrderFilter(f, owner, o.Status, o.CreatedAt) {
			result = append(result, m.hydrate(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LaundryOrderID < result[j].LaundryOrderID })
	return inPage(result, offset, limit), int64(len(result)), nil
}

func (m *mockLaundryOrderRepo) ListByOwner(_ context.Context, ownerID, status string, offset, limit int) ([]model.LaundryOrder, int64, error) {
	var result []model.LaundryOrder
	for _, o := range m.st.laundryOrders {
		svc, ok := m.st.laundrySvcs[o.ServiceID]
		if !ok || svc.OwnerID != ownerID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		result = append(result, m.hydrate(o))
	}
	return inPage(result, offset, limit), int64(len(result)), nil
}

func (m *mockLaundryOrderRepo) UpdateStatus(_ context.Context, order *model.LaundryOrder) error {
	stored, ok := m.st.laundryOrders[order.LaundryOrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, order.Version); err != nil {
		return err
	}
	order.Version++
	stored.Status, stored.OrderTimestamps, stored.Version = order.Status, order.OrderTimestamps, order.Version
	stored.EstimatedReadyAt = order.EstimatedReadyAt
	return nil
}

func (m *mockLaundryOrderRepo) Stats(_ context.Context) (*repository.OrderStats, error) {
	stats := &repository.OrderStats{ByStatus: make(map[string]int64)}
	for _, o := range m.st.laundryOrders {
		stats.Count++
		stats.ByStatus[o.Status]++
		stats.GrossVolumeMinor += gross(o.Status, o.TotalMinor)
	}
	return stats, nil
}

// ── Mock DeliveryAgentRepository / DeliveryRepository ──

type mockDeliveryAgentRepo struct{ st *mockStore }

func (m *mockDeliveryAgentRepo) Create(_ context.Context, agent *model.DeliveryAgent) error {
	if agent.AgentID == "" {
		agent.AgentID = m.st.nextID("agent")
	}
	agent.Version = 1
	cp := *agent
	m.st.agents[agent.UserID] = &cp
	return nil
}

func (m *mockDeliveryAgentRepo) GetByUserID(_ context.Context, userID string) (*model.DeliveryAgent, error) {
	if a, ok := m.st.agents[userID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeliveryAgentRepo) GetByUserIDForUpdate(ctx context.Context, userID string) (*model.DeliveryAgent, error) {
	return m.GetByUserID(ctx, userID)
}

func (m *mockDeliveryAgentRepo) Update(_ context.Context, agent *model.DeliveryAgent) error {
	stored, ok := m.st.agents[agent.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, agent.Version); err != nil {
		return err
	}
	agent.Version++
	cp := *agent
	m.st.agents[agent.UserID] = &cp
	return nil
}

func (m *mockDeliveryAgentRepo) IncrementCompleted(_ context.Context, userID string) error {
	if a, ok := m.st.agents[userID]; ok {
		a.CompletedCount++
	}
	return nil
}

type mockDeliveryRepo struct{ st *mockStore }

func isActiveDelivery(status string) bool {
	return status == model.DeliveryAssigned || status == model.DeliveryPickedUp
}

func (m *mockDeliveryRepo) Create(_ context.Context, d *model.Delivery) error {
	d.DeliveryID = m.st.nextID("dl")
	d.Version = 1
	d.CreatedAt = time.Now()
	cp := *d
	m.st.deliveries[d.DeliveryID] = &cp
	return nil
}

func (m *mockDeliveryRepo) GetByID(_ context.Context, id string) (*model.Delivery, error) {
	if d, ok := m.st.deliveries[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeliveryRepo) GetByOrder(_ context.Context, kind, orderID string) (*model.Delivery, error) {
	for _, d := range m.st.deliveries {
		if d.OrderKind == kind && d.OrderID == orderID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeliveryRepo) ListOpen(_ context.Context, universityID string, offset, limit int) ([]model.Delivery, int64, error) {
	var result []model.Delivery
	for _, d := range m.st.deliveries {
		if d.Status != model.DeliveryPending {
			continue
		}
		if universityID != "" && (d.UniversityID == nil || *d.UniversityID != universityID) {
			continue
		}
		result = append(result, *d)
	}
	return inPage(result, offset, limit), int64(len(result)), nil
}

func (m *mockDeliveryRepo) ListByRider(_ context.Context, riderID string, activeOnly bool) ([]model.Delivery, error) {
	var result []model.Delivery
	for _, d := range m.st.deliveries {
		if d.RiderID == nil || *d.RiderID != riderID {
			continue
		}
		if activeOnly && !isActiveDelivery(d.Status) {
			continue
		}
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockDeliveryRepo) CountActiveByRider(_ context.Context, riderID string) (int64, error) {
	var n int64
	for _, d := range m.st.deliveries {
		if d.RiderID != nil && *d.RiderID == riderID && isActiveDelivery(d.Status) {
			n++
		}
	}
	return n, nil
}

func (m *mockDeliveryRepo) Assign(_ context.Context, deliveryID, riderID string, at time.Time) (bool, error) {
	d, ok := m.st.deliveries[deliveryID]
	if !ok || d.Status != model.DeliveryPending {
		return false, nil
	}
	d.Status = model.DeliveryAssigned
	d.RiderID = &riderID
	d.AssignedAt = &at
	d.Version++
	return true, nil
}

func (m *mockDeliveryRepo) Update(_ context.Context, d *model.Delivery) error {
	stored, ok := m.st.deliveries[d.DeliveryID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, d.Version); err != nil {
		return err
	}
	d.Version++
	cp := *d
	m.st.deliveries[d.DeliveryID] = &cp
	return nil
}

// ── Mock TripRepository ──

type mockTripRepo struct{ st *mockStore }

func (m *mockTripRepo) Create(_ context.Context, trip *model.Trip) error {
	if trip.TripID == "" {
		trip.TripID = m.st.nextID("trip")
	}
	trip.Version = 1
	cp := *trip
	m.st.trips[trip.TripID] = &cp
	return nil
}

func (m *mockTripRepo) GetByID(_ context.Context, id string) (*model.Trip, error) {
	if t, ok := m.st.trips[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTripRepo) ListByUser(_ context.Context, userID, status string, offset, limit int) ([]model.Trip, int64, error) {
	var result []model.Trip
	for _, t := range m.st.trips {
		if t.UserID == userID && (status == "" || t.Status == status) {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DepartAt.Before(result[j].DepartAt) })
	return inPage(result, offset, limit), int64(len(result)), nil
}

func (m *mockTripRepo) ListOpenRides(_ context.Context, offset, limit int) ([]model.Trip, int64, error) {
	var result []model.Trip
	for _, t := range m.st.trips {
		if t.Mode == model.TripModeRide && t.Status == model.TripRequested {
			result = append(result, *t)
		}
	}
	return inPage(result, offset, limit), int64(len(result)), nil
}

func (m *mockTripRepo) ListByRider(_ context.Context, riderID string) ([]model.Trip, error) {
	var result []model.Trip
	for _, t := range m.st.trips {
		if t.RiderID != nil && *t.RiderID == riderID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTripRepo) Update(_ context.Context, trip *model.Trip) error {
	stored, ok := m.st.trips[trip.TripID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkVersion(stored.Version, trip.Version); err != nil {
		return err
	}
	trip.Version++
	cp := *trip
	m.st.trips[trip.TripID] = &cp
	return nil
}

func (m *mockTripRepo) AssignRider(_ context.Context, tripID, riderID string) (bool, error) {
	t, ok := m.st.trips[tripID]
	if !ok || t.Status != model.TripRequested {
		return false, nil
	}
	t.Status = model.TripAccepted
	t.RiderID = &riderID
	t.Version++
	return true, nil
}

func (m *mockTripRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.st.trips[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.trips, id)
	return nil
}

func (m *mockTripRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.st.trips)), nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct{ st *mockStore }

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.NotificationID == "" {
		n.NotificationID = m.st.nextID("ntf")
	}
	n.CreatedAt = time.Now()
	cp := *n
	m.st.notifications[n.NotificationID] = &cp
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var result []model.Notification
	for _, n := range m.st.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].NotificationID > result[j].NotificationID })
	return inPage(result, offset, limit), int64(len(result)), nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, item := range m.st.notifications {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	n, ok := m.st.notifications[id]
	if !ok || n.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	n.IsRead, n.ReadAt = true, &now
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.st.notifications {
		if n.UserID == userID && !n.IsRead {
			now := time.Now()
			n.IsRead, n.ReadAt = true, &now
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, id, userID string) error {
	n, ok := m.st.notifications[id]
	if !ok || n.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.notifications, id)
	return nil
}

// notificationsFor 测试辅助：某用户收到的通知
func (s *mockStore) notificationsFor(userID string) []*model.Notification {
	var result []*model.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

// ── Mock PlatformRepository ──

type mockPlatformRepo struct{ st *mockStore }

func (m *mockPlatformRepo) GetSettings(_ context.Context) (*model.PlatformSettings, error) {
	cp := *m.st.settings
	return &cp, nil
}

func (m *mockPlatformRepo) UpdateSettings(_ context.Context, s *model.PlatformSettings) error {
	cp := *s
	m.st.settings = &cp
	return nil
}

func (m *mockPlatformRepo) CreateSnapshot(_ context.Context, stats *model.PlatformStats) error {
	stats.StatsID = m.st.nextID("stats")
	m.st.snapshots = append(m.st.snapshots, *stats)
	return nil
}

func (m *mockPlatformRepo) ListSnapshots(_ context.Context, limit int) ([]model.PlatformStats, error) {
	result := make([]model.PlatformStats, 0, len(m.st.snapshots))
	for i := len(m.st.snapshots) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.st.snapshots[i])
	}
	return result, nil
}

// ── Mock Cache ──

type mockCache struct {
	data map[string]interface{}
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]interface{})}
}

// GetJSON 仅支持与写入时相同的类型，测试足够
func (c *mockCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *[]dto.PlaceResult:
		*d = v.([]dto.PlaceResult)
	case *dto.StatsResponse:
		*d = *(v.(*dto.StatsResponse))
	default:
		return false, fmt.Errorf("mockCache: 不支持的类型 %T", dest)
	}
	return true, nil
}

func (c *mockCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// ── 公共夹具 ──

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// seedUser 直接写入 store 的测试用户
func seedUser(st *mockStore, id, role string, universityID string) *model.User {
	u := &model.User{
		UserID:   id,
		FullName: "用户" + id,
		Email:    id + "@uni.test",
		Role:     role,
		IsActive: true,
	}
	if universityID != "" {
		u.UniversityID = &universityID
	}
	u.Version = 1
	st.users[id] = u
	return u
}

// deliveryForOrder 测试辅助：按订单查找配送单
func (s *mockStore) deliveryForOrder(kind, orderID string) (*model.Delivery, error) {
	for _, d := range s.deliveries {
		if d.OrderKind == kind && d.OrderID == orderID {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
