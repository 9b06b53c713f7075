package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"VesselTrack/internal/model"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "vesseltrack.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.Vessel{}, &model.PositionRecord{}, &model.FeedSession{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func strPtr(s string) *string   { return &s }
func intPtr(i int) *int         { return &i }
func f64Ptr(f float64) *float64 { return &f }

func TestUpsertPositionCreatesRow(t *testing.T) {
	repo := NewVesselRepository(setupDB(t))
	ctx := context.Background()

	err := repo.UpsertPosition(ctx, &model.VesselPositionPatch{
		MMSI:      "X1",
		Latitude:  10.0,
		Longitude: 20.0,
		Speed:     8.5,
		Heading:   120,
		ReportAt:  time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("UpsertPosition() error = %v", err)
	}

	v, err := repo.GetByMMSI(ctx, "X1")
	if err != nil {
		t.Fatalf("GetByMMSI() error = %v", err)
	}
	if v.Latitude == nil || *v.Latitude != 10.0 || v.Longitude == nil || *v.Longitude != 20.0 {
		t.Errorf("position = (%v, %v)", v.Latitude, v.Longitude)
	}
	// 报文无船名时建行合成显示名
	if v.Name == nil || *v.Name != "MMSI X1" {
		t.Errorf("Name = %v, want synthesized", v.Name)
	}
}

func TestUpsertFieldMergeIsolation(t *testing.T) {
	repo := NewVesselRepository(setupDB(t))
	ctx := context.Background()

	// 先静态后位置：位置事件不得覆盖标识/描述字段
	err := repo.UpsertStatic(ctx, &model.VesselStaticPatch{
		MMSI:     "X2",
		Name:     strPtr("ATLANTIC STAR"),
		CallSign: strPtr("ABCD1"),
		ShipType: intPtr(70),
		Length:   f64Ptr(300),
		Width:    f64Ptr(45),
	})
	if err != nil {
		t.Fatalf("UpsertStatic() error = %v", err)
	}
	err = repo.UpsertPosition(ctx, &model.VesselPositionPatch{
		MMSI:      "X2",
		Name:      strPtr("OTHER NAME"), // 元数据冗余船名仅建行用
		Latitude:  1.5,
		Longitude: 2.5,
		ReportAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("UpsertPosition() error = %v", err)
	}

	v, err := repo.GetByMMSI(ctx, "X2")
	if err != nil {
		t.Fatalf("GetByMMSI() error = %v", err)
	}
	if v.Name == nil || *v.Name != "ATLANTIC STAR" {
		t.Errorf("Name = %v, position event must not overwrite", v.Name)
	}
	if v.CallSign == nil || *v.CallSign != "ABCD1" || v.Length == nil || *v.Length != 300 {
		t.Errorf("static fields changed: callsign=%v length=%v", v.CallSign, v.Length)
	}
	if v.Latitude == nil || *v.Latitude != 1.5 {
		t.Errorf("Latitude = %v", v.Latitude)
	}

	// 反向：静态事件不得覆盖位置字段，nil字段不得清空已有值
	err = repo.UpsertStatic(ctx, &model.VesselStaticPatch{
		MMSI:     "X2",
		CallSign: strPtr("WXYZ9"),
	})
	if err != nil {
		t.Fatalf("UpsertStatic() error = %v", err)
	}
	v, err = repo.GetByMMSI(ctx, "X2")
	if err != nil {
		t.Fatalf("GetByMMSI() error = %v", err)
	}
	if v.Latitude == nil || *v.Latitude != 1.5 || v.Longitude == nil || *v.Longitude != 2.5 {
		t.Errorf("static event overwrote position: (%v, %v)", v.Latitude, v.Longitude)
	}
	if v.Name == nil || *v.Name != "ATLANTIC STAR" {
		t.Errorf("partial static patch cleared name: %v", v.Name)
	}
	if v.CallSign == nil || *v.CallSign != "WXYZ9" {
		t.Errorf("CallSign = %v", v.CallSign)
	}
}

func TestUpsertStaticIdempotent(t *testing.T) {
	repo := NewVesselRepository(setupDB(t))
	ctx := context.Background()

	patch := &model.VesselStaticPatch{
		MMSI:     "X3",
		Name:     strPtr("TUG ONE"),
		ShipType: intPtr(52),
	}
	if err := repo.UpsertStatic(ctx, patch); err != nil {
		t.Fatalf("UpsertStatic() error = %v", err)
	}
	first, err := repo.GetByMMSI(ctx, "X3")
	if err != nil {
		t.Fatalf("GetByMMSI() error = %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if err := repo.UpsertStatic(ctx, patch); err != nil {
		t.Fatalf("UpsertStatic() second error = %v", err)
	}
	second, err := repo.GetByMMSI(ctx, "X3")
	if err != nil {
		t.Fatalf("GetByMMSI() error = %v", err)
	}

	if *second.Name != *first.Name || *second.ShipType != *first.ShipType {
		t.Errorf("second apply changed fields: %+v vs %+v", second, first)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt did not advance: %v vs %v", second.UpdatedAt, first.UpdatedAt)
	}
}

func TestListVesselsOrder(t *testing.T) {
	repo := NewVesselRepository(setupDB(t))
	ctx := context.Background()

	for _, mmsi := range []string{"A", "B", "C"} {
		if err := repo.UpsertPosition(ctx, &model.VesselPositionPatch{
			MMSI: mmsi, Latitude: 1, Longitude: 1, ReportAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("UpsertPosition(%s) error = %v", mmsi, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	// 再次更新A，A应排到最前
	if err := repo.UpsertPosition(ctx, &model.VesselPositionPatch{
		MMSI: "A", Latitude: 2, Longitude: 2, ReportAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("UpsertPosition(A) error = %v", err)
	}

	vessels, err := repo.ListVessels(ctx)
	if err != nil {
		t.Fatalf("ListVessels() error = %v", err)
	}
	if len(vessels) != 3 {
		t.Fatalf("ListVessels() len = %d", len(vessels))
	}
	if vessels[0].MMSI != "A" {
		t.Errorf("ListVessels()[0] = %s, want A", vessels[0].MMSI)
	}
}

func appendRecord(t *testing.T, repo PositionRepository, mmsi string, reportAt, ingestedAt time.Time) {
	t.Helper()
	err := repo.Append(context.Background(), &model.PositionRecord{
		MMSI:       mmsi,
		Latitude:   1,
		Longitude:  2,
		NavStatus:  model.NavStatusUnknown,
		ReportAt:   reportAt,
		MsgType:    model.MsgTypePositionReport,
		IngestedAt: ingestedAt,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
}

func TestListRecentOrderAndFilter(t *testing.T) {
	repo := NewPositionRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	appendRecord(t, repo, "X1", base.Add(1*time.Minute), base.Add(1*time.Minute))
	appendRecord(t, repo, "X1", base.Add(3*time.Minute), base.Add(3*time.Minute))
	appendRecord(t, repo, "X2", base.Add(2*time.Minute), base.Add(2*time.Minute))

	records, err := repo.ListRecent(ctx, "X1", 500)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListRecent(X1) len = %d", len(records))
	}
	if !records[0].ReportAt.After(records[1].ReportAt) {
		t.Errorf("ListRecent not ordered by report_at desc")
	}

	all, err := repo.ListRecent(ctx, "", 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListRecent(limit=2) len = %d", len(all))
	}
}

func TestListSince(t *testing.T) {
	repo := NewPositionRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	appendRecord(t, repo, "X1", base, base)
	appendRecord(t, repo, "X1", base, base.Add(10*time.Minute))

	records, err := repo.ListSince(ctx, base.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("ListSince() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ListSince() len = %d", len(records))
	}
	if !records[0].IngestedAt.After(base.Add(5 * time.Minute)) {
		t.Errorf("ListSince returned stale record: %v", records[0].IngestedAt)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	repo := NewPositionRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	// T-72h 与 T-1h 各一条，48h窗口只删前者
	appendRecord(t, repo, "OLD", now.Add(-72*time.Hour), now.Add(-72*time.Hour))
	appendRecord(t, repo, "NEW", now.Add(-time.Hour), now.Add(-time.Hour))

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-48*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if deleted != 1 {
		t.Fatalf("DeleteOlderThan() deleted = %d, want 1", deleted)
	}

	remaining, err := repo.ListRecent(ctx, "", 500)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(remaining) != 1 || remaining[0].MMSI != "NEW" {
		t.Fatalf("remaining = %+v, want only NEW", remaining)
	}
}

func TestDeleteOldest(t *testing.T) {
	repo := NewPositionRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		appendRecord(t, repo, "X1", base.Add(time.Duration(i)*time.Minute), base.Add(time.Duration(i)*time.Minute))
	}

	deleted, err := repo.DeleteOldest(ctx, 2)
	if err != nil {
		t.Fatalf("DeleteOldest() error = %v", err)
	}
	if deleted != 2 {
		t.Fatalf("DeleteOldest() deleted = %d, want 2", deleted)
	}

	remaining, err := repo.ListRecent(ctx, "", 500)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(remaining) != 3 {
		t.Fatalf("remaining len = %d", len(remaining))
	}
	for _, r := range remaining {
		if r.IngestedAt.Before(base.Add(2 * time.Minute)) {
			t.Errorf("oldest records not deleted: %v", r.IngestedAt)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	repo := NewSessionRepository(setupDB(t))
	ctx := context.Background()

	session := &model.FeedSession{
		ID:           "session-1",
		Subscription: datatypes.JSON(`{"APIKey":"k"}`),
		State:        model.SessionStateConnecting,
		StartedAt:    time.Now().UTC(),
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.MarkState(ctx, "session-1", model.SessionStateStreaming); err != nil {
		t.Fatalf("MarkState() error = %v", err)
	}
	if err := repo.Close(ctx, "session-1", "read error", 42); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	sessions, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("ListRecent() len = %d", len(sessions))
	}
	s := sessions[0]
	if s.State != model.SessionStateClosed {
		t.Errorf("State = %s", s.State)
	}
	if s.MessageCount != 42 {
		t.Errorf("MessageCount = %d", s.MessageCount)
	}
	if s.CloseReason == nil || *s.CloseReason != "read error" {
		t.Errorf("CloseReason = %v", s.CloseReason)
	}
	if s.EndedAt == nil {
		t.Errorf("EndedAt = nil")
	}
}
