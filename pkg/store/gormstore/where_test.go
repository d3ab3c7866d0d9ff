package gormstore

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupWhereDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.Table(DefaultTable).AutoMigrate(&row{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func seedWhereRows(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []row{
		{ID: "01A", Effect: "permit", Principal: "alice", Securable: "report", Action: "read"},
		{ID: "01B", Effect: "permit", Principal: "alice", Securable: "report", Action: "update"},
		{ID: "01C", Effect: "permit", Principal: "bob", Securable: "invoice", Action: "read"},
		{ID: "01D", Effect: "deny", Principal: "mallory", Securable: "report", Action: "read"},
		{ID: "01E", Effect: "deny", Principal: "mallory", Securable: "invoice", Action: "read"},
	}
	if err := db.Table(DefaultTable).Create(&rows).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func TestWherePagination(t *testing.T) {
	db := setupWhereDB(t)
	seedWhereRows(t, db)

	tests := []struct {
		name    string
		opts    []WhereOption
		wantLen int
		wantID  string // first row ID
	}{
		{
			name:    "limit 2",
			opts:    []WhereOption{WithLimit(2)},
			wantLen: 2,
			wantID:  "01A",
		},
		{
			name:    "offset 2 limit 2",
			opts:    []WhereOption{WithOffset(2), WithLimit(2)},
			wantLen: 2,
			wantID:  "01C",
		},
		{
			name:    "page 2 size 2",
			opts:    []WhereOption{WithPage(2, 2)},
			wantLen: 2,
			wantID:  "01C",
		},
		{
			name:    "page below 1 clamps",
			opts:    []WhereOption{WithPage(0, 2)},
			wantLen: 2,
			wantID:  "01A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []row
			whr := NewWhere(tt.opts...)

			tx := whr.Where(db.Table(DefaultTable).Order("id"))
			if err := tx.Find(&results).Error; err != nil {
				t.Fatalf("query failed: %v", err)
			}

			if len(results) != tt.wantLen {
				t.Errorf("got len %d, want %d", len(results), tt.wantLen)
			}
			if len(results) > 0 && results[0].ID != tt.wantID {
				t.Errorf("got first row %s, want %s", results[0].ID, tt.wantID)
			}
		})
	}
}

func TestWhereFiltering(t *testing.T) {
	db := setupWhereDB(t)
	seedWhereRows(t, db)

	tests := []struct {
		name    string
		whr     *Where
		wantLen int
	}{
		{
			name:    "filter by effect",
			whr:     NewWhere(WithFilter(map[string]any{"effect": "deny"})),
			wantLen: 2,
		},
		{
			name:    "filter by principal and securable",
			whr:     NewWhere(WithFilter(map[string]any{"principal": "alice", "securable": "report"})),
			wantLen: 2,
		},
		{
			name:    "convenience F",
			whr:     F("principal", "bob"),
			wantLen: 1,
		},
		{
			name:    "chained Filter",
			whr:     F("effect", "permit").Filter("action", "read"),
			wantLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []row
			if err := tt.whr.Where(db.Table(DefaultTable)).Find(&results).Error; err != nil {
				t.Fatalf("query failed: %v", err)
			}
			if len(results) != tt.wantLen {
				t.Errorf("got len %d, want %d", len(results), tt.wantLen)
			}
		})
	}
}

func TestWhereRawQuery(t *testing.T) {
	db := setupWhereDB(t)
	seedWhereRows(t, db)

	var results []row
	whr := NewWhere().Q("securable IN (?, ?)", "report", "")
	if err := whr.Where(db.Table(DefaultTable)).Find(&results).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("got len %d, want 3", len(results))
	}
}
