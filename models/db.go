package models

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"storyboard-server/config"

	_ "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *sql.DB
var GormDB *gorm.DB

func InitDB() {
	if config.AppConfig == nil {
		log.Fatal("config.AppConfig is nil, call config.InitConfig first")
	}
	dsn := config.AppConfig.MySQL.DSN
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	DB = db
	GormDB, err = gorm.Open(mysql.New(mysql.Config{
		Conn: DB,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("gorm init failed: %v", err)
	}

	if err := GormDB.AutoMigrate(&Project{}, &Task{}); err != nil {
		log.Fatalf("auto migrate failed: %v", err)
	}

	log.Println("database connected (Native SQL + GORM)")
}

// GormStore MySQL 实现，每个项目存为单行 JSON 文档
type GormStore struct {
	db    *gorm.DB
	locks *lockTable
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, locks: newLockTable()}
}

func (s *GormStore) Create(ctx context.Context, p *Project) (string, error) {
	now := time.Now()
	p.ID = NewProjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Shots == nil {
		p.Shots = ShotList{}
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return "", err
	}
	return p.ID, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*Project, error) {
	var p Project
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) List(ctx context.Context, f ListFilter) ([]*Project, int64, error) {
	f = f.normalize()
	q := s.db.WithContext(ctx).Model(&Project{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []*Project
	offset := (f.Page - 1) * f.PageSize
	err := q.Order("created_at DESC").Offset(offset).Limit(f.PageSize).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []*Project{}
	}
	return items, total, nil
}

// Update 同一项目的读-改-写全程持有该项目的互斥锁，避免并发追加丢失
func (s *GormStore) Update(ctx context.Context, id string, fn func(*Project) error) (*Project, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()

	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&Project{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}
