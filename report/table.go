package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/job"
	"github.com/kbukum/flowkit/logger"
)

// FailureRecord is one persisted failure.
type FailureRecord struct {
	ID         string    `gorm:"primaryKey;size:36"`
	JobID      string    `gorm:"size:36;index"`
	Job        string    `gorm:"index"`
	Pipe       string
	Code       string    `gorm:"index"`
	Message    string
	ReportedAt time.Time `gorm:"autoCreateTime"`
}

// TableName sets the table FailureRecord rows live in.
func (FailureRecord) TableName() string { return "flow_failures" }

// BeforeCreate assigns an id when none is set.
func (r *FailureRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

var _ job.ErrorReporter = (*Table)(nil)

// Table persists reported failures.
type Table struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewTable migrates the failure table on db.
func NewTable(ctx context.Context, db *gorm.DB) (*Table, error) {
	if err := db.WithContext(ctx).AutoMigrate(&FailureRecord{}); err != nil {
		return nil, fmt.Errorf("migrate failure table: %w", err)
	}
	return &Table{db: db, log: logger.Get("report")}, nil
}

// Report inserts a record for err. Insert failures are logged.
func (r *Table) Report(ctx context.Context, err error) {
	rec := FailureRecord{
		Code:    string(errors.CodeOf(err)),
		Message: err.Error(),
	}
	if info, ok := job.InfoFromContext(ctx); ok {
		rec.Job = info.Name
		rec.JobID = info.ID.String()
	}
	if pe, ok := errors.AsPipeError(err); ok {
		rec.Pipe = pe.Pipe
	}

	if dbErr := r.db.WithContext(ctx).Create(&rec).Error; dbErr != nil {
		fields := failureFields(ctx, err)
		fields["insert_error"] = dbErr.Error()
		r.log.WithContext(ctx).Warn("failed to persist reported failure", fields)
	}
}

// Records returns persisted failures, oldest first. A non-empty jobName
// restricts the result to that job.
func (r *Table) Records(ctx context.Context, jobName string) ([]FailureRecord, error) {
	q := r.db.WithContext(ctx).Order("reported_at")
	if jobName != "" {
		q = q.Where("job = ?", jobName)
	}
	var out []FailureRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	return out, nil
}
