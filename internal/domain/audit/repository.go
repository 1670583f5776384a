package audit

import "context"

// Repository persists audit entries. Save is idempotent on EventID.
type Repository interface {
	Save(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter, page, limit int) ([]*Entry, int64, error)
}
