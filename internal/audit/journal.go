package audit

import (
	"context"
	"time"

	"github.com/nerrad567/alpha2-bridge/internal/command"
)

// Journal records command changes in a Repository.
type Journal struct {
	repo Repository
	now  func() time.Time
}

// NewJournal wraps repo as a command.Journal.
func NewJournal(repo Repository) *Journal {
	return &Journal{repo: repo, now: time.Now}
}

// Record stores one entry per change, all with the same timestamp.
func (j *Journal) Record(ctx context.Context, source string, changes []command.Change) error {
	at := j.now().UTC()
	logs := make([]*AuditLog, 0, len(changes))
	for _, c := range changes {
		logs = append(logs, &AuditLog{
			Action:     c.Action,
			EntityType: c.EntityType,
			EntityID:   c.EntityID,
			Source:     source,
			Details:    c.Details,
			CreatedAt:  at,
		})
	}
	return j.repo.CreateBatch(ctx, logs)
}

var _ command.Journal = (*Journal)(nil)
