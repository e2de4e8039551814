package metadata

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/daylog/internal/journal"
)

// Snapshots stores month listings as JSON under "snapshot:<owner>:<YYYY-MM>".
type Snapshots struct {
	repo Repository
}

func NewSnapshots(repo Repository) *Snapshots {
	return &Snapshots{repo: repo}
}

func snapshotKey(owner, month string) string {
	return snapshotPrefix + owner + ":" + month
}

// LoadMonth returns (nil, nil) when no snapshot was saved.
func (s *Snapshots) LoadMonth(ctx context.Context, owner, month string) (*journal.MonthSnapshot, error) {
	raw, err := s.repo.Get(ctx, snapshotKey(owner, month))
	if err != nil || raw == nil {
		return nil, err
	}
	var snap journal.MonthSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", month, err)
	}
	return &snap, nil
}

func (s *Snapshots) SaveMonth(ctx context.Context, snap journal.MonthSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.Month, err)
	}
	return s.repo.Set(ctx, snapshotKey(snap.Owner, snap.Month), raw)
}

// Forget drops every snapshot of owner.
func (s *Snapshots) Forget(ctx context.Context, owner string) error {
	return s.repo.DeletePrefix(ctx, snapshotPrefix+owner+":")
}
