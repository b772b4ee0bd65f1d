package streak

import (
	"context"
	"errors"

	"github.com/cppla/focusstreak/models"
)

// ErrNotFound is returned by a Repository holding no record for a user.
var ErrNotFound = errors.New("streak record not found")

// Repository is one replica of a user's record: the local cache or the
// remote Record Store. Put returns the record as the replica now holds it;
// a replica that stamps its own updatedAt reports that stamp.
type Repository interface {
	Get(ctx context.Context, userID string) (*models.StreakRecord, error)
	Put(ctx context.Context, rec models.StreakRecord) (models.StreakRecord, error)
}

// Source names the replica Reconcile picked.
type Source int

const (
	SourceNone Source = iota
	SourceLocal
	SourceRemote
)

func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceRemote:
		return "remote"
	default:
		return "none"
	}
}

// Reconcile picks the authoritative record by last-writer-wins on UpdatedAt.
// Remote wins when it exists and local is absent, has no clock, or is
// strictly older. Otherwise local wins. Both absent yields nil (NoRecord).
// There is no field-level merge.
func Reconcile(local, remote *models.StreakRecord) (*models.StreakRecord, Source) {
	if remote != nil {
		if local == nil || local.UpdatedAt.IsZero() || remote.UpdatedAt.After(local.UpdatedAt) {
			return remote, SourceRemote
		}
	}
	if local != nil {
		return local, SourceLocal
	}
	return nil, SourceNone
}
