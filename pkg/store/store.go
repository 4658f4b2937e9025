// Package store keeps routed results as named snapshots.
//
// Two backends implement [Store]: [FileStore] writes one JSON file per
// snapshot and suits the CLI; [MongoStore] keeps BSON documents in a MongoDB
// collection and suits a shared server.
//
//	st, err := store.NewFileStore("")
//	snap := store.NewSnapshot("board-a", out.ScenarioHash, out.Result)
//	if err := st.Save(ctx, snap); err != nil {
//	    return err
//	}
//	fmt.Println(snap.ID)
package store

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/layout"
)

// Store persists snapshots.
type Store interface {
	// Save writes snap, replacing any snapshot with the same id. A snapshot
	// without an id gets a fresh one.
	Save(ctx context.Context, snap *Snapshot) error

	// Load returns the snapshot with the given id, or a SNAPSHOT_NOT_FOUND
	// error.
	Load(ctx context.Context, id string) (*Snapshot, error)

	// List summarises every snapshot, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a snapshot. Deleting a missing snapshot is a
	// SNAPSHOT_NOT_FOUND error.
	Delete(ctx context.Context, id string) error

	Close() error
}

// Snapshot is a saved routing result.
type Snapshot struct {
	ID           string         `json:"id" bson:"_id"`
	Name         string         `json:"name,omitempty" bson:"name,omitempty"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	ScenarioHash string         `json:"scenario_hash,omitempty" bson:"scenario_hash,omitempty"`
	Result       *layout.Result `json:"result" bson:"result"`
}

// NewSnapshot wraps a result in a snapshot with a fresh id. CreatedAt is
// kept to millisecond precision, which is what BSON stores.
func NewSnapshot(name, scenarioHash string, res *layout.Result) *Snapshot {
	return &Snapshot{
		ID:           uuid.NewString(),
		Name:         name,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		ScenarioHash: scenarioHash,
		Result:       res,
	}
}

// Summary is the listing form of a snapshot.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	PassID    string    `json:"pass_id"`
	Trees     int       `json:"trees"`
	Segments  int       `json:"segments"`
	Warnings  int       `json:"warnings"`
}

// Summarize returns the listing form of s.
func (s *Snapshot) Summarize() Summary {
	sum := Summary{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt}
	if s.Result != nil {
		sum.PassID = s.Result.PassID
		sum.Trees = len(s.Result.Trees)
		sum.Segments = s.Result.SegmentCount()
		sum.Warnings = len(s.Result.Warnings)
	}
	return sum
}

// prepare assigns an id when missing and checks the snapshot can be stored.
func prepare(snap *Snapshot) error {
	if snap.Result == nil {
		return lrerrors.New(lrerrors.ErrCodeInvalidInput, "snapshot has no result")
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	return ValidateID(snap.ID)
}

// ValidateID checks that id is a snapshot id (a UUID).
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return lrerrors.Wrap(lrerrors.ErrCodeInvalidInput, err, "invalid snapshot id %q", id)
	}
	return nil
}

func notFound(id string) error {
	return lrerrors.New(lrerrors.ErrCodeSnapshotNotFound, "snapshot %s not found", id)
}

func newestFirst(sums []Summary) {
	slices.SortFunc(sums, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
