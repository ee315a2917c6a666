package curriculum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrProfileMissing aborts an export: there is no document without a profile.
var ErrProfileMissing = errors.New("profile not found")

// Fetcher supplies the profile and the six collections for one user. It is
// passed in explicitly so the aggregator never reaches for ambient session
// state.
type Fetcher interface {
	Profile(ctx context.Context, userID uint) (*Profile, error)
	Experience(ctx context.Context, userID uint) ([]Experience, error)
	Education(ctx context.Context, userID uint) ([]Education, error)
	Projects(ctx context.Context, userID uint) ([]Project, error)
	Languages(ctx context.Context, userID uint) ([]Language, error)
	Certificates(ctx context.Context, userID uint) ([]Certificate, error)
	Publications(ctx context.Context, userID uint) ([]Publication, error)
}

// Aggregator assembles the export snapshot. The six collection fetches run
// concurrently, each bounded by fetchTimeout; a failed or timed-out fetch
// degrades to an empty collection instead of aborting the export.
type Aggregator struct {
	fetcher      Fetcher
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// NewAggregator builds an Aggregator. A nil logger falls back to slog.Default.
func NewAggregator(fetcher Fetcher, fetchTimeout time.Duration, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		fetcher:      fetcher,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// Aggregate fetches the profile and fans out the six collection fetches,
// waiting for all of them before returning. Each goroutine writes to its own
// slot of the result, so no locking is involved.
func (a *Aggregator) Aggregate(ctx context.Context, userID uint) (*Data, error) {
	profile, err := a.fetcher.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileMissing) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	data := &Data{Profile: *profile}

	var failed [6]bool
	var wg sync.WaitGroup
	wg.Add(6)
	go func() {
		defer wg.Done()
		data.Experience, failed[0] = fetchCollection(ctx, a, "experiences", userID, a.fetcher.Experience)
	}()
	go func() {
		defer wg.Done()
		data.Education, failed[1] = fetchCollection(ctx, a, "education", userID, a.fetcher.Education)
	}()
	go func() {
		defer wg.Done()
		data.Projects, failed[2] = fetchCollection(ctx, a, "projects", userID, a.fetcher.Projects)
	}()
	go func() {
		defer wg.Done()
		data.Languages, failed[3] = fetchCollection(ctx, a, "languages", userID, a.fetcher.Languages)
	}()
	go func() {
		defer wg.Done()
		data.Certificates, failed[4] = fetchCollection(ctx, a, "certificates", userID, a.fetcher.Certificates)
	}()
	go func() {
		defer wg.Done()
		data.Publications, failed[5] = fetchCollection(ctx, a, "publications", userID, a.fetcher.Publications)
	}()
	wg.Wait()

	for i, name := range collectionNames {
		if failed[i] {
			data.failed = append(data.failed, name)
		}
	}
	return data, nil
}

var collectionNames = [6]string{
	"experiences", "education", "projects", "languages", "certificates", "publications",
}

// Degraded reports the collections whose fetch failed or timed out and fell
// back to empty. A collection that is merely empty is shown only by the
// document placeholder, never by a degradation warning.
func (d *Data) Degraded() []string {
	return d.failed
}

func fetchCollection[T any](ctx context.Context, a *Aggregator, name string, userID uint, fetch func(context.Context, uint) ([]T, error)) ([]T, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	items, err := fetch(fetchCtx, userID)
	if err != nil {
		a.logger.Warn("collection fetch degraded to empty",
			slog.String("collection", name),
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err),
		)
		return []T{}, true
	}
	if items == nil {
		items = []T{}
	}
	return items, false
}
