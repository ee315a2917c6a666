package curriculum

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeFetcher struct {
	profile    *Profile
	profileErr error

	experience []Experience
	languages  []Language

	certificatesErr   error
	certificatesDelay time.Duration
}

func (f *fakeFetcher) Profile(_ context.Context, _ uint) (*Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeFetcher) Experience(_ context.Context, _ uint) ([]Experience, error) {
	return f.experience, nil
}

func (f *fakeFetcher) Education(_ context.Context, _ uint) ([]Education, error) {
	return nil, nil
}

func (f *fakeFetcher) Projects(_ context.Context, _ uint) ([]Project, error) {
	return []Project{}, nil
}

func (f *fakeFetcher) Languages(_ context.Context, _ uint) ([]Language, error) {
	return f.languages, nil
}

func (f *fakeFetcher) Certificates(ctx context.Context, _ uint) ([]Certificate, error) {
	if f.certificatesErr != nil {
		return nil, f.certificatesErr
	}
	if f.certificatesDelay > 0 {
		select {
		case <-time.After(f.certificatesDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []Certificate{{Titulo: "AWS", Instituicao: "Amazon"}}, nil
}

func (f *fakeFetcher) Publications(_ context.Context, _ uint) ([]Publication, error) {
	return []Publication{}, nil
}

func TestAggregate_CollectionFailureDegradesToEmpty(t *testing.T) {
	fetcher := &fakeFetcher{
		profile:         &Profile{Nome: "Ana Silva"},
		experience:      []Experience{{Cargo: "Pesquisadora", Empresa: "USP"}},
		certificatesErr: errors.New("boom"),
	}
	agg := NewAggregator(fetcher, time.Second, nil)

	data, err := agg.Aggregate(context.Background(), 1)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if len(data.Experience) != 1 {
		t.Fatalf("expected 1 experience, got %d", len(data.Experience))
	}
	if data.Certificates == nil || len(data.Certificates) != 0 {
		t.Fatalf("expected empty non-nil certificates, got %#v", data.Certificates)
	}
	if got := data.Degraded(); len(got) != 1 || got[0] != "certificates" {
		t.Fatalf("expected only certificates degraded, got %v", got)
	}
}

func TestAggregate_SlowFetchTimesOutInIsolation(t *testing.T) {
	fetcher := &fakeFetcher{
		profile:           &Profile{Nome: "Ana Silva"},
		languages:         []Language{{Idioma: "Inglês", Nivel: "Fluente"}},
		certificatesDelay: 200 * time.Millisecond,
	}
	agg := NewAggregator(fetcher, 10*time.Millisecond, nil)

	data, err := agg.Aggregate(context.Background(), 1)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if len(data.Certificates) != 0 {
		t.Fatalf("expected timed-out certificates to be empty, got %d", len(data.Certificates))
	}
	if len(data.Languages) != 1 {
		t.Fatalf("expected languages untouched by sibling timeout, got %d", len(data.Languages))
	}
	if got := data.Degraded(); len(got) != 1 || got[0] != "certificates" {
		t.Fatalf("expected only certificates degraded, got %v", got)
	}
}

func TestAggregate_MissingProfileFailsFast(t *testing.T) {
	agg := NewAggregator(&fakeFetcher{profileErr: ErrProfileMissing}, time.Second, nil)

	if _, err := agg.Aggregate(context.Background(), 1); !errors.Is(err, ErrProfileMissing) {
		t.Fatalf("expected ErrProfileMissing, got %v", err)
	}
}

func TestAggregate_NilCollectionsBecomeEmpty(t *testing.T) {
	agg := NewAggregator(&fakeFetcher{profile: &Profile{Nome: "Ana"}}, time.Second, nil)

	data, err := agg.Aggregate(context.Background(), 1)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if data.Education == nil || data.Experience == nil {
		t.Fatal("nil collections must come back as empty slices")
	}
}

func TestDegraded_IgnoresEmptySuccessfulFetches(t *testing.T) {
	// A user with no records at all: every fetch succeeds, every collection
	// is empty, and nothing counts as degraded.
	agg := NewAggregator(&fakeFetcher{profile: &Profile{Nome: "Ana"}}, time.Second, nil)

	data, err := agg.Aggregate(context.Background(), 1)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got := data.Degraded(); len(got) != 0 {
		t.Fatalf("empty collections must not count as degraded, got %v", got)
	}
}
