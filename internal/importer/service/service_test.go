package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallgraph/internal/importer/fingerprint"
	"wallgraph/internal/importer/models"
	"wallgraph/internal/store"
)

// ============================================================
// Sessions
// ============================================================

func TestSessionLifecycle(t *testing.T) {
	m := NewSessionManager(time.Minute)
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	s := m.Issue("p1", "plan.dxf", &models.ParseResult{Layers: []string{"WALLS"}})
	require.NotEmpty(t, s.ID)

	got, ok := m.Resolve(s.ID)
	require.True(t, ok)
	assert.Equal(t, "plan.dxf", got.FileName)

	_, ok = m.Last(s.ID)
	assert.False(t, ok)

	m.Remember(s.ID, &models.NormalizedResult{})
	last, ok := m.Last(s.ID)
	require.True(t, ok)
	assert.NotNil(t, last)

	clock = clock.Add(2 * time.Minute)
	_, ok = m.Resolve(s.ID)
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestSessionLastConcurrentWithRemember(t *testing.T) {
	m := NewSessionManager(time.Minute)
	s := m.Issue("", "plan.dxf", &models.ParseResult{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(walls int) {
			defer wg.Done()
			m.Remember(s.ID, &models.NormalizedResult{Stats: models.Stats{FinalWalls: walls}})
		}(i)
		go func() {
			defer wg.Done()
			if res, ok := m.Last(s.ID); ok {
				_ = res.Stats.FinalWalls
			}
		}()
	}
	wg.Wait()

	_, ok := m.Last(s.ID)
	assert.True(t, ok)
	_, ok = m.Last("missing")
	assert.False(t, ok)
}

func TestSessionDrop(t *testing.T) {
	m := NewSessionManager(time.Minute)
	s := m.Issue("", "", &models.ParseResult{})

	assert.True(t, m.Drop(s.ID))
	assert.False(t, m.Drop(s.ID))
	_, ok := m.Resolve(s.ID)
	assert.False(t, ok)
}

func TestIssueSweepsExpired(t *testing.T) {
	m := NewSessionManager(time.Minute)
	clock := time.Now()
	m.now = func() time.Time { return clock }

	m.Issue("", "a", &models.ParseResult{})
	clock = clock.Add(time.Hour)
	m.Issue("", "b", &models.ParseResult{})
	assert.Equal(t, 1, m.Len())
}

// ============================================================
// Projects
// ============================================================

func newProjects() (*Projects, store.KV) {
	kv := store.NewMemory()
	return NewProjects(kv, fingerprint.DefaultTolerance, nil), kv
}

func TestCorrectionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, _ := newProjects()

	list, err := p.Corrections(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)

	first, err := p.AddCorrection(ctx, "p1", models.WallSideCorrection{
		Fingerprint: models.WallFingerprint{MidX: 0, MidY: -2000, Length: 6000, Angle: 0},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.ActionFlip, first.Action)
	assert.False(t, first.CreatedAt.IsZero())

	// Same wall, drifted: replaces the first correction.
	second, err := p.AddCorrection(ctx, "p1", models.WallSideCorrection{
		Fingerprint: models.WallFingerprint{MidX: 20, MidY: -2010, Length: 6050, Angle: 0.01},
		Label:       "south",
	})
	require.NoError(t, err)

	list, err = p.Corrections(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	ok, err := p.RemoveCorrection(ctx, "p1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.RemoveCorrection(ctx, "p1", second.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err = p.Corrections(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddCorrectionFoldsAngle(t *testing.T) {
	p, _ := newProjects()
	c, err := p.AddCorrection(context.Background(), "p1", models.WallSideCorrection{
		Fingerprint: models.WallFingerprint{Length: 3000, Angle: 3.5},
	})
	require.NoError(t, err)
	assert.Less(t, c.Fingerprint.Angle, 3.2)
}

func TestRemoveMatching(t *testing.T) {
	ctx := context.Background()
	p, _ := newProjects()

	_, err := p.AddCorrection(ctx, "p1", models.WallSideCorrection{Fingerprint: models.WallFingerprint{MidX: 5000, Length: 3000}})
	require.NoError(t, err)

	n, err := p.RemoveMatching(ctx, "p1", models.WallFingerprint{MidX: 5100, Length: 3000})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMalformedCorrectionsAreEmpty(t *testing.T) {
	ctx := context.Background()
	p, kv := newProjects()
	require.NoError(t, kv.Set(ctx, "project:p1:corrections", "{broken"))

	list, err := p.Corrections(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTransformAndFlags(t *testing.T) {
	ctx := context.Background()
	p, _ := newProjects()

	settings, err := p.Transform(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, settings.Identity())

	require.NoError(t, p.SetTransform(ctx, "p1", models.TransformSettings{Rotation: -90, FlipY: true}))
	settings, err = p.Transform(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.TransformSettings{Rotation: 270, FlipY: true}, settings)

	require.NoError(t, p.SetFlag(ctx, "p1", FlagUnit, "m"))
	v, ok, err := p.Flag(ctx, "p1", FlagUnit)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "m", v)

	assert.ErrorIs(t, p.SetFlag(ctx, "p1", "theme", "dark"), ErrUnknownFlag)
	assert.ErrorIs(t, p.SetFlag(ctx, "../etc", FlagUnit, "m"), ErrInvalidProject)
}
