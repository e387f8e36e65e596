package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealscout/internal/domain"
)

type stubAdapter struct {
	key string
	typ domain.SourceType
}

func (s stubAdapter) Name() string            { return s.key }
func (s stubAdapter) Key() string             { return s.key }
func (s stubAdapter) Type() domain.SourceType { return s.typ }
func (s stubAdapter) Fetch(context.Context) ([]domain.Candidate, error) {
	return nil, nil
}

func TestRegisterDuplicateIsNoOp(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	assert.True(t, r.Register(stubAdapter{key: "telegram:deals", typ: domain.SourceTelegram}))
	assert.False(t, r.Register(stubAdapter{key: "telegram:deals", typ: domain.SourceTelegram}))
	assert.Equal(t, 1, r.Len())
}

func TestSnapshotKeepsRegistrationOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(stubAdapter{key: "telegram:deals", typ: domain.SourceTelegram})
	r.Register(stubAdapter{key: "rss:https://example.com/feed", typ: domain.SourceRSS})
	r.Register(stubAdapter{key: "actor:scraper", typ: domain.SourceActor})

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "telegram:deals", snap[0].Key())
	assert.Equal(t, "rss:https://example.com/feed", snap[1].Key())
	assert.Equal(t, "actor:scraper", snap[2].Key())
}

func TestCountByType(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(stubAdapter{key: "telegram:a", typ: domain.SourceTelegram})
	r.Register(stubAdapter{key: "telegram:b", typ: domain.SourceTelegram})
	r.Register(stubAdapter{key: "rss:feed", typ: domain.SourceRSS})

	counts := r.CountByType()
	assert.Equal(t, 2, counts[domain.SourceTelegram])
	assert.Equal(t, 1, counts[domain.SourceRSS])
	assert.Equal(t, 0, counts[domain.SourceActor])
}
