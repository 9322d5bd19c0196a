package repositories

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAuditRepositoryListsNewestFirst(t *testing.T) {
	repo := NewLogAuditRepository(slog.New(slog.NewTextHandler(io.Discard, nil)), 3)
	ctx := context.Background()

	for _, target := range []string{"a", "b", "a", "c"} {
		require.NoError(t, repo.Create(ctx, &models.AuditLog{
			EventType:   models.AuditUserUpdated,
			TargetID:    target,
			Description: "updated " + target,
		}))
	}

	all, total, err := repo.List(ctx, models.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, "c", all[0].TargetID)
	assert.Equal(t, uint(4), all[0].ID)

	onlyA, total, err := repo.List(ctx, models.AuditFilter{TargetID: "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, uint(3), onlyA[0].ID)

	page, total, err := repo.List(ctx, models.AuditFilter{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, page)
}
