package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), ID: uuid.New()}
	parsed, err := ParseCursor(EncodeCursor(c))
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.True(t, parsed.CreatedAt.Equal(c.CreatedAt))
	assert.Equal(t, c.ID, parsed.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParseCursor("not-base64!")
	assert.Error(t, err)
}

func TestTrimEmitsNextCursorOnlyWhenBufferRowPresent(t *testing.T) {
	type row struct {
		id      uuid.UUID
		created time.Time
	}
	now := time.Now().UTC()
	rows := []row{{uuid.New(), now}, {uuid.New(), now.Add(-time.Minute)}, {uuid.New(), now.Add(-2 * time.Minute)}}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.created, ID: r.id} }

	page := Trim(rows, 2, cursorOf)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	next, err := ParseCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, rows[1].id, next.ID)

	last := Trim(rows[:2], 2, cursorOf)
	assert.Len(t, last.Items, 2)
	assert.Empty(t, last.NextCursor)

	none := Trim[row](nil, 2, cursorOf)
	assert.NotNil(t, none.Items)
}

func TestCursorIsURLSafe(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 123456789, time.UTC), ID: uuid.New()}
	token := EncodeCursor(c)
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "=")

	parsed, err := ParseCursor(token)
	require.NoError(t, err)
	assert.True(t, parsed.CreatedAt.Equal(c.CreatedAt))

	_, err = ParseCursor(base64.RawURLEncoding.EncodeToString([]byte("123.not-a-uuid")))
	assert.ErrorIs(t, err, errMalformedCursor)
}
