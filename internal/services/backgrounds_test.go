package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waz-calendar/internal/models"
)

func TestBackgroundPick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for p, content := range map[string]string{
		"calendar/03/spring.PNG": "png-bytes",
		"calendar/03/notes.txt":  "not an image",
		"calendar/04/rain.txt":   "not an image",
	} {
		_, err := f.store.Write(ctx, p, []byte(content), "", "add "+p)
		require.NoError(t, err)
	}

	m := NewBackgroundManager(f.store)
	m.intn = func(int) int { return 0 }

	bg, err := m.Pick(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "spring.PNG", bg.Name)
	assert.Equal(t, "image/png", bg.ContentType)
	assert.Equal(t, []byte("png-bytes"), bg.Content)

	_, err = m.Pick(ctx, 4)
	require.ErrorIs(t, err, ErrNoBackground)
	_, err = m.Pick(ctx, 5)
	require.ErrorIs(t, err, ErrNoBackground)

	_, err = m.Pick(ctx, 13)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "month", verr.Field)
}
