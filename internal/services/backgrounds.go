package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path"
	"strings"

	"waz-calendar/internal/models"
	"waz-calendar/internal/store"
)

const BackgroundsDir = "calendar"

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Background is an image shown behind a month of the calendar.
type Background struct {
	Name        string
	Path        string
	ContentType string
	Content     []byte
}

type BackgroundService interface {
	Pick(ctx context.Context, month int) (Background, error)
}

// BackgroundManager picks a random image from calendar/<MM>/.
type BackgroundManager struct {
	store store.ObjectStore
	intn  func(n int) int
}

func NewBackgroundManager(s store.ObjectStore) *BackgroundManager {
	return &BackgroundManager{store: s, intn: rand.IntN}
}

func (m *BackgroundManager) Pick(ctx context.Context, month int) (Background, error) {
	if month < 1 || month > 12 {
		return Background{}, &models.ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}

	entries, err := m.store.List(ctx, fmt.Sprintf("%s/%02d", BackgroundsDir, month))
	if err != nil {
		return Background{}, err
	}
	var images []store.Entry
	for _, e := range entries {
		if e.Kind != store.KindFile {
			continue
		}
		if _, ok := imageTypes[strings.ToLower(path.Ext(e.Name))]; ok {
			images = append(images, e)
		}
	}
	if len(images) == 0 {
		return Background{}, ErrNoBackground
	}

	chosen := images[m.intn(len(images))]
	obj, err := m.store.Read(ctx, chosen.Path)
	if err != nil {
		return Background{}, err
	}
	return Background{
		Name:        chosen.Name,
		Path:        chosen.Path,
		ContentType: imageTypes[strings.ToLower(path.Ext(chosen.Name))],
		Content:     obj.Content,
	}, nil
}
