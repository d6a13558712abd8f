package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"waz-calendar/internal/mocks"
	"waz-calendar/internal/models"
	"waz-calendar/internal/services"
	"waz-calendar/internal/store"
)

func setupEventRouter(handler *EventHandler) *gin.Engine {
	r := newTestRouter()
	r.GET("/events", handler.List)
	r.POST("/events", handler.Create)
	r.PUT("/events/:event_id", handler.Update)
	r.DELETE("/events/:event_id", handler.Delete)
	r.POST("/events/:event_id/share", handler.Share)
	return r
}

func TestListEvents(t *testing.T) {
	events := new(mocks.EventServiceMock)
	router := setupEventRouter(NewEventHandler(events))

	events.On("List", mock.Anything, "alice").Return([]models.Event{{ID: "memo_1", Content: "trip"}}, nil).Once()

	rec := serve(router, http.MethodGet, "/events", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Events []models.Event `json:"events"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "trip", resp.Events[0].Content)
	events.AssertExpectations(t)
}

func TestCreateEventOverlap(t *testing.T) {
	events := new(mocks.EventServiceMock)
	router := setupEventRouter(NewEventHandler(events))

	in := models.EventInput{StartDate: "2025-03-02", Content: "dentist"}
	existing := models.Event{ID: "memo_1", StartDate: "2025-03-01", EndDate: "2025-03-03", Content: "trip"}
	events.On("Add", mock.Anything, "alice", in).Return(nil, &services.OverlapError{Existing: existing}).Once()

	rec := serve(router, http.MethodPost, "/events", `{"startDate":"2025-03-02","content":"dentist"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	var body struct {
		Conflict models.Event `json:"conflict"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "memo_1", body.Conflict.ID)
	events.AssertExpectations(t)
}

func TestCreateEventSuccess(t *testing.T) {
	events := new(mocks.EventServiceMock)
	router := setupEventRouter(NewEventHandler(events))

	events.On("Add", mock.Anything, "alice", mock.AnythingOfType("models.EventInput")).
		Return(models.Event{ID: "memo_2", StartDate: "2025-03-05", EndDate: "2025-03-05", Content: "gym"}, nil).Once()

	rec := serve(router, http.MethodPost, "/events", `{"startDate":"2025-03-05","content":"gym","reminderMinutes":30}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	in := events.Calls[0].Arguments.Get(2).(models.EventInput)
	require.NotNil(t, in.ReminderMinutes)
	assert.Equal(t, 30, *in.ReminderMinutes)
}

func TestUpdateEventErrors(t *testing.T) {
	events := new(mocks.EventServiceMock)
	router := setupEventRouter(NewEventHandler(events))

	events.On("Update", mock.Anything, "alice", "memo_shared", mock.Anything).Return(nil, services.ErrReadOnlyEvent).Once()
	events.On("Update", mock.Anything, "alice", "memo_x", mock.Anything).
		Return(nil, &store.NetworkError{Op: "write", Path: "accounts/x.json", StatusCode: 503, Err: errors.New("unavailable")}).Once()

	rec := serve(router, http.MethodPut, "/events/memo_shared", `{"startDate":"2025-03-01","content":"x"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(router, http.MethodPut, "/events/memo_x", `{"startDate":"2025-03-01","content":"x"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "storage unavailable")

	rec = serve(router, http.MethodPut, "/events/memo_x", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	events.AssertExpectations(t)
}

func TestDeleteAndShareEvent(t *testing.T) {
	events := new(mocks.EventServiceMock)
	router := setupEventRouter(NewEventHandler(events))

	events.On("Delete", mock.Anything, "alice", "memo_1").Return(nil).Once()
	events.On("Delete", mock.Anything, "alice", "memo_gone").Return(services.ErrEventNotFound).Once()
	events.On("Share", mock.Anything, "alice", "memo_1", "carol").Return(nil, services.ErrNotFriends).Once()
	events.On("Share", mock.Anything, "alice", "memo_1", "bob").Return(models.Event{ID: "memo_copy", IsShared: true, SharedBy: "alice"}, nil).Once()

	require.Equal(t, http.StatusNoContent, serve(router, http.MethodDelete, "/events/memo_1", "").Code)
	require.Equal(t, http.StatusNotFound, serve(router, http.MethodDelete, "/events/memo_gone", "").Code)
	require.Equal(t, http.StatusForbidden, serve(router, http.MethodPost, "/events/memo_1/share", `{"friend":"carol"}`).Code)
	require.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/events/memo_1/share", `{"friend":"bob"}`).Code)
	require.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/events/memo_1/share", `{}`).Code)
	events.AssertExpectations(t)
}
