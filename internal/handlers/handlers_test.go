package handlers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"todoList/internal/handlers"
	"todoList/internal/handlers/dto"
	"todoList/internal/livequery"
	"todoList/internal/models/task"
	"todoList/internal/repository"
	"todoList/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) List(ctx context.Context, q task.Query) ([]*task.Task, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) FindByTitle(ctx context.Context, pattern string) ([]*task.Task, error) {
	args := m.Called(ctx, pattern)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) Subscribe(ctx context.Context, q task.Query) (*livequery.Subscription, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*livequery.Subscription), args.Error(1)
}

func (m *MockTaskService) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Insert(ctx context.Context, title, description string, priority task.Priority) (*task.Task, error) {
	args := m.Called(ctx, title, description, priority)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Restore(ctx context.Context, deleted *task.Task) (*task.Task, error) {
	args := m.Called(ctx, deleted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, id int64, options ...task.TaskOption) (*task.Task, error) {
	args := m.Called(ctx, id, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ handlers.Service = (*MockTaskService)(nil)
var _ handlers.Service = (*service.TaskService)(nil)

func newRouter(m *MockTaskService) http.Handler {
	handler := handlers.NewTaskHandler(m)
	r := chi.NewRouter()
	handler.Register(r)
	return r
}

func serve(m *MockTaskService, method, target, body, contentType string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	newRouter(m).ServeHTTP(w, req)
	return w
}

func sampleTasks() []*task.Task {
	return []*task.Task{
		{ID: 1, Title: "buy milk", Priority: task.PriorityHigh},
		{ID: 2, Title: "walk dog", Priority: task.PriorityLow},
	}
}

// TestTaskHandler_HealthCheck тестирует HealthCheck
func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - unhealthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("service unavailable"))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := serve(mockService, "GET", "/health", "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "todolist")

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetTasks тестирует получение списка с сортировкой
func TestTaskHandler_GetTasks(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success - default order",
			target: "/tasks",
			setupMock: func(m *MockTaskService) {
				m.On("List", mock.Anything, task.Query{Order: task.OrderByID}).Return(sampleTasks(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "success - high first",
			target: "/tasks?sort=high",
			setupMock: func(m *MockTaskService) {
				m.On("List", mock.Anything, task.Query{Order: task.OrderHighFirst}).Return(sampleTasks(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "success - low first",
			target: "/tasks?sort=low",
			setupMock: func(m *MockTaskService) {
				m.On("List", mock.Anything, task.Query{Order: task.OrderLowFirst}).Return(sampleTasks(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - unknown sort",
			target:         "/tasks?sort=random",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - service error",
			target: "/tasks",
			setupMock: func(m *MockTaskService) {
				m.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := serve(mockService, "GET", tt.target, "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response []dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				require.Len(t, response, 2)
				assert.Equal(t, "High Priority", response[0].Priority)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_SearchTasks тестирует поиск по названию
func TestTaskHandler_SearchTasks(t *testing.T) {
	t.Run("wraps text in wildcards", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("FindByTitle", mock.Anything, "%milk%").Return(sampleTasks()[:1], nil)

		w := serve(mockService, "GET", "/tasks/search?q=milk", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var response []dto.TaskResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		require.Len(t, response, 1)
		assert.Equal(t, "buy milk", response[0].Title)
		mockService.AssertExpectations(t)
	})

	t.Run("empty query", func(t *testing.T) {
		mockService := new(MockTaskService)

		w := serve(mockService, "GET", "/tasks/search", "", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "FindByTitle", mock.Anything, mock.Anything)
	})
}

// TestTaskHandler_PostTask тестирует создание задачи
func TestTaskHandler_PostTask(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success - create task",
			requestBody: `{"title": "Test Task", "description": "Test Description", "priority": "High Priority"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Insert", mock.Anything, "Test Task", "Test Description", task.PriorityHigh).
					Return(&task.Task{ID: 7, Title: "Test Task", Description: "Test Description", Priority: task.PriorityHigh}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "success - legacy short tag",
			requestBody: `{"title": "Test Task", "priority": "m"}`,
			contentType: "application/json; charset=utf-8",
			setupMock: func(m *MockTaskService) {
				m.On("Insert", mock.Anything, "Test Task", "", task.PriorityMedium).
					Return(&task.Task{ID: 7, Title: "Test Task", Priority: task.PriorityMedium}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - unknown priority",
			requestBody:    `{"title": "Test Task", "priority": "Urgent"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - empty title",
			requestBody: `{"title": "", "priority": "Low Priority"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Insert", mock.Anything, "", "", task.PriorityLow).
					Return(nil, service.NewValidationError("title", "название не может быть пустым"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - service error",
			requestBody: `{"title": "Test Task", "priority": "Low Priority"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Insert", mock.Anything, "Test Task", "", task.PriorityLow).
					Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := serve(mockService, "POST", "/tasks", tt.requestBody, tt.contentType)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusCreated {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, int64(7), response.ID)
				assert.Equal(t, "Test Task", response.Title)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetTaskByID тестирует получение задачи по ID
func TestTaskHandler_GetTaskByID(t *testing.T) {
	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success - get task",
			taskID: "3",
			setupMock: func(m *MockTaskService) {
				m.On("GetByID", mock.Anything, int64(3)).
					Return(&task.Task{ID: 3, Title: "Test Task", Priority: task.PriorityLow}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - not a number",
			taskID:         "abc",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - zero id",
			taskID:         "0",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - task not found",
			taskID: "3",
			setupMock: func(m *MockTaskService) {
				m.On("GetByID", mock.Anything, int64(3)).
					Return(nil, service.NewNotFound(service.InMemoryType, 3, repository.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "error - service error",
			taskID: "3",
			setupMock: func(m *MockTaskService) {
				m.On("GetByID", mock.Anything, int64(3)).
					Return(nil, errors.New("internal error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := serve(mockService, "GET", "/tasks/"+tt.taskID, "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, int64(3), response.ID)
				assert.Equal(t, "Low Priority", response.Priority)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_UpdateTaskByID тестирует обновление задачи
func TestTaskHandler_UpdateTaskByID(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success - update task",
			requestBody: `{"title": "Updated Title", "priority": "High Priority"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Update", mock.Anything, int64(5), mock.Anything).
					Return(&task.Task{ID: 5, Title: "Updated Title", Priority: task.PriorityHigh}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - unknown priority",
			requestBody:    `{"priority": "Someday"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - not found",
			requestBody: `{"title": "Updated Title"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Update", mock.Anything, int64(5), mock.Anything).
					Return(nil, service.NewNotFound(service.InMemoryType, 5, repository.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := serve(mockService, "PUT", "/tasks/5", tt.requestBody, tt.contentType)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, "Updated Title", response.Title)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_UpdateTaskByID_EmptyTitle тестирует запрет пустого названия при обновлении
func TestTaskHandler_UpdateTaskByID_EmptyTitle(t *testing.T) {
	mockService := new(MockTaskService)

	w := serve(mockService, "PUT", "/tasks/5", `{"title": ""}`, "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), service.CodeValidation)
	mockService.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// TestTaskHandler_DeleteAndRestore тестирует удаление с последующим восстановлением
func TestTaskHandler_DeleteAndRestore(t *testing.T) {
	mockService := new(MockTaskService)
	deleted := &task.Task{ID: 4, Title: "buy milk", Description: "2 litres", Priority: task.PriorityMedium}
	mockService.On("Delete", mock.Anything, int64(4)).Return(deleted, nil)
	mockService.On("Restore", mock.Anything, mock.MatchedBy(func(restored *task.Task) bool {
		return restored.SameContent(deleted)
	})).Return(&task.Task{ID: 9, Title: "buy milk", Description: "2 litres", Priority: task.PriorityMedium}, nil)

	w := serve(mockService, "DELETE", "/tasks/4", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	w = serve(mockService, "POST", "/tasks/restore", body, "application/json")
	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.TaskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, int64(9), response.ID)
	assert.Equal(t, "2 litres", response.Description)

	mockService.AssertExpectations(t)
}

// TestTaskHandler_DeleteTaskByID тестирует ошибки удаления задачи
func TestTaskHandler_DeleteTaskByID(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("Delete", mock.Anything, int64(4)).
			Return(nil, service.NewNotFound(service.SQLiteType, 4, repository.ErrNotFound))

		w := serve(mockService, "DELETE", "/tasks/4", "", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), service.CodeNotFound)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		mockService := new(MockTaskService)

		w := serve(mockService, "DELETE", "/tasks/-1", "", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestTaskHandler_DeleteAllTasks тестирует удаление всех задач
func TestTaskHandler_DeleteAllTasks(t *testing.T) {
	t.Run("without confirm", func(t *testing.T) {
		mockService := new(MockTaskService)

		w := serve(mockService, "DELETE", "/tasks", "", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "DeleteAll", mock.Anything)
	})

	t.Run("confirmed", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("DeleteAll", mock.Anything).Return(nil)

		w := serve(mockService, "DELETE", "/tasks?confirm=true", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})
}

// TestTaskHandler_StreamTasks тестирует SSE поток живого запроса
func TestTaskHandler_StreamTasks(t *testing.T) {
	var calls atomic.Int32
	hub := livequery.NewHub(func(ctx context.Context, q task.Query) ([]*task.Task, error) {
		n := calls.Add(1)
		tasks := sampleTasks()
		return tasks[:min(int(n), len(tasks))], nil
	})
	defer hub.Close()

	q := task.Query{Order: task.OrderHighFirst}
	sub, err := hub.Subscribe(context.Background(), q)
	require.NoError(t, err)

	mockService := new(MockTaskService)
	mockService.On("Subscribe", mock.Anything, q).Return(sub, nil)

	srv := httptest.NewServer(newRouter(mockService))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/tasks/stream?sort=high", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	readEvent := func() []dto.TaskResponse {
		for scanner.Scan() {
			line := scanner.Text()
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var tasks []dto.TaskResponse
				require.NoError(t, json.Unmarshal([]byte(data), &tasks))
				return tasks
			}
		}
		t.Fatal("поток закрылся раньше времени")
		return nil
	}

	assert.Len(t, readEvent(), 1)

	hub.Notify(context.Background())
	assert.Len(t, readEvent(), 2)

	cancel()
	mockService.AssertExpectations(t)
}
