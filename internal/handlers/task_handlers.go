package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"todoList/internal/handlers/dto"
	"todoList/internal/logger"
	"todoList/internal/models/task"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

// Register вешает обработчики на роутер.
func (s *TaskHandler) Register(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.GetTasks)            // GET /tasks?sort=id|high|low
		r.Post("/", s.PostTask)           // POST /tasks
		r.Delete("/", s.DeleteAllTasks)   // DELETE /tasks?confirm=true
		r.Get("/search", s.SearchTasks)   // GET /tasks/search?q=
		r.Get("/stream", s.StreamTasks)   // GET /tasks/stream?sort=&q=
		r.Post("/restore", s.RestoreTask) // POST /tasks/restore

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetTaskByID)       // GET /tasks/{id}
			r.Put("/", s.UpdateTaskByID)    // PUT /tasks/{id}
			r.Delete("/", s.DeleteTaskByID) // DELETE /tasks/{id}
		})
	})

	r.Get("/health", s.HealthCheck)
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис недоступен", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", "todolist"),
			toPayload("error", err.Error()),
		)
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", "todolist"),
	)
}

func (s *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	order, err := task.ParseOrder(r.URL.Query().Get("sort"))
	if err != nil {
		logger.Warn("HTTP: Неверное значение параметра",
			zap.String("query", "sort"),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := s.TaskService.List(r.Context(), task.Query{Order: order})
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.String("sort", order.String()),
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithValue(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	text := r.URL.Query().Get("q")
	if text == "" {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("query", "q"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "строка поиска не может быть пустой")
		return
	}

	tasks, err := s.TaskService.FindByTitle(r.Context(), task.WrapLike(text))
	if err != nil {
		handleServiceError(w, r, err, "search_tasks")
		return
	}

	logger.Info("HTTP_OUT: Поиск выполнен",
		zap.String("q", text),
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithValue(w, http.StatusOK, dto.FromTaskList(tasks))
}

// StreamTasks отдаёт результат живого запроса как Server-Sent Events:
// первое событие сразу, следующие после каждого изменения.
func (s *TaskHandler) StreamTasks(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN: Подписка на изменения")

	flusher, ok := w.(http.Flusher)
	if !ok {
		responseWithError(w, http.StatusInternalServerError, "потоковая передача не поддерживается")
		return
	}

	order, err := task.ParseOrder(r.URL.Query().Get("sort"))
	if err != nil {
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := task.Query{Order: order}
	if text := r.URL.Query().Get("q"); text != "" {
		q = task.SearchQuery(task.WrapLike(text))
	}

	sub, err := s.TaskService.Subscribe(r.Context(), q)
	if err != nil {
		handleServiceError(w, r, err, "subscribe")
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sent := 0
	for {
		select {
		case <-r.Context().Done():
			logger.Info("HTTP_OUT: Клиент отключился от потока",
				zap.String("query", q.String()),
				zap.Int("events", sent))
			return
		case tasks, ok := <-sub.Updates():
			if !ok {
				logger.Info("HTTP_OUT: Подписка закрыта", zap.String("query", q.String()))
				return
			}
			data, err := json.Marshal(dto.FromTaskList(tasks))
			if err != nil {
				logger.Error("HTTP: Ошибка кодирования события", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: tasks\ndata: %s\n\n", data); err != nil {
				logger.Warn("HTTP: Не удалось отправить событие", zap.Error(err))
				return
			}
			flusher.Flush()
			sent++
		}
	}
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	priority, err := task.ParsePriority(request.Priority)
	if err != nil {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "priority"),
			zap.String("value", request.Priority),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задачи")
	created, err := s.TaskService.Insert(r.Context(), request.Title, request.Description, priority)
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithValue(w, http.StatusCreated, dto.FromTask(created))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.idParam(w, r)
	if !ok {
		return
	}

	found, err := s.TaskService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.Int64("task_id", found.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithValue(w, http.StatusOK, dto.FromTask(found))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	id, ok := s.idParam(w, r)
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления: "+err.Error())
		return
	}

	options, err := request.Options()
	if err != nil {
		if !handleBusinessError(w, err) {
			responseWithError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	updated, err := s.TaskService.Update(r.Context(), id, options...)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithValue(w, http.StatusOK, dto.FromTask(updated))
}

// DeleteTaskByID возвращает удалённую задачу, её можно отправить в /tasks/restore.
func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.idParam(w, r)
	if !ok {
		return
	}

	deleted, err := s.TaskService.Delete(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithValue(w, http.StatusOK, dto.FromTask(deleted))
}

func (s *TaskHandler) RestoreTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.RestoreTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	deleted, err := request.ToTask()
	if err != nil {
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	restored, err := s.TaskService.Restore(r.Context(), deleted)
	if err != nil {
		handleServiceError(w, r, err, "restore_task")
		return
	}

	logger.Info("HTTP_OUT: Задача восстановлена",
		zap.Int64("old_id", request.ID),
		zap.Int64("task_id", restored.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithValue(w, http.StatusCreated, dto.FromTask(restored))
}

// DeleteAllTasks требует явного подтверждения confirm=true.
func (s *TaskHandler) DeleteAllTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if r.URL.Query().Get("confirm") != "true" {
		logger.Warn("HTTP: Удаление всех задач без подтверждения",
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "для удаления всех задач передайте confirm=true")
		return
	}

	if err := s.TaskService.DeleteAll(r.Context()); err != nil {
		handleServiceError(w, r, err, "delete_all")
		return
	}

	logger.Info("HTTP_OUT: Все задачи удалены",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("message", "все задачи удалены"))
}

func (s *TaskHandler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := parseID(raw)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.String("id", raw),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверный id: "+raw)
		return 0, false
	}
	return id, true
}
