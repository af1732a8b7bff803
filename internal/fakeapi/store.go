package fakeapi

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskclient/api/transport"
	"github.com/fastygo/taskclient/domain"
)

var (
	errBadCredentials = domain.NewError(domain.ErrCodeUnauthorized, "Invalid email or password")
	errEmailTaken     = domain.NewError(domain.ErrCodeConflict, "Email already exists")
	errTitleRequired  = &domain.Error{Code: domain.ErrCodeInvalid, Message: "Title is required", Field: "title"}
	errBadStatus      = &domain.Error{Code: domain.ErrCodeInvalid, Message: "Status must be pending or completed", Field: "status"}
)

type userRecord struct {
	user domain.User
	hash []byte
}

// Store is the stand-in API's in-memory state.
type Store struct {
	mu       sync.Mutex
	users    map[int64]*userRecord
	byEmail  map[string]int64
	tasks    map[int64]*domain.Task
	nextUser int64
	nextTask int64
	hashCost int
	now      func() time.Time
}

func NewStore(hashCost int) *Store {
	if hashCost < bcrypt.MinCost || hashCost > bcrypt.MaxCost {
		hashCost = bcrypt.DefaultCost
	}
	return &Store{
		users:    make(map[int64]*userRecord),
		byEmail:  make(map[string]int64),
		tasks:    make(map[int64]*domain.Task),
		hashCost: hashCost,
		now:      time.Now,
	}
}

func (s *Store) Register(name, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if strings.TrimSpace(name) == "" {
		return nil, &domain.Error{Code: domain.ErrCodeInvalid, Message: "Name is required", Field: "name"}
	}
	if len(password) < 6 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "Password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "could not hash password", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return nil, errEmailTaken
	}
	s.nextUser++
	created := s.now().UTC()
	rec := &userRecord{
		user: domain.User{ID: s.nextUser, Name: strings.TrimSpace(name), Email: email, CreatedAt: &created},
		hash: hash,
	}
	s.users[rec.user.ID] = rec
	s.byEmail[email] = rec.user.ID
	out := rec.user
	return &out, nil
}

func (s *Store) Authenticate(email, password string) (*domain.User, error) {
	s.mu.Lock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	var rec *userRecord
	if ok {
		rec = s.users[id]
	}
	s.mu.Unlock()

	if rec == nil {
		return nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.hash, []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	out := rec.user
	return &out, nil
}

func (s *Store) UserExists(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok
}

func (s *Store) ListTasks(userID int64, status string, page, limit int) ([]domain.Task, domain.Pagination) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []domain.Task
	for _, t := range s.tasks {
		if t.UserID != userID {
			continue
		}
		if status != "" && string(t.Status) != status {
			continue
		}
		matched = append(matched, *t)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	pagination := domain.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}

	start := (page - 1) * limit
	if start >= total {
		return []domain.Task{}, pagination
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], pagination
}

func (s *Store) GetTask(userID, id int64) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	out := *t
	return &out, nil
}

func (s *Store) CreateTask(userID int64, req transport.TaskCreateRequest) (*domain.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, errTitleRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTask++
	now := s.now().UTC()
	t := &domain.Task{
		ID:          s.nextTask,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      domain.TaskPending,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks[t.ID] = t
	out := *t
	return &out, nil
}

func (s *Store) UpdateTask(userID, id int64, req transport.TaskUpdateRequest) (*domain.Task, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, errTitleRequired
	}
	if req.Status != nil && !domain.TaskStatus(*req.Status).Valid() {
		return nil, errBadStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		t.Status = domain.TaskStatus(*req.Status)
	}
	t.UpdatedAt = s.now().UTC()
	out := *t
	return &out, nil
}

func (s *Store) DeleteTask(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(userID, id); err != nil {
		return err
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) ToggleTask(userID, id int64) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.TaskCompleted {
		t.Status = domain.TaskPending
	} else {
		t.Status = domain.TaskCompleted
	}
	t.UpdatedAt = s.now().UTC()
	out := *t
	return &out, nil
}

// owned must be called with s.mu held.
func (s *Store) owned(userID, id int64) (*domain.Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return t, nil
}
